package setupgeth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aexvir/setup-geth/version"
)

// ErrVerification is returned when the installed binary can't report a usable version.
var ErrVerification = errors.New("verification failed")

// geth prints a `Version: 1.13.5-stable` line as part of `geth version`
var versionline = regexp.MustCompile(`(?m)^Version:\s*v?(\S+)\s*$`)

// Verify runs `<binpath> version` and returns the version the binary reports.
func Verify(ctx context.Context, binpath string) (string, error) {
	var stdout, stderr bytes.Buffer

	err := Run(
		ctx,
		binpath,
		WithArgs("version"),
		WithoutNoise(),
		WithStdOut(&stdout),
		WithStdErr(&stderr),
	)
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrVerification, err, msg)
		}
		return "", fmt.Errorf("%w: %s", ErrVerification, err)
	}

	return ParseVersionOutput(stdout.String())
}

// ParseVersionOutput extracts the version from the output of `geth version`.
// The `-stable` marker geth appends to release builds is dropped; any other
// suffix, like `-unstable` or `-rc.1`, is part of the version.
func ParseVersionOutput(output string) (string, error) {
	match := versionline.FindStringSubmatch(output)
	if match == nil {
		return "", fmt.Errorf("%w: no version line in output %q", ErrVerification, strings.TrimSpace(output))
	}

	installed := strings.TrimSuffix(match[1], "-stable")
	if !version.Valid(installed) {
		return "", fmt.Errorf("%w: unparsable version %q", ErrVerification, match[1])
	}

	return installed, nil
}
