package version

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Latest is the token that requests the most recent stable release.
const Latest = "latest"

// ErrInvalidVersion is returned when a token is neither [Latest] nor semver shaped.
var ErrInvalidVersion = errors.New("invalid version")

var shape = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?$`)

// Descriptor is the version value that flows through a single installation.
type Descriptor struct {
	// Raw is the token exactly as received.
	Raw string
	// Version is the normalized semantic version, without leading `v`.
	Version string
	// Artifact identifies what gets installed on the current platform;
	// an archive file name or a package manager invocation.
	// It's empty until the installer derives it.
	Artifact string
}

// Tag returns the upstream git tag for the version, e.g. v1.13.5.
func (d Descriptor) Tag() string {
	return "v" + d.Version
}

func (d Descriptor) String() string {
	if d.Raw == d.Version || d.Raw == "" {
		return d.Version
	}
	return fmt.Sprintf("%s (%s)", d.Version, d.Raw)
}

// Valid reports whether v is a normalized semantic version.
func Valid(v string) bool {
	return shape.MatchString(v)
}

// Normalize strips a single leading `v` from token and validates what's left.
// Normalizing an already normalized version returns it unchanged.
func Normalize(token string) (string, error) {
	normalized := strings.TrimPrefix(token, "v")
	if !Valid(normalized) {
		return "", fmt.Errorf("%w: %q doesn't match major.minor.patch[-suffix]", ErrInvalidVersion, token)
	}
	return normalized, nil
}

// Index looks up the most recent stable release tag.
type Index interface {
	LatestTag(ctx context.Context) (string, error)
}

// Resolver resolves version tokens, consulting the index only for [Latest].
type Resolver struct {
	index Index
}

// NewResolver builds a resolver backed by the given release index.
func NewResolver(index Index) *Resolver {
	return &Resolver{index: index}
}

// Resolve turns token into a [Descriptor].
// The comparison against [Latest] is case-sensitive; `Latest` is an invalid token.
func (r *Resolver) Resolve(ctx context.Context, token string) (Descriptor, error) {
	if token != Latest {
		normalized, err := Normalize(token)
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Raw: token, Version: normalized}, nil
	}

	if r.index == nil {
		return Descriptor{}, errors.New("no release index configured to resolve latest")
	}

	tag, err := r.index.LatestTag(ctx)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to look up latest release: %w", err)
	}

	normalized, err := Normalize(tag)
	if err != nil {
		return Descriptor{}, fmt.Errorf("release index returned unusable tag: %w", err)
	}

	return Descriptor{Raw: token, Version: normalized}, nil
}
