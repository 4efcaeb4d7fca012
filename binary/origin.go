package binary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Origin defines the interface for provisioning binaries from different sources.
type Origin interface {
	// Install performs the installation of a binary and returns the path of the
	// installed executable.
	// The template contains information about the target platform and desired version.
	Install(ctx context.Context, template Template) (string, error)
}

// remotearchive implements Origin for downloading and extracting archived binaries.
// It supports compressed archives (tar.gz and zip) containing multiple files,
// selectively extracting specific binaries from them.
type remotearchive struct {
	urlformat string
	binaries  map[string]string
	client    *http.Client
}

// RemoteArchiveDownload creates a new Origin that downloads and extracts binaries from
// a compressed archive. The URL can contain template variables that will be resolved
// using the [Template] values during installation.
// e.g. "https://gethstore.blob.core.windows.net/builds/geth-{{.GOOS}}-{{.GOARCH}}-{{.Version}}-{{.Commit}}{{.ArchiveExtension}}"
//
// The binaries parameter maps archive paths to the desired binary names in the
// installation directory. Only files specified in this map will be extracted, and
// all of them must be present in the archive.
// Both archive paths and binary names can contain template variables.
//
// e.g. {"geth-{{.GOOS}}-{{.GOARCH}}-{{.Version}}-{{.Commit}}/geth{{.Extension}}": "geth{{.Extension}}"}
// extracts the binary nested in the versioned folder to the root of the install directory.
func RemoteArchiveDownload(url string, binaries map[string]string) Origin {
	return &remotearchive{
		urlformat: url,
		binaries:  binaries,
		client:    http.DefaultClient,
	}
}

// ArchiveURL resolves the download url of an archive origin for the template.
// Returns an empty string for origins that don't download archives.
func ArchiveURL(origin Origin, template Template) (string, error) {
	archive, ok := origin.(*remotearchive)
	if !ok {
		return "", nil
	}
	return template.Resolve(archive.urlformat)
}

func (r *remotearchive) Install(ctx context.Context, template Template) (string, error) {
	if err := os.MkdirAll(template.Directory, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create destination folder %s: %s", ErrInstall, template.Directory, err)
	}

	url, err := template.Resolve(r.urlformat)
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve URL: %s", ErrFetch, err)
	}

	archive := filepath.Join(template.Directory, filepath.Base(url))
	defer os.Remove(archive)

	if err := download(ctx, r.client, url, archive); err != nil {
		return "", err
	}

	// resolve binary mapping templates
	mapping := make(map[string]string, len(r.binaries))
	for path, replacement := range r.binaries {
		resolvedpath, err := template.Resolve(path)
		if err != nil {
			return "", fmt.Errorf("%w: failed to resolve archive path %s: %s", ErrExtract, path, err)
		}
		resolvedreplacement, err := template.Resolve(replacement)
		if err != nil {
			return "", fmt.Errorf("%w: failed to resolve binary name %s: %s", ErrExtract, replacement, err)
		}
		mapping[resolvedpath] = resolvedreplacement
	}

	extracted, err := extract(
		archive,
		template.Directory,
		func(path string) *string {
			// if there's no file override, extract the file as is
			if len(mapping) == 0 {
				return &path
			}

			// otherwise only extract files that are present in the map
			if replacement, ok := mapping[path]; ok {
				logdetail(fmt.Sprintf("  resolved %s to %s", path, replacement))
				return &replacement
			}
			return nil
		},
	)
	if err != nil {
		return "", err
	}

	for path := range mapping {
		if _, ok := extracted[path]; !ok {
			return "", fmt.Errorf("%w: %s not found in %s", ErrExtract, path, filepath.Base(url))
		}
	}

	return template.Cmd, nil
}

// homebrew implements Origin by delegating the installation to the Homebrew package manager.
// The version is decided by the formula; the requested version can't be honored.
type homebrew struct {
	tap     string
	formula string
	brew    string
}

type HomebrewOpt func(h *homebrew)

// WithBrewExecutable overrides the brew executable, which is looked up in PATH by default.
func WithBrewExecutable(path string) HomebrewOpt {
	return func(h *homebrew) {
		h.brew = path
	}
}

// Homebrew creates a new Origin that taps tap and installs tap/formula.
// e.g. Homebrew("ethereum/ethereum", "ethereum") runs
//
//	brew tap ethereum/ethereum
//	brew install ethereum/ethereum/ethereum
func Homebrew(tap, formula string, opts ...HomebrewOpt) Origin {
	h := homebrew{
		tap:     tap,
		formula: formula,
		brew:    "brew",
	}

	for _, opt := range opts {
		opt(&h)
	}

	return &h
}

// Invocation returns the package manager command line used by a homebrew origin.
// Returns an empty string for other origins.
func Invocation(origin Origin) string {
	brew, ok := origin.(*homebrew)
	if !ok {
		return ""
	}
	return fmt.Sprintf("brew install %s/%s", brew.tap, brew.formula)
}

func (h *homebrew) Install(ctx context.Context, template Template) (string, error) {
	if h.tap != "" {
		if _, err := h.run(ctx, "tap", h.tap); err != nil {
			return "", err
		}
	}

	pkg := h.formula
	if h.tap != "" {
		pkg = h.tap + "/" + h.formula
	}

	if _, err := h.run(ctx, "install", pkg); err != nil {
		return "", err
	}

	prefix, err := h.run(ctx, "--prefix", h.formula)
	if err != nil {
		return "", err
	}

	return filepath.Join(strings.TrimSpace(prefix), "bin", template.Name+template.Extension), nil
}

// run executes brew with args, returning its stdout.
func (h *homebrew) run(ctx context.Context, args ...string) (string, error) {
	logdetail(fmt.Sprintf("running %s %s", h.brew, strings.Join(args, " ")))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.brew, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: brew %s: %s", ErrInstall, strings.Join(args, " "), msg)
	}

	return stdout.String(), nil
}

// download downloads a file from a URL to a local destination.
func download(ctx context.Context, client *http.Client, url, destination string) (err error) {
	logdetail(fmt.Sprintf("downloading %s to %s", url, destination))

	start := time.Now()
	defer func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			color.Red("     ✘ %s", elapsed)
			return
		}
		color.Green("     ✔ %s", elapsed)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %s", ErrFetch, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to download file: %s", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: received unexpected response when downloading %s: http%d", ErrFetch, url, resp.StatusCode)
	}

	data, finish := progress(resp.Body, resp.ContentLength)
	defer finish()

	out, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("%w: failed to create file %s: %s", ErrInstall, destination, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, data); err != nil {
		return fmt.Errorf("%w: failed to copy data to file %s: %s", ErrFetch, destination, err)
	}

	return nil
}

// progress wraps an io.Reader to display a progress bar when running in a terminal.
// Returns the wrapped reader and a function to finalize the progress display.
// The progress bar shows transfer speed and completion percentage.
func progress(reader io.Reader, size int64) (io.Reader, func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return reader, func() {}
	}

	bar := pb.
		New64(size).
		SetTemplate(
			pb.ProgressBarTemplate(
				color.New(color.FgHiBlack).Sprint(
					`   └ {{string . "prefix"}}{{counters . }}` +
						` {{bar . "[" "=" ">" " " "]" }} {{percent . }}` +
						` {{speed . }} {{string . "suffix"}}`,
				),
			),
		).
		SetRefreshRate(time.Second / 60).
		SetMaxWidth(100).
		Start()

	return bar.NewProxyReader(reader), func() { bar.Finish() }
}

func logstep(text string) {
	fmt.Println(
		color.BlueString(" •"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func logdetail(text string) {
	fmt.Println(
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}
