package binary

import (
	"strings"
	"text/template"
)

// Template contains fields used to resolve specific metadata about the binary.
// It includes platform information, binary location details, and version information.
type Template struct {
	// GOOS is the operating system name used in artifacts (e.g., "linux", "darwin", "windows")
	GOOS string
	// GOARCH is the architecture name used in artifacts; always "amd64"
	GOARCH string

	// Directory where the binary is installed
	Directory string
	// Name of the binary
	Name string
	// Cmd is the qualified path to the executable
	Cmd string
	// Version is the normalized semantic version, without leading v
	Version string
	// Commit is the short commit hash release artifacts are named after
	Commit string
	// Extension is the file extension for the binary.
	// Empty on unix systems and ".exe" on windows.
	Extension string
	// ArchiveExtension is the extension of the release archive, ".tar.gz" or ".zip".
	ArchiveExtension string
}

// Resolve executes the provided format string as a template with the Template's fields.
// It returns the resolved string and any error that occurred during template parsing or execution.
func (t Template) Resolve(format string) (string, error) {
	tmpl, err := template.New("bin").Parse(format)
	if err != nil {
		return "", err
	}

	var bld strings.Builder
	if err := tmpl.Execute(&bld, t); err != nil {
		return "", err
	}

	return bld.String(), nil
}
