package binary

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Platform is the tagged set of supported runners.
// It's resolved once at startup and decides how a binary gets installed.
type Platform int

const (
	Linux Platform = iota + 1
	Windows
	MacOS
)

// DetectPlatform maps GOOS/GOARCH values to a supported platform.
// Archive based platforms only ship x64 builds; on macOS the architecture is
// left to the package manager.
func DetectPlatform(goos, goarch string) (Platform, error) {
	var platform Platform

	switch goos {
	case "linux":
		platform = Linux
	case "windows":
		platform = Windows
	case "darwin":
		return MacOS, nil
	default:
		return 0, fmt.Errorf("%w: unsupported operating system %s", ErrInstall, goos)
	}

	if goarch != "amd64" {
		return 0, fmt.Errorf("%w: unsupported architecture %s on %s; only x64 builds are available", ErrInstall, goarch, platform)
	}

	return platform, nil
}

// CurrentPlatform detects the platform this process is running on.
func CurrentPlatform() (Platform, error) {
	return DetectPlatform(runtime.GOOS, runtime.GOARCH)
}

func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case Windows:
		return "windows"
	case MacOS:
		return "macos"
	default:
		return "unknown"
	}
}

// GOOS returns the operating system name used in release artifact names.
func (p Platform) GOOS() string {
	if p == MacOS {
		return "darwin"
	}
	return p.String()
}

// Extension returns the executable file extension.
func (p Platform) Extension() string {
	if p == Windows {
		return ".exe"
	}
	return ""
}

// ArchiveExtension returns the extension of the release archives built for the platform.
func (p Platform) ArchiveExtension() string {
	switch p {
	case Linux:
		return ".tar.gz"
	case Windows:
		return ".zip"
	default:
		return ""
	}
}

// PackageManaged reports whether binaries get installed by the system package
// manager instead of being downloaded into a directory owned by this installer.
func (p Platform) PackageManaged() bool {
	return p == MacOS
}

// DefaultDirectory returns the well known install path for the platform:
// ~/.geth/bin on linux and %USERPROFILE%\.geth\bin on windows.
// Package managed platforms have no directory of their own and return "".
func (p Platform) DefaultDirectory() (string, error) {
	if p.PackageManaged() {
		return "", nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: failed to determine home directory: %s", ErrInstall, err)
	}

	return filepath.Join(home, ".geth", "bin"), nil
}
