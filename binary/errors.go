package binary

import "errors"

var (
	// ErrFetch is returned when an artifact can't be downloaded.
	ErrFetch = errors.New("fetch failed")
	// ErrExtract is returned when an archive is corrupt, of an unsupported type or
	// doesn't contain the expected files.
	ErrExtract = errors.New("extraction failed")
	// ErrInstall is returned when the package manager fails or files can't be placed
	// in the install directory.
	ErrInstall = errors.New("installation failed")
)
