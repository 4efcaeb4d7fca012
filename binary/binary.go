package binary

import (
	"context"
	"fmt"
	"path/filepath"
)

// Binary describes an executable, the version wanted and where it comes from.
type Binary struct {
	platform Platform
	origin   Origin
	template Template

	installed string
}

// New constructs a binary called command, installed from origin on the given platform.
// Unless [WithDirectory] is passed, the binary lands in the platform's default directory.
// Relative directories are made absolute against the current directory.
func New(command, version string, platform Platform, origin Origin, options ...Option) (*Binary, error) {
	if version == "" {
		return nil, fmt.Errorf("version must be set")
	}

	if origin == nil {
		return nil, fmt.Errorf("origin must be set")
	}

	bin := Binary{
		platform: platform,
		origin:   origin,
		template: Template{
			GOOS:             platform.GOOS(),
			GOARCH:           "amd64",
			Name:             command,
			Version:          version,
			Extension:        platform.Extension(),
			ArchiveExtension: platform.ArchiveExtension(),
		},
	}

	for _, opt := range options {
		opt(&bin)
	}

	if bin.template.Directory == "" && !platform.PackageManaged() {
		dir, err := platform.DefaultDirectory()
		if err != nil {
			return nil, err
		}
		bin.template.Directory = dir
	}

	if bin.template.Directory != "" && !filepath.IsAbs(bin.template.Directory) {
		dir, err := filepath.Abs(bin.template.Directory)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to resolve directory %s: %s", ErrInstall, bin.template.Directory, err)
		}
		bin.template.Directory = dir
	}

	bin.template.Cmd = filepath.Join(bin.template.Directory, command+bin.template.Extension)

	return &bin, nil
}

// Name of the binary, without extension.
func (b *Binary) Name() string {
	return b.template.Name
}

// Platform the binary is installed for.
func (b *Binary) Platform() Platform {
	return b.platform
}

// Directory the binary is installed into.
// Empty for package managed platforms, where the package manager decides.
func (b *Binary) Directory() string {
	return b.template.Directory
}

// Template returns the resolved template values for the binary.
func (b *Binary) Template() Template {
	return b.template
}

// BinPath returns the path to the executable.
// After a successful [Binary.Install] it is the path reported by the origin.
func (b *Binary) BinPath() string {
	if b.installed != "" {
		return b.installed
	}
	return b.template.Cmd
}

// Install provisions the binary through its origin.
// Nothing is cached; every call downloads or invokes the package manager again.
func (b *Binary) Install(ctx context.Context) error {
	logstep(fmt.Sprintf("installing %s %s for %s", b.template.Name, b.template.Version, b.platform))

	path, err := b.origin.Install(ctx, b.template)
	if err != nil {
		return err
	}

	b.installed = path
	return nil
}
