package setupgeth

import (
	"context"
	"fmt"
	"path"

	"github.com/aexvir/setup-geth/binary"
	"github.com/aexvir/setup-geth/version"
)

const (
	// ArchiveHost serves the official geth release archives.
	ArchiveHost = "https://gethstore.blob.core.windows.net"

	// Tap and Formula of the official Homebrew distribution.
	Tap     = "ethereum/ethereum"
	Formula = "ethereum"

	archivepath  = "/builds/geth-{{.GOOS}}-{{.GOARCH}}-{{.Version}}-{{.Commit}}{{.ArchiveExtension}}"
	archiveentry = "geth-{{.GOOS}}-{{.GOARCH}}-{{.Version}}-{{.Commit}}/geth{{.Extension}}"
)

// plan derives the binary to install for the requested version and records the
// download identifier in the descriptor.
// Archive names contain the release commit, which is looked up in the index.
func (i *Installer) plan(ctx context.Context, desc *version.Descriptor) (*binary.Binary, error) {
	if i.platform.PackageManaged() {
		origin := binary.Homebrew(Tap, Formula, i.brewopts...)

		bin, err := binary.New("geth", desc.Version, i.platform, origin)
		if err != nil {
			return nil, err
		}

		desc.Artifact = binary.Invocation(origin)
		return bin, nil
	}

	commit, err := i.index.CommitForTag(ctx, desc.Tag())
	if err != nil {
		return nil, fmt.Errorf("failed to find release commit for %s: %w", desc.Tag(), err)
	}

	origin := binary.RemoteArchiveDownload(
		i.archivehost+archivepath,
		map[string]string{archiveentry: "geth{{.Extension}}"},
	)

	opts := []binary.Option{binary.WithCommit(commit)}
	if i.directory != "" {
		opts = append(opts, binary.WithDirectory(i.directory))
	}

	bin, err := binary.New("geth", desc.Version, i.platform, origin, opts...)
	if err != nil {
		return nil, err
	}

	url, err := binary.ArchiveURL(origin, bin.Template())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve archive url: %s", binary.ErrFetch, err)
	}

	desc.Artifact = path.Base(url)
	return bin, nil
}
