// Package binary provides utilities to provision external binaries on CI runners.
//
// At the core, a [Binary] describes the binary name,
// the desired version, the [Platform] it's installed for and an origin
// pointing at where to obtain the binary from.
//
// Origins implement the logic needed to provision the binary. There are two:
// - [RemoteArchiveDownload]: for binaries contained in archives that can be downloaded from a url
// - [Homebrew]: delegates to the Homebrew package manager
// If any other source is needed, a new origin can be implemented by just fulfilling the [Origin] interface.
//
// The template passed as argument to the Install function contains all the
// information regarding the platform, to tailor the installation process.
// e.g. using the GOOS and ArchiveExtension values to point to the correct archive.
//
// Failures are reported wrapping one of [ErrFetch], [ErrExtract] or [ErrInstall].
//
// example usage
//
//	platform, err := binary.CurrentPlatform()
//	if err != nil {
//		return err
//	}
//
//	geth, err := binary.New(
//		"geth",
//		"1.13.5",
//		platform,
//		binary.RemoteArchiveDownload(
//			"https://gethstore.blob.core.windows.net/builds/geth-{{.GOOS}}-{{.GOARCH}}-{{.Version}}-{{.Commit}}{{.ArchiveExtension}}",
//			map[string]string{
//				"geth-{{.GOOS}}-{{.GOARCH}}-{{.Version}}-{{.Commit}}/geth{{.Extension}}": "geth{{.Extension}}",
//			},
//		),
//		binary.WithCommit("916d6a44"),
//	)
//	if err != nil {
//		return err
//	}
//
//	if err := geth.Install(ctx); err != nil {
//		return fmt.Errorf("failed to provision geth: %w", err)
//	}
//
//	exec.Command(geth.BinPath(), "version").Run()
package binary
