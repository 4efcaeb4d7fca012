package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	setupgeth "github.com/aexvir/setup-geth"
	"github.com/aexvir/setup-geth/actions"
	"github.com/aexvir/setup-geth/binary"
	"github.com/aexvir/setup-geth/release"
	"github.com/aexvir/setup-geth/version"
)

const (
	keyVersion    = "version"
	keyToken      = "token"
	keyInstallDir = "install-dir"
)

// config holds the action inputs after flags and environment are merged.
type config struct {
	Version    string
	Token      string
	InstallDir string
}

type installfunc func(ctx context.Context, conf config) error

// newRootCommand builds the command; flags take precedence over INPUT_* variables.
// The token also falls back to GITHUB_TOKEN.
func newRootCommand(v *viper.Viper, run installfunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup-geth",
		Short: "Install geth on the current runner",
		Long: `setup-geth installs the requested geth version and puts it on PATH.

Linux and Windows runners download the official release archive, macOS
runners install the ethereum formula from the ethereum/ethereum Homebrew tap.

Every flag can also be set through the matching GitHub Actions input variable,
e.g. INPUT_VERSION or INPUT_INSTALL_DIR.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bind(v, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := config{
				Version:    strings.TrimSpace(v.GetString(keyVersion)),
				Token:      strings.TrimSpace(v.GetString(keyToken)),
				InstallDir: strings.TrimSpace(v.GetString(keyInstallDir)),
			}

			if conf.Version == "" {
				conf.Version = version.Latest
			}

			return run(cmd.Context(), conf)
		},
	}

	cmd.Flags().String(keyVersion, version.Latest, `geth version to install, e.g. 1.13.5, v1.13.5 or "latest"`)
	cmd.Flags().String(keyToken, "", "github token used to query the release index")
	cmd.Flags().String(keyInstallDir, "", "directory geth is installed into (default ~/.geth/bin)")

	return cmd
}

func bind(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvPrefix("INPUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.BindEnv(keyToken, "INPUT_TOKEN", "GITHUB_TOKEN"); err != nil {
		return fmt.Errorf("failed to bind token: %w", err)
	}

	// the runner keeps hyphens when exporting inputs of javascript and docker actions
	if err := v.BindEnv(keyInstallDir, "INPUT_INSTALL_DIR", "INPUT_INSTALL-DIR"); err != nil {
		return fmt.Errorf("failed to bind install dir: %w", err)
	}

	return nil
}

// install wires the release index and the actions runner into an installer and runs it.
func install(ctx context.Context, conf config, runner *actions.Runner) error {
	platform, err := binary.CurrentPlatform()
	if err != nil {
		return &setupgeth.StageError{Stage: setupgeth.Start, Kind: setupgeth.InstallError, Err: err}
	}

	index := release.NewGitHubClient(release.WithToken(conf.Token))

	var opts []setupgeth.Option
	if conf.InstallDir != "" {
		dir, err := installdir(conf.InstallDir)
		if err != nil {
			return &setupgeth.StageError{Stage: setupgeth.Start, Kind: setupgeth.InstallError, Err: err}
		}
		opts = append(opts, setupgeth.WithDirectory(dir))
	}

	_, err = setupgeth.New(platform, index, runner, opts...).Execute(ctx, conf.Version)
	return err
}

// installdir makes dir absolute. Inside GitHub Actions relative paths are anchored
// at $GITHUB_WORKSPACE, as the action itself runs from its own checkout.
func installdir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}

	if workspace := os.Getenv("GITHUB_WORKSPACE"); workspace != "" && actions.IsActions() {
		return filepath.Join(workspace, dir), nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve install dir %s: %w", dir, err)
	}

	return abs, nil
}
