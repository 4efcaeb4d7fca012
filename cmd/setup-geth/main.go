// Command setup-geth installs geth on a GitHub Actions runner.
//
// Inputs are read from flags or from the INPUT_* variables GitHub Actions
// exposes for action inputs; outputs are written to $GITHUB_OUTPUT.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"github.com/aexvir/setup-geth/actions"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := actions.FromEnv()

	cmd := newRootCommand(
		viper.New(),
		func(ctx context.Context, conf config) error {
			return install(ctx, conf, runner)
		},
	)

	if err := cmd.ExecuteContext(ctx); err != nil {
		runner.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
