//go:build mage

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	setupgeth "github.com/aexvir/setup-geth"
	"github.com/aexvir/setup-geth/actions"
)

const (
	goimportsVersion    = "v0.30.0"
	golangcilintVersion = "v1.64.8"
)

type task func(ctx context.Context) error

// execute runs tasks sequentially, reporting every failure at the end
func execute(ctx context.Context, tasks ...task) error {
	var errs []string
	start := time.Now()

	fmt.Printf("\n")

	if err := setupgeth.Run(ctx, "go", setupgeth.WithArgs("mod", "download")); err != nil {
		return fmt.Errorf("failed to download modules: %s", err.Error())
	}

	for _, task := range tasks {
		if err := task(ctx); err != nil {
			errs = append(errs, err.Error())
		}
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	color.New(color.FgHiBlack).Printf("------------------------\n\n")

	if len(errs) > 0 {
		color.Red(" ✘ finished with errors after %s", elapsed)
		for _, errmsg := range errs {
			color.Red("   • %s", errmsg)
		}
		fmt.Printf("\n")
		return fmt.Errorf("task finished with errors")
	}

	color.Green(" ✔ all good after %s\n\n", elapsed)
	return nil
}

func gorun(args ...string) task {
	return gorunenv(nil, args...)
}

func gorunenv(env []string, args ...string) task {
	return func(ctx context.Context) error {
		return setupgeth.Run(ctx, "go", setupgeth.WithArgs(args...), setupgeth.WithEnv(env...))
	}
}

// format codebase using gofmt and goimports
func Format(ctx context.Context) error {
	return execute(
		ctx,
		gorun("fmt", "./..."),
		gorun("run", "golang.org/x/tools/cmd/goimports@"+goimportsVersion, "-w", "-local", "github.com/aexvir/setup-geth", "."),
	)
}

// lint the code using go mod tidy and golangci-lint
func Lint(ctx context.Context) error {
	lintargs := []string{"run", "github.com/golangci/golangci-lint/cmd/golangci-lint@" + golangcilintVersion, "run"}
	if actions.IsActions() {
		lintargs = append(lintargs, "--out-format", "github-actions")
	}

	return execute(
		ctx,
		gorun("mod", "tidy"),
		gorun(lintargs...),
	)
}

// run unit tests
func Test(ctx context.Context) error {
	args := []string{"test", "-cover", "./..."}
	if actions.IsCIEnv() {
		args = append(args, "-race")
	}

	return execute(ctx, gorun(args...))
}

// build the setup-geth binary into ./bin
func Build(ctx context.Context) error {
	return execute(ctx, gorunenv([]string{"CGO_ENABLED=0"}, "build", "-o", "bin/", "./cmd/setup-geth"))
}

// install geth on the current machine, honoring INPUT_VERSION and INPUT_INSTALL_DIR
func Install(ctx context.Context) error {
	return execute(ctx, gorun("run", "./cmd/setup-geth"))
}
