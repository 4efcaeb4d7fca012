// Package setupgeth installs geth on CI runners.
//
// An [Installer] runs a strictly sequential pipeline
//
//	Start → Resolving → Installing → Verifying → Done
//
// where any stage can end the run in Failed with a [*StageError].
// Nothing is retried; retry policies belong to the calling workflow.
package setupgeth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/aexvir/setup-geth/actions"
	"github.com/aexvir/setup-geth/binary"
	"github.com/aexvir/setup-geth/version"
)

// Stage of the installation pipeline.
type Stage int

const (
	Start Stage = iota
	Resolving
	Installing
	Verifying
	Done
	Failed
)

func (s Stage) String() string {
	switch s {
	case Start:
		return "start"
	case Resolving:
		return "resolving"
	case Installing:
		return "installing"
	case Verifying:
		return "verifying"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Index is the release index: it knows the latest stable tag and the commit
// each tag points at.
type Index interface {
	version.Index
	CommitForTag(ctx context.Context, tag string) (string, error)
}

// Reporter publishes results to the workflow running the installer.
type Reporter interface {
	SetOutputs(outputs ...actions.Output) error
	AddPath(dir string) error
	Warning(msg string)
}

// Verifier returns the version reported by the binary at binpath.
type Verifier func(ctx context.Context, binpath string) (string, error)

// Result is threaded through the stages of a run.
type Result struct {
	// Requested is the resolved version descriptor.
	Requested version.Descriptor
	// Installed is the version the installed binary reports.
	Installed string
	// BinPath is the path of the installed executable.
	BinPath string
	// Platform the binary was installed for.
	Platform binary.Platform
	// Mismatch is set when the installed version differs from the requested one,
	// which can happen when a package manager decides the version.
	Mismatch bool
	// Stage is the last stage reached; Done on success, Failed otherwise.
	Stage Stage
}

// Installer installs geth for a single platform.
type Installer struct {
	platform binary.Platform
	index    Index
	reporter Reporter
	resolver *version.Resolver
	verify   Verifier

	directory   string
	archivehost string
	brewopts    []binary.HomebrewOpt
}

type Option func(i *Installer)

// WithDirectory overrides the platform's default install directory.
// Relative paths are resolved against the current directory.
func WithDirectory(dir string) Option {
	return func(i *Installer) {
		i.directory = dir
	}
}

// WithArchiveHost overrides the host release archives are downloaded from.
func WithArchiveHost(host string) Option {
	return func(i *Installer) {
		i.archivehost = host
	}
}

// WithHomebrewOptions customizes the homebrew origin used on macOS.
func WithHomebrewOptions(opts ...binary.HomebrewOpt) Option {
	return func(i *Installer) {
		i.brewopts = append(i.brewopts, opts...)
	}
}

// WithVerifier replaces the check run against the installed binary, [Verify] by default.
func WithVerifier(verify Verifier) Option {
	return func(i *Installer) {
		i.verify = verify
	}
}

// New constructs an installer for platform, resolving versions through index and
// publishing results through reporter.
func New(platform binary.Platform, index Index, reporter Reporter, opts ...Option) *Installer {
	i := Installer{
		platform:    platform,
		index:       index,
		reporter:    reporter,
		resolver:    version.NewResolver(index),
		verify:      Verify,
		archivehost: ArchiveHost,
	}

	for _, opt := range opts {
		opt(&i)
	}

	return &i
}

type step struct {
	stage Stage
	run   func(ctx context.Context, token string, result *Result) error
}

// Execute resolves token, installs the matching geth and reports the installed version.
// On failure the returned result carries the Failed stage and the error is a [*StageError];
// no outputs are published in that case.
func (i *Installer) Execute(ctx context.Context, token string) (Result, error) {
	start := time.Now()
	result := Result{Platform: i.platform, Stage: Start}

	fmt.Printf("\n")

	steps := []step{
		{stage: Resolving, run: i.resolve},
		{stage: Installing, run: i.install},
		{stage: Verifying, run: i.verifyAndReport},
	}

	for _, s := range steps {
		result.Stage = s.stage
		if err := i.timed(ctx, s, token, &result); err != nil {
			result.Stage = Failed

			elapsed := time.Since(start).Round(time.Millisecond)
			color.Red(" ✘ failed while %s after %s\n\n", s.stage, elapsed)

			return result, &StageError{
				Stage: s.stage,
				Kind:  classify(s.stage, err),
				Err:   err,
			}
		}
	}

	result.Stage = Done

	elapsed := time.Since(start).Round(time.Millisecond)
	color.New(color.FgHiBlack).Printf("------------------------\n\n")
	color.Green(" ✔ geth %s installed after %s\n\n", result.Installed, elapsed)

	return result, nil
}

func (i *Installer) timed(ctx context.Context, s step, token string, result *Result) (err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			color.Red(" ✘ %s\n\n", elapsed)
			return
		}
		color.Green(" ✔ %s\n\n", elapsed)
	}()

	return s.run(ctx, token, result)
}

func (i *Installer) resolve(ctx context.Context, token string, result *Result) error {
	LogStep(fmt.Sprintf("resolving geth version %q", token))

	desc, err := i.resolver.Resolve(ctx, token)
	if err != nil {
		return err
	}

	result.Requested = desc
	logdetail(fmt.Sprintf("resolved %s", desc))
	return nil
}

func (i *Installer) install(ctx context.Context, _ string, result *Result) error {
	LogStep(fmt.Sprintf("installing geth %s on %s", result.Requested.Version, i.platform))

	bin, err := i.plan(ctx, &result.Requested)
	if err != nil {
		return err
	}
	logdetail(fmt.Sprintf("artifact %s", result.Requested.Artifact))

	if err := bin.Install(ctx); err != nil {
		return err
	}
	result.BinPath = bin.BinPath()
	logdetail(fmt.Sprintf("%s for %s installed at %s", bin.Name(), bin.Platform(), result.BinPath))

	if !i.platform.PackageManaged() {
		if err := i.reporter.AddPath(bin.Directory()); err != nil {
			return fmt.Errorf("%w: failed to add %s to PATH: %s", binary.ErrInstall, bin.Directory(), err)
		}
		logdetail(fmt.Sprintf("added %s to PATH", bin.Directory()))
	}

	return nil
}

func (i *Installer) verifyAndReport(ctx context.Context, _ string, result *Result) error {
	LogStep(fmt.Sprintf("verifying %s", result.BinPath))

	installed, err := i.verify(ctx, result.BinPath)
	if err != nil {
		return err
	}
	if !version.Valid(installed) {
		return fmt.Errorf("%w: unparsable version %q", ErrVerification, installed)
	}

	result.Installed = installed
	result.Mismatch = installed != result.Requested.Version

	if result.Mismatch {
		i.reporter.Warning(fmt.Sprintf(
			"requested geth %s but %s installed %s",
			result.Requested.Version, result.Requested.Artifact, installed,
		))
	}

	err = i.reporter.SetOutputs(
		actions.Output{Name: "version", Value: result.Installed},
		actions.Output{Name: "requested-version", Value: result.Requested.Version},
		actions.Output{Name: "version-mismatch", Value: strconv.FormatBool(result.Mismatch)},
		actions.Output{Name: "path", Value: result.BinPath},
	)
	if err != nil {
		return fmt.Errorf("failed to publish outputs: %w", err)
	}

	logdetail(fmt.Sprintf("geth reports version %s", installed))
	return nil
}

func logdetail(text string) {
	fmt.Println(
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}
