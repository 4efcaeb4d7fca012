// Package actions talks to the GitHub Actions runner through the files and
// workflow commands it exposes: step outputs, PATH additions and annotations.
//
// Outside of GitHub Actions the same calls degrade to plain console output, so
// the installer can be run locally.
package actions

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Runner writes to the environment files of the current job step.
type Runner struct {
	outputfile string
	pathfile   string
	annotate   bool
	stdout     io.Writer
}

type Option func(r *Runner)

// WithOutputFile sets the file step outputs are appended to.
func WithOutputFile(path string) Option {
	return func(r *Runner) {
		r.outputfile = path
	}
}

// WithPathFile sets the file PATH additions are appended to.
func WithPathFile(path string) Option {
	return func(r *Runner) {
		r.pathfile = path
	}
}

// WithAnnotations controls if warnings and errors are emitted as workflow commands.
func WithAnnotations(enabled bool) Option {
	return func(r *Runner) {
		r.annotate = enabled
	}
}

// WithStdOut sets where workflow commands and fallback outputs are written.
func WithStdOut(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// New constructs a runner that, without options, only prints to stdout.
func New(opts ...Option) *Runner {
	r := Runner{
		stdout: os.Stdout,
	}

	for _, opt := range opts {
		opt(&r)
	}

	return &r
}

// FromEnv constructs a runner configured from the variables GitHub Actions sets
// for every step.
func FromEnv() *Runner {
	return New(
		WithOutputFile(os.Getenv("GITHUB_OUTPUT")),
		WithPathFile(os.Getenv("GITHUB_PATH")),
		WithAnnotations(IsActions()),
	)
}

// IsCIEnv returns true if the current environment is a known ci system.
func IsCIEnv() bool {
	return os.Getenv("CI") != ""
}

// IsActions returns true when running inside a GitHub Actions job.
func IsActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// Output is a single step output.
type Output struct {
	Name  string
	Value string
}

// SetOutput publishes a step output.
// Without an output file the pair is printed as name=value.
func (r *Runner) SetOutput(name, value string) error {
	return r.SetOutputs(Output{Name: name, Value: value})
}

// SetOutputs publishes a batch of step outputs with a single write, so either
// all of them land in the output file or none do.
func (r *Runner) SetOutputs(outputs ...Output) error {
	if len(outputs) == 0 {
		return nil
	}

	var batch strings.Builder
	for _, output := range outputs {
		if r.outputfile == "" || !strings.ContainsAny(output.Value, "\r\n") {
			fmt.Fprintf(&batch, "%s=%s\n", output.Name, output.Value)
			continue
		}

		delimiter := fmt.Sprintf("ghadelimiter_%d", os.Getpid())
		fmt.Fprintf(&batch, "%s<<%s\n%s\n%s\n", output.Name, delimiter, output.Value, delimiter)
	}

	if r.outputfile == "" {
		_, err := io.WriteString(r.stdout, batch.String())
		return err
	}

	return appendfile(r.outputfile, batch.String())
}

// AddPath prepends dir to PATH for the remainder of this process and, through
// the path file, for every following step of the job.
func (r *Runner) AddPath(dir string) error {
	current := os.Getenv("PATH")
	if current == "" {
		os.Setenv("PATH", dir)
	} else {
		os.Setenv("PATH", dir+string(os.PathListSeparator)+current)
	}

	if r.pathfile == "" {
		return nil
	}

	return appendfile(r.pathfile, dir+"\n")
}

// Warning reports a non-fatal problem.
func (r *Runner) Warning(msg string) {
	if r.annotate {
		fmt.Fprintf(r.stdout, "::warning::%s\n", escape(msg))
		return
	}
	fmt.Fprintln(r.stdout, color.YellowString(" ! %s", msg))
}

// Error reports a fatal problem.
func (r *Runner) Error(msg string) {
	if r.annotate {
		fmt.Fprintf(r.stdout, "::error::%s\n", escape(msg))
		return
	}
	fmt.Fprintln(r.stdout, color.RedString(" ✘ %s", msg))
}

func appendfile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", path, err)
	}

	return nil
}

// escape encodes workflow command data so newlines don't end the command early.
func escape(msg string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(msg)
}
