package setupgeth

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func script(t *testing.T, path, content string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+content), 0o755))
}

func TestCmd_RelativePath(t *testing.T) {
	tmpdir := t.TempDir()
	script(t, filepath.Join(tmpdir, "bin", "test-script"), "echo success\n")

	chdir(t, tmpdir)

	runner, err := Cmd(context.Background(), "bin/test-script")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpdir, "bin", "test-script"), runner.Executable)
	assert.Equal(t, filepath.Join(tmpdir, "bin", "test-script"), runner.cmd.Path)
	assert.Empty(t, runner.cmd.Dir)
}

func TestCmd_AbsolutePath(t *testing.T) {
	tmpdir := t.TempDir()
	executable := filepath.Join(tmpdir, "geth")
	script(t, executable, "exit 0\n")

	runner, err := Cmd(context.Background(), executable, WithArgs("version"))
	require.NoError(t, err)

	assert.Equal(t, executable, runner.Executable)
	assert.Equal(t, []string{executable, "version"}, runner.cmd.Args)
}

func TestCmd_LookPath(t *testing.T) {
	tmpdir := t.TempDir()
	script(t, filepath.Join(tmpdir, "fakegeth"), "exit 0\n")
	t.Setenv("PATH", tmpdir)

	runner, err := Cmd(context.Background(), "fakegeth")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpdir, "fakegeth"), runner.Executable)
	assert.Empty(t, runner.cmd.Dir)
}

func TestCmd_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := Cmd(context.Background(), "fakegeth")
	assert.ErrorContains(t, err, "fakegeth not found")
}

func TestCmd_InvalidEnv(t *testing.T) {
	tmpdir := t.TempDir()
	executable := filepath.Join(tmpdir, "geth")
	script(t, executable, "exit 0\n")

	_, err := Cmd(context.Background(), executable, WithEnv("NOVALUE"))
	assert.ErrorContains(t, err, "invalid env format")

	_, err = Cmd(context.Background(), executable, WithEnv("=value"))
	assert.ErrorContains(t, err, "invalid env format")
}

func TestRun(t *testing.T) {
	tmpdir := t.TempDir()
	executable := filepath.Join(tmpdir, "bin", "greet")
	script(t, executable, "echo \"$GREETING $1\"\n")

	var stdout bytes.Buffer
	err := Run(
		context.Background(),
		executable,
		WithArgs("world"),
		WithEnv("GREETING=hello"),
		WithoutNoise(),
		WithStdOut(&stdout),
	)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", stdout.String())
}

func TestRun_Failure(t *testing.T) {
	tmpdir := t.TempDir()
	executable := filepath.Join(tmpdir, "failing")
	script(t, executable, "exit 3\n")

	err := Run(context.Background(), executable, WithoutNoise())
	assert.ErrorContains(t, err, "failing: exit status 3")
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
