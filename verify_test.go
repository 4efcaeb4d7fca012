package setupgeth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gethversion = `Geth
Version: 1.13.5-stable
Git Commit: 916d6a441a866cb618ae826c220866de118899f7
Architecture: amd64
Go Version: go1.21.4
Operating System: linux
`

func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
		fail   bool
	}{
		{name: "stable release", output: gethversion, want: "1.13.5"},
		{name: "unstable build", output: "Geth\nVersion: 1.14.0-unstable\n", want: "1.14.0-unstable"},
		{name: "release candidate", output: "Version: 1.14.0-rc.1\n", want: "1.14.0-rc.1"},
		{name: "leading v", output: "Version: v1.13.5-stable\n", want: "1.13.5"},
		{name: "crlf line endings", output: "Geth\r\nVersion: 1.13.5-stable\r\n", want: "1.13.5"},
		{name: "no version line", output: "Geth\nGit Commit: 916d6a44\n", fail: true},
		{name: "empty output", output: "", fail: true},
		{name: "garbage version", output: "Version: unknown\n", fail: true},
	}

	for _, test := range tests {
		t.Run(test.name,
			func(t *testing.T) {
				got, err := ParseVersionOutput(test.output)
				if test.fail {
					assert.ErrorIs(t, err, ErrVerification)
					return
				}

				require.NoError(t, err)
				assert.Equal(t, test.want, got)
			},
		)
	}
}

func TestVerify(t *testing.T) {
	geth := filepath.Join(t.TempDir(), "geth")
	script(t, geth, `
if [ "$1" != "version" ]; then
	exit 2
fi
cat <<EOF
`+gethversion+`EOF
`)

	installed, err := Verify(context.Background(), geth)
	require.NoError(t, err)
	assert.Equal(t, "1.13.5", installed)
}

func TestVerify_Failure(t *testing.T) {
	geth := filepath.Join(t.TempDir(), "geth")
	script(t, geth, "echo 'fatal: broken install' >&2\nexit 1\n")

	_, err := Verify(context.Background(), geth)
	assert.ErrorIs(t, err, ErrVerification)
	assert.ErrorContains(t, err, "broken install")
}

func TestVerify_MissingBinary(t *testing.T) {
	_, err := Verify(context.Background(), filepath.Join(t.TempDir(), "geth"))
	assert.ErrorIs(t, err, ErrVerification)
}
