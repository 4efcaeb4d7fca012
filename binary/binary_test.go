package binary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrigin is a testify mock implementation of Origin interface
type MockOrigin struct {
	mock.Mock
}

func (m *MockOrigin) Install(ctx context.Context, template Template) (string, error) {
	args := m.Called(ctx, template)
	return args.String(0), args.Error(1)
}

func TestNew(t *testing.T) {
	mockOrig := &MockOrigin{}

	binary, err := New("geth", "1.13.5", Linux, mockOrig, WithDirectory("/opt/geth"))

	require.NoError(t, err)
	assert.Equal(t, "geth", binary.Name())
	assert.Equal(t, Linux, binary.Platform())
	assert.Equal(t, "/opt/geth", binary.Directory())
	assert.Equal(t, filepath.Join("/opt/geth", "geth"), binary.BinPath())

	// Check template is properly initialized
	template := binary.Template()
	assert.Equal(t, "linux", template.GOOS)
	assert.Equal(t, "amd64", template.GOARCH)
	assert.Equal(t, "geth", template.Name)
	assert.Equal(t, "1.13.5", template.Version)
	assert.Equal(t, "", template.Extension)
	assert.Equal(t, ".tar.gz", template.ArchiveExtension)
}

func TestNew_Windows(t *testing.T) {
	binary, err := New("geth", "1.13.5", Windows, &MockOrigin{}, WithDirectory(`C:\geth`))

	require.NoError(t, err)
	assert.Equal(t, ".exe", binary.Template().Extension)
	assert.Equal(t, ".zip", binary.Template().ArchiveExtension)
	assert.Contains(t, binary.BinPath(), "geth.exe")
}

func TestNew_DefaultDirectory(t *testing.T) {
	t.Setenv("HOME", "/home/runner")
	t.Setenv("USERPROFILE", "/home/runner")

	binary, err := New("geth", "1.13.5", Linux, &MockOrigin{})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/runner", ".geth", "bin"), binary.Directory())
}

func TestNew_RelativeDirectory(t *testing.T) {
	tmpdir := t.TempDir()
	chdir(t, tmpdir)

	binary, err := New("geth", "1.13.5", Linux, &MockOrigin{}, WithDirectory("relbin"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpdir, "relbin"), binary.Directory())
	assert.Equal(t, filepath.Join(tmpdir, "relbin", "geth"), binary.BinPath())
}

func TestNew_PackageManaged(t *testing.T) {
	binary, err := New("geth", "1.13.5", MacOS, &MockOrigin{}, WithDirectory("/ignored"))

	require.NoError(t, err)
	assert.Equal(t, "", binary.Directory())
	assert.Equal(t, "darwin", binary.Template().GOOS)
	assert.Equal(t, "geth", binary.BinPath())
}

func TestNew_Errors(t *testing.T) {
	_, err := New("geth", "", Linux, &MockOrigin{})
	assert.ErrorContains(t, err, "version must be set")

	_, err = New("geth", "1.13.5", Linux, nil)
	assert.ErrorContains(t, err, "origin must be set")
}

func TestWithCommit(t *testing.T) {
	binary, err := New("geth", "1.13.5", Linux, &MockOrigin{},
		WithDirectory("/tmp"),
		WithCommit("916d6a441a866cb618ae826c220866de118899f7"),
	)
	require.NoError(t, err)
	assert.Equal(t, "916d6a44", binary.Template().Commit)

	binary, err = New("geth", "1.13.5", Linux, &MockOrigin{}, WithDirectory("/tmp"), WithCommit("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", binary.Template().Commit)
}

func TestBinary_Install(t *testing.T) {
	t.Run("uses path reported by origin", func(t *testing.T) {
		mockOrig := &MockOrigin{}
		mockOrig.On("Install", mock.Anything, mock.AnythingOfType("Template")).Return("/opt/homebrew/opt/ethereum/bin/geth", nil)

		binary, err := New("geth", "1.13.5", MacOS, mockOrig)
		require.NoError(t, err)

		require.NoError(t, binary.Install(context.Background()))
		assert.Equal(t, "/opt/homebrew/opt/ethereum/bin/geth", binary.BinPath())
		mockOrig.AssertExpectations(t)
	})

	t.Run("propagates origin errors", func(t *testing.T) {
		mockOrig := &MockOrigin{}
		mockOrig.On("Install", mock.Anything, mock.AnythingOfType("Template")).Return("", ErrFetch)

		binary, err := New("geth", "1.13.5", Linux, mockOrig, WithDirectory("/tmp/geth"))
		require.NoError(t, err)

		err = binary.Install(context.Background())
		assert.True(t, errors.Is(err, ErrFetch))
		assert.Equal(t, filepath.Join("/tmp/geth", "geth"), binary.BinPath())
	})
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
