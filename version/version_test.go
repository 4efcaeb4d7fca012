package version

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIndex is a testify mock implementation of the Index interface
type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) LatestTag(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		token    string
		expected string
		wantErr  bool
	}{
		{token: "1.13.5", expected: "1.13.5"},
		{token: "v1.13.5", expected: "1.13.5"},
		{token: "1.14.0-rc.1", expected: "1.14.0-rc.1"},
		{token: "v1.10.26-unstable", expected: "1.10.26-unstable"},
		{token: "10.200.3000", expected: "10.200.3000"},
		{token: "", wantErr: true},
		{token: "foo", wantErr: true},
		{token: "1.13", wantErr: true},
		{token: "v", wantErr: true},
		{token: "vv1.13.5", wantErr: true},
		{token: "1.13.5-", wantErr: true},
		{token: "1.13.5+build", wantErr: true},
		{token: " 1.13.5", wantErr: true},
		{token: "latest", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.token,
			func(t *testing.T) {
				result, err := Normalize(test.token)

				if test.wantErr {
					assert.ErrorIs(t, err, ErrInvalidVersion)
					return
				}

				require.NoError(t, err)
				assert.Equal(t, test.expected, result)

				// normalizing twice yields the same string
				again, err := Normalize(result)
				require.NoError(t, err)
				assert.Equal(t, result, again)
			},
		)
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("explicit version", func(t *testing.T) {
		index := &MockIndex{}
		desc, err := NewResolver(index).Resolve(context.Background(), "1.13.5")

		require.NoError(t, err)
		assert.Equal(t, "1.13.5", desc.Version)
		assert.Equal(t, "1.13.5", desc.Raw)
		assert.Equal(t, "v1.13.5", desc.Tag())
		index.AssertNotCalled(t, "LatestTag", mock.Anything)
	})

	t.Run("strips leading v", func(t *testing.T) {
		index := &MockIndex{}
		desc, err := NewResolver(index).Resolve(context.Background(), "v1.13.5")

		require.NoError(t, err)
		assert.Equal(t, "1.13.5", desc.Version)
		assert.Equal(t, "v1.13.5", desc.Raw)
		index.AssertNotCalled(t, "LatestTag", mock.Anything)
	})

	t.Run("latest queries the index", func(t *testing.T) {
		index := &MockIndex{}
		index.On("LatestTag", mock.Anything).Return("v1.14.0", nil)

		desc, err := NewResolver(index).Resolve(context.Background(), "latest")

		require.NoError(t, err)
		assert.Equal(t, "1.14.0", desc.Version)
		assert.Equal(t, "latest", desc.Raw)
		assert.True(t, Valid(desc.Version))
		index.AssertExpectations(t)
	})

	t.Run("latest is case sensitive", func(t *testing.T) {
		index := &MockIndex{}
		_, err := NewResolver(index).Resolve(context.Background(), "Latest")

		assert.ErrorIs(t, err, ErrInvalidVersion)
		index.AssertNotCalled(t, "LatestTag", mock.Anything)
	})

	t.Run("invalid tokens never reach the index", func(t *testing.T) {
		for _, token := range []string{"foo", "", "1.13"} {
			index := &MockIndex{}
			_, err := NewResolver(index).Resolve(context.Background(), token)

			assert.ErrorIs(t, err, ErrInvalidVersion, token)
			index.AssertNotCalled(t, "LatestTag", mock.Anything)
		}
	})

	t.Run("index failure is propagated", func(t *testing.T) {
		boom := errors.New("boom")
		index := &MockIndex{}
		index.On("LatestTag", mock.Anything).Return("", boom)

		_, err := NewResolver(index).Resolve(context.Background(), "latest")

		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("index returning garbage is an invalid version", func(t *testing.T) {
		index := &MockIndex{}
		index.On("LatestTag", mock.Anything).Return("nightly", nil)

		_, err := NewResolver(index).Resolve(context.Background(), "latest")

		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("latest without index", func(t *testing.T) {
		_, err := NewResolver(nil).Resolve(context.Background(), "latest")
		assert.Error(t, err)
	})
}

func TestDescriptor_String(t *testing.T) {
	assert.Equal(t, "1.13.5", Descriptor{Raw: "1.13.5", Version: "1.13.5"}.String())
	assert.Equal(t, "1.14.0 (latest)", Descriptor{Raw: "latest", Version: "1.14.0"}.String())
}
