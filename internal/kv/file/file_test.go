package file_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomerium/teamdash/internal/kv"
	"github.com/pomerium/teamdash/internal/kv/file"
	"github.com/pomerium/teamdash/internal/kv/kvtest"
)

func TestStore(t *testing.T) {
	t.Parallel()

	kvtest.Run(t, func(t *testing.T) kv.Store {
		return file.New(filepath.Join(t.TempDir(), "session.json"))
	})
}

func TestSharedDocument(t *testing.T) {
	t.Parallel()

	fp := filepath.Join(t.TempDir(), "data", "session.json")
	a, b := file.New(fp), file.New(fp)
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })

	require.NoError(t, a.Apply(t.Context(), kv.NewBatch().Set("auth_token", []byte("abc"))))
	got, err := b.Get(t.Context(), "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got["auth_token"]))

	require.NoError(t, b.Apply(t.Context(), kv.NewBatch().Delete("auth_token")))
	got, err = a.Get(t.Context(), "auth_token")
	require.NoError(t, err)
	assert.Empty(t, got)

	bs, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(bs))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(fp)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}

func TestUnreadableDocument(t *testing.T) {
	t.Parallel()

	fp := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(fp, []byte("{not json"), 0o600))

	s := file.New(fp)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Get(t.Context(), "auth_token")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("auth_token", []byte("abc"))))
	bs, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth_token":"abc"}`, string(bs))
}
