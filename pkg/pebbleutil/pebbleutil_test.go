package pebbleutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/cockroachdb/pebble/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	t.Parallel()

	dbDir := filepath.Join(t.TempDir(), "session.db")
	db, err := Open(dbDir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Set([]byte("auth_token"), []byte("abc"), pebble.Sync))
	require.NoError(t, db.Flush())

	var files int
	err = filepath.Walk(dbDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			assert.Equal(t, os.FileMode(0o700), info.Mode().Perm(), path)
			return nil
		}
		if filepath.Base(path) == "LOCK" {
			return nil
		}
		files++
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), path)
		return nil
	})
	require.NoError(t, err)
	assert.NotZero(t, files)
}

func TestOpenMemory(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Set([]byte("k"), []byte("v"), pebble.Sync))
	v, closer, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))
	require.NoError(t, closer.Close())
}
