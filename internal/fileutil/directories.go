// Package fileutil locates and writes the files teamdash keeps on disk.
package fileutil

import (
	"os"
	"path/filepath"
)

const appName = "teamdash"

// DataDir returns $XDG_DATA_HOME/teamdash, or $HOME/.local/share/teamdash, or /tmp/teamdash/data
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(os.TempDir(), appName, "data")
}
