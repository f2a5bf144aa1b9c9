package fileutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// WriteFileAtomically replaces the file at filePath with data. Readers see
// either the old or the new contents, never a partial write. Missing parent
// directories are created with 0700.
func WriteFileAtomically(filePath string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return fmt.Errorf("fileutil: failed to create directory: %w", err)
	}
	if err := atomic.WriteFile(filePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("fileutil: failed to write %s: %w", filePath, err)
	}
	return os.Chmod(filePath, mode)
}
