package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// The StorageBackend selects where the session is persisted.
type StorageBackend string

// StorageBackends
const (
	StorageBackendFile   StorageBackend = "file"
	StorageBackendPebble StorageBackend = "pebble"
	StorageBackendMemory StorageBackend = "memory"
)

// ParseStorageBackend parses the storage backend.
func ParseStorageBackend(raw string) (StorageBackend, error) {
	switch StorageBackend(strings.TrimSpace(strings.ToLower(raw))) {
	case StorageBackendFile:
		return StorageBackendFile, nil
	case StorageBackendPebble:
		return StorageBackendPebble, nil
	case StorageBackendMemory:
		return StorageBackendMemory, nil
	}
	return "", fmt.Errorf("invalid storage backend: %s", raw)
}

// defaultFileName returns the name of the storage file inside the data directory.
func (b StorageBackend) defaultFileName() string {
	switch b {
	case StorageBackendPebble:
		return "session.db"
	case StorageBackendFile:
		return "session.json"
	}
	return ""
}

func decodeStorageBackendHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(StorageBackend("")) || f.Kind() != reflect.String {
			return data, nil
		}
		return ParseStorageBackend(data.(string))
	}
}
