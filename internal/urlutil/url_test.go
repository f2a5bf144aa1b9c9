package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAndValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rawurl  string
		wantErr bool
	}{
		{"good", "https://reqres.in/api/login", false},
		{"plain http", "http://127.0.0.1:8080", false},
		{"empty", "", true},
		{"no scheme", "reqres.in/api/login", true},
		{"colon in path", "localhost:8080", true},
		{"no host", "https://", true},
		{"other scheme", "ftp://example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAndValidateURL(tt.rawurl)
			assert.Equal(t, tt.wantErr, err != nil, err)
		})
	}
}
