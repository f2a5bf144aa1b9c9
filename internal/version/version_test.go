package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	origVersion, origMeta, origCommit := Version, BuildMeta, GitCommit
	t.Cleanup(func() { Version, BuildMeta, GitCommit = origVersion, origMeta, origCommit })

	Version, BuildMeta, GitCommit = "v1.2.3", "", ""
	assert.Equal(t, "v1.2.3", FullVersion())

	Version, BuildMeta, GitCommit = "v1.2.3", "rc1", "314501b"
	assert.Equal(t, "v1.2.3-rc1+314501b", FullVersion())
	assert.True(t, strings.HasPrefix(UserAgent(), "teamdash/v1.2.3-rc1+314501b ("), UserAgent())
}
