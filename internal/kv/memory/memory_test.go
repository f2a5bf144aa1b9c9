package memory_test

import (
	"testing"

	"github.com/pomerium/teamdash/internal/kv"
	"github.com/pomerium/teamdash/internal/kv/kvtest"
	"github.com/pomerium/teamdash/internal/kv/memory"
)

func TestStore(t *testing.T) {
	t.Parallel()

	kvtest.Run(t, func(*testing.T) kv.Store { return memory.New() })
}
