package core_test

import (
	"testing"

	"github.com/keshon/ckpt/internal/core"
	"github.com/m-mizutani/gt"
)

func TestNewIDIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := core.NewID()
		gt.False(t, seen[id])
		gt.NotEqual(t, id, core.RootID)
		seen[id] = true
	}
}

func TestShortID(t *testing.T) {
	gt.Equal(t, core.ShortID(core.RootID), "$")
	gt.Equal(t, core.ShortID("0123456789abcdef"), "01234567")
	gt.Equal(t, core.ShortIDN("0123456789abcdef", 6), "012345")
	gt.Equal(t, core.ShortID("abc"), "abc")
}

func TestSafetyTag(t *testing.T) {
	tag := core.SafetyTag(core.RootID)
	gt.Equal(t, tag, "REV:$")
	gt.True(t, core.IsSafetyTag(tag))

	target, ok := core.SafetyTarget(tag)
	gt.True(t, ok)
	gt.Equal(t, target, core.RootID)

	_, ok = core.SafetyTarget("v1")
	gt.False(t, ok)
}

func TestSnapshotIsRoot(t *testing.T) {
	gt.True(t, (&core.Snapshot{ID: core.RootID}).IsRoot())
	gt.False(t, (&core.Snapshot{ID: core.NewID(), Parent: core.RootID}).IsRoot())
}
