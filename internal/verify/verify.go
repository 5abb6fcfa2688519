package verify

import (
	"context"
	"io"

	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/progress"
	"github.com/keshon/ckpt/internal/store"
)

// Issue is one problem found in a stored history.
type Issue struct {
	Snapshot string
	Message  string
}

// Report summarizes a history check.
type Report struct {
	Snapshots int
	Files     int
	Bytes     int64
	// Duplicates counts snapshots whose content equals their parent's.
	Duplicates int
	Issues     []Issue
}

func (r *Report) OK() bool { return len(r.Issues) == 0 }

// Check walks every snapshot of doc with a progress bar on w (nil for none).
func Check(ctx context.Context, doc *store.Document, w io.Writer) (*Report, error) {
	snaps := doc.Snapshots()
	rep := &Report{Snapshots: len(snaps)}

	bar := progress.NewUnit(w, len(snaps), "Checking snapshots", "snapshots")
	defer bar.Finish()

	for _, s := range snaps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar.Increment()

		rep.Files += len(s.Files)
		rep.Bytes += s.Files.Size()

		chain, err := doc.Ancestors(s.ID)
		if err != nil {
			rep.Issues = append(rep.Issues, Issue{Snapshot: s.ID, Message: "parent chain is broken: " + err.Error()})
			continue
		}
		if len(chain) == 0 || chain[len(chain)-1].ID != core.RootID {
			rep.Issues = append(rep.Issues, Issue{Snapshot: s.ID, Message: "parent chain does not reach the root"})
		}

		if target, ok := core.SafetyTarget(s.Tag); ok && !doc.Has(target) {
			rep.Issues = append(rep.Issues, Issue{Snapshot: s.ID, Message: "safety snapshot refers to unknown target " + target})
		}

		if s.IsRoot() {
			continue
		}
		if parent, err := doc.Get(s.Parent); err == nil && parent.Files.Digest() == s.Files.Digest() {
			rep.Duplicates++
		}
	}
	return rep, nil
}
