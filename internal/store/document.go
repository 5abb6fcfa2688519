package store

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/core"
)

// Document is the whole persisted history: snapshots in creation order,
// an id index over them and the active pointer.
type Document struct {
	snapshots []*core.Snapshot
	index     map[string]*core.Snapshot
	activeID  string
}

// NewDocument starts a history from its root snapshot.
func NewDocument(root *core.Snapshot) (*Document, error) {
	if root == nil || root.ID != core.RootID || root.Parent != "" {
		return nil, goerr.New("invalid root snapshot")
	}
	d := &Document{index: map[string]*core.Snapshot{}}
	d.snapshots = append(d.snapshots, root)
	d.index[root.ID] = root
	d.activeID = root.ID
	return d, nil
}

func (d *Document) Len() int { return len(d.snapshots) }

// Snapshots returns the snapshots in creation order.
func (d *Document) Snapshots() []*core.Snapshot {
	return append([]*core.Snapshot(nil), d.snapshots...)
}

func (d *Document) ActiveID() string { return d.activeID }

func (d *Document) Active() *core.Snapshot { return d.index[d.activeID] }

func (d *Document) Get(id string) (*core.Snapshot, error) {
	s, ok := d.index[id]
	if !ok {
		return nil, goerr.Wrap(core.ErrNotFound, "unknown snapshot", goerr.V("id", id))
	}
	return s, nil
}

func (d *Document) Has(id string) bool {
	_, ok := d.index[id]
	return ok
}

// Append adds a snapshot whose parent already exists.
func (d *Document) Append(s *core.Snapshot) error {
	switch {
	case s == nil || s.ID == "":
		return goerr.New("snapshot id is empty")
	case s.ID == core.RootID:
		return goerr.New("root snapshot already exists")
	case d.Has(s.ID):
		return goerr.New("duplicate snapshot id", goerr.V("id", s.ID))
	case !d.Has(s.Parent):
		return goerr.Wrap(core.ErrNotFound, "unknown parent", goerr.V("id", s.ID), goerr.V("parent", s.Parent))
	}
	d.snapshots = append(d.snapshots, s)
	d.index[s.ID] = s
	return nil
}

func (d *Document) SetActive(id string) error {
	if !d.Has(id) {
		return goerr.Wrap(core.ErrNotFound, "unknown snapshot", goerr.V("id", id))
	}
	d.activeID = id
	return nil
}

// Ancestors returns the chain from id up to and including the root.
func (d *Document) Ancestors(id string) ([]*core.Snapshot, error) {
	var out []*core.Snapshot
	seen := map[string]bool{}
	for cur := id; cur != ""; {
		if seen[cur] {
			return nil, goerr.Wrap(core.ErrCorrupt, "parent cycle", goerr.V("id", cur))
		}
		seen[cur] = true
		s, err := d.Get(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		cur = s.Parent
	}
	return out, nil
}

// Children returns the direct children of id in creation order.
func (d *Document) Children(id string) []*core.Snapshot {
	var out []*core.Snapshot
	for _, s := range d.snapshots {
		if s.Parent == id && s.ID != core.RootID {
			out = append(out, s)
		}
	}
	return out
}

// Resolve finds a snapshot by full id or by a unique id prefix.
func (d *Document) Resolve(ref string) (*core.Snapshot, error) {
	if s, ok := d.index[ref]; ok {
		return s, nil
	}
	if ref == "" {
		return nil, goerr.Wrap(core.ErrNotFound, "empty snapshot reference")
	}
	var match *core.Snapshot
	for _, s := range d.snapshots {
		if len(s.ID) > len(ref) && s.ID[:len(ref)] == ref {
			if match != nil {
				return nil, goerr.Wrap(core.ErrNotFound, "ambiguous snapshot prefix", goerr.V("prefix", ref))
			}
			match = s
		}
	}
	if match == nil {
		return nil, goerr.Wrap(core.ErrNotFound, "unknown snapshot", goerr.V("id", ref))
	}
	return match, nil
}

type snapshotRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Legacy    *int64       `json:"ts,omitempty"`
	Parent    *string      `json:"parent"`
	Tag       string       `json:"tag,omitempty"`
	Files     core.Fileset `json:"files"`
}

type documentRecord struct {
	Snapshots []snapshotRecord `json:"snapshots"`
	Config    struct {
		ActiveID string `json:"activeId"`
	} `json:"config"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var rec documentRecord
	rec.Snapshots = make([]snapshotRecord, 0, len(d.snapshots))
	for _, s := range d.snapshots {
		r := snapshotRecord{
			ID:        s.ID,
			Timestamp: s.Timestamp,
			Tag:       s.Tag,
			Files:     s.Files,
		}
		if r.Files == nil {
			r.Files = core.Fileset{}
		}
		if s.Parent != "" {
			parent := s.Parent
			r.Parent = &parent
		}
		rec.Snapshots = append(rec.Snapshots, r)
	}
	rec.Config.ActiveID = d.activeID
	return json.Marshal(rec)
}

// UnmarshalJSON decodes and validates a stored history. Any violation of the
// history rules is reported as core.ErrCorrupt.
func (d *Document) UnmarshalJSON(data []byte) error {
	var rec documentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return goerr.Wrap(core.ErrCorrupt, "malformed store document", goerr.V("cause", err.Error()))
	}
	if len(rec.Snapshots) == 0 {
		return goerr.Wrap(core.ErrCorrupt, "store has no snapshots")
	}

	out := &Document{index: map[string]*core.Snapshot{}}
	for i, r := range rec.Snapshots {
		s := &core.Snapshot{ID: r.ID, Timestamp: r.Timestamp, Tag: r.Tag}
		if r.Parent != nil {
			s.Parent = *r.Parent
		}
		if s.Timestamp.IsZero() && r.Legacy != nil {
			s.Timestamp = time.UnixMilli(*r.Legacy)
		}
		files, err := r.Files.Normalize()
		if err != nil {
			return goerr.Wrap(core.ErrCorrupt, "invalid file set", goerr.V("id", r.ID), goerr.V("cause", err.Error()))
		}
		s.Files = files

		if i == 0 {
			if s.ID != core.RootID || r.Parent != nil {
				return goerr.Wrap(core.ErrCorrupt, "first snapshot must be the root", goerr.V("id", s.ID))
			}
			out.snapshots = append(out.snapshots, s)
			out.index[s.ID] = s
			continue
		}
		if r.Parent == nil {
			return goerr.Wrap(core.ErrCorrupt, "snapshot without parent", goerr.V("id", s.ID))
		}
		if err := out.Append(s); err != nil {
			return goerr.Wrap(core.ErrCorrupt, "invalid snapshot", goerr.V("id", s.ID), goerr.V("cause", err.Error()))
		}
	}

	if !out.Has(rec.Config.ActiveID) {
		return goerr.Wrap(core.ErrCorrupt, "active snapshot does not exist", goerr.V("activeId", rec.Config.ActiveID))
	}
	out.activeID = rec.Config.ActiveID

	*d = *out
	return nil
}
