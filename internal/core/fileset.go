package core

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/zeebo/xxh3"
)

const encodingBase64 = "base64"

// FileEntry is one captured file: a workspace-relative slash path and its raw content.
type FileEntry struct {
	Path    string
	Content []byte
}

type fileEntryJSON struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding,omitempty"`
}

// MarshalJSON keeps UTF-8 content readable and falls back to base64 for anything else.
func (e FileEntry) MarshalJSON() ([]byte, error) {
	out := fileEntryJSON{Path: e.Path}
	if utf8.Valid(e.Content) {
		out.Content = string(e.Content)
	} else {
		out.Content = base64.StdEncoding.EncodeToString(e.Content)
		out.Encoding = encodingBase64
	}
	return json.Marshal(out)
}

func (e *FileEntry) UnmarshalJSON(data []byte) error {
	var in fileEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.Path = in.Path
	switch in.Encoding {
	case "":
		e.Content = []byte(in.Content)
	case encodingBase64:
		raw, err := base64.StdEncoding.DecodeString(in.Content)
		if err != nil {
			return goerr.Wrap(err, "failed to decode file content", goerr.V("path", in.Path))
		}
		e.Content = raw
	default:
		return goerr.New("unknown content encoding", goerr.V("path", in.Path), goerr.V("encoding", in.Encoding))
	}
	return nil
}

// CleanPath cleans a workspace-relative slash path and rejects anything that
// would escape the workspace. Backslashes are ordinary name characters here;
// OS separators are translated where paths meet the filesystem.
func CleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", goerr.New("invalid workspace path", goerr.V("path", p))
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", goerr.New("invalid workspace path", goerr.V("path", p))
	}
	return clean, nil
}

// Fileset is the complete file set of one snapshot. Its canonical form is sorted by path.
type Fileset []FileEntry

// Normalize cleans every path, sorts by path and rejects duplicates.
func (fs Fileset) Normalize() (Fileset, error) {
	out := make(Fileset, len(fs))
	for i, e := range fs {
		clean, err := CleanPath(e.Path)
		if err != nil {
			return nil, err
		}
		out[i] = FileEntry{Path: clean, Content: e.Content}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	for i := 1; i < len(out); i++ {
		if out[i].Path == out[i-1].Path {
			return nil, goerr.New("duplicate path in file set", goerr.V("path", out[i].Path))
		}
	}
	return out, nil
}

// Map indexes the entries by path.
func (fs Fileset) Map() map[string][]byte {
	m := make(map[string][]byte, len(fs))
	for _, e := range fs {
		m[e.Path] = e.Content
	}
	return m
}

// Paths returns the entry paths in their current order.
func (fs Fileset) Paths() []string {
	out := make([]string, len(fs))
	for i, e := range fs {
		out[i] = e.Path
	}
	return out
}

// Size is the total content size in bytes.
func (fs Fileset) Size() int64 {
	var n int64
	for _, e := range fs {
		n += int64(len(e.Content))
	}
	return n
}

// Digest is a stable fingerprint of the set's content, independent of entry order.
func (fs Fileset) Digest() string {
	sorted := make(Fileset, len(fs))
	copy(sorted, fs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := xxh3.New()
	var sum [8]byte
	for _, e := range sorted {
		h.WriteString(e.Path)
		h.Write([]byte{0})
		binary.BigEndian.PutUint64(sum[:8], uint64(len(e.Content)))
		h.Write(sum[:8])
		h.Write(e.Content)
	}
	return fmt.Sprintf("%x", h.Sum128().Bytes())
}

// Equal reports whether both sets hold the same paths with the same content.
func (fs Fileset) Equal(other Fileset) bool {
	if len(fs) != len(other) {
		return false
	}
	m := other.Map()
	for _, e := range fs {
		c, ok := m[e.Path]
		if !ok || !bytes.Equal(c, e.Content) {
			return false
		}
	}
	return true
}

// Change describes how one path differs between two file sets.
type Change struct {
	Path string
	Kind ChangeKind
}

type ChangeKind string

const (
	Added    ChangeKind = "added"
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
)

// Diff lists the paths that differ going from base to fs, sorted by path.
func (fs Fileset) Diff(base Fileset) []Change {
	old := base.Map()
	cur := fs.Map()

	var changes []Change
	for p, c := range cur {
		prev, ok := old[p]
		switch {
		case !ok:
			changes = append(changes, Change{Path: p, Kind: Added})
		case !bytes.Equal(prev, c):
			changes = append(changes, Change{Path: p, Kind: Modified})
		}
	}
	for p := range old {
		if _, ok := cur[p]; !ok {
			changes = append(changes, Change{Path: p, Kind: Deleted})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}
