package graph

import (
	"regexp"
	"strings"

	"github.com/keshon/ckpt/internal/core"
)

// LabelTimeFormat is the node timestamp layout, rendered in local time.
const LabelTimeFormat = "2006-01-02 15:04:05"

const labelIDLen = 6

var unsafeNodeChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// NodeID turns a snapshot id into a Mermaid node identifier.
func NodeID(id string) string {
	return unsafeNodeChars.ReplaceAllString(id, "_")
}

// Label is the visible node text: short id, local time and tag, empty parts dropped.
func Label(s *core.Snapshot) string {
	var parts []string
	if id := core.ShortIDN(s.ID, labelIDLen); id != "" {
		parts = append(parts, id)
	}
	if !s.Timestamp.IsZero() {
		parts = append(parts, s.Timestamp.Local().Format(LabelTimeFormat))
	}
	if s.Tag != "" {
		parts = append(parts, s.Tag)
	}
	return escape(strings.Join(parts, "<br/>"))
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

// Describe renders the snapshot graph as a Mermaid flowchart:
// one node per snapshot, one parent --> child edge per non-root snapshot.
func Describe(snaps []*core.Snapshot) string {
	lines := []string{"graph TD"}
	for _, s := range snaps {
		lines = append(lines, NodeID(s.ID)+`["`+Label(s)+`"]`)
	}
	for _, s := range snaps {
		if s.Parent != "" {
			lines = append(lines, NodeID(s.Parent)+" --> "+NodeID(s.ID))
		}
	}
	return strings.Join(lines, "\n")
}
