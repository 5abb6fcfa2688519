package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// RootID is reserved for the single root snapshot.
	RootID = "$"
	// RootTag labels the root snapshot.
	RootTag = "root"

	safetyPrefix = "REV:"
	shortLen     = 8
)

// Snapshot is an immutable, complete capture of the workspace.
type Snapshot struct {
	ID        string
	Timestamp time.Time
	Parent    string
	Tag       string
	Files     Fileset
}

// IsRoot reports whether s is the root snapshot.
func (s *Snapshot) IsRoot() bool {
	return s.ID == RootID
}

// NewID returns a fresh random snapshot id.
func NewID() string {
	return uuid.New().String()
}

// ShortID returns the display form of an id.
func ShortID(id string) string {
	return ShortIDN(id, shortLen)
}

// ShortIDN truncates id to n characters; the root id is returned as is.
func ShortIDN(id string, n int) string {
	if id == RootID || len(id) <= n {
		return id
	}
	return id[:n]
}

// SafetyTag is the tag of the automatic snapshot taken before reverting to target.
func SafetyTag(target string) string {
	return safetyPrefix + target
}

// IsSafetyTag reports whether tag was produced by SafetyTag.
func IsSafetyTag(tag string) bool {
	return strings.HasPrefix(tag, safetyPrefix)
}

// SafetyTarget extracts the revert target from a safety tag.
func SafetyTarget(tag string) (string, bool) {
	if !IsSafetyTag(tag) {
		return "", false
	}
	return strings.TrimPrefix(tag, safetyPrefix), true
}
