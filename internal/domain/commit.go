// Package domain contains the core entities of gitlanes: commit records, the
// graph layout they are turned into, working tree status and git operations.
// Nothing in here talks to git or to a terminal.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// CommitRecord is one commit as reported by git log.
type CommitRecord struct {
	Hash      string
	Parents   []string
	Author    string
	Timestamp int64
	Subject   string
}

// Validate rejects records the layout engine cannot accept.
func (c CommitRecord) Validate() error {
	if strings.TrimSpace(c.Hash) == "" {
		return fmt.Errorf("%w: missing hash", ErrMalformedRecord)
	}
	return nil
}

// IsMerge returns true if the commit has more than one parent.
func (c CommitRecord) IsMerge() bool {
	return len(c.Parents) > 1
}

// IsRoot returns true if the commit has no parents.
func (c CommitRecord) IsRoot() bool {
	return len(c.Parents) == 0
}

// FirstParent returns the first parent hash, or "" for a root commit.
func (c CommitRecord) FirstParent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// Time returns the commit timestamp as a time.Time.
func (c CommitRecord) Time() time.Time {
	return time.Unix(c.Timestamp, 0)
}

// ShortHash returns a shortened commit hash.
func ShortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
