package domain

// FileEntry is one line of working tree status.
type FileEntry struct {
	Code     string // two-letter porcelain code, e.g. "M ", " D", "R "
	Path     string
	OrigPath string // set for renames and copies
}

// StatusReport splits the working tree into the three lists the UI shows.
type StatusReport struct {
	Staged    []FileEntry
	Unstaged  []FileEntry
	Untracked []FileEntry
}

// IsClean returns true if there is nothing staged, modified or untracked.
func (s *StatusReport) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

// HasStaged returns true if a commit would record anything.
func (s *StatusReport) HasStaged() bool {
	return len(s.Staged) > 0
}

// Paths returns the file paths of a list of entries.
func Paths(entries []FileEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths
}
