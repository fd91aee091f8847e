package domain

import "time"

// Branch is a local branch and the commit it points at.
type Branch struct {
	Name   string
	Hash   string
	IsHead bool
}

// RepositoryInfo describes an opened repository.
type RepositoryInfo struct {
	Root     string
	Name     string
	Branch   string
	Head     string
	Detached bool
	Branches []Branch
}

// RecentRepository is a repository the user opened before.
type RecentRepository struct {
	Path       string
	Name       string
	OpenCount  int
	LastOpened time.Time
}
