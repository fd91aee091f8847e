package domain

import (
	"errors"
	"fmt"
)

// Common domain errors.
var (
	ErrNotGitRepository    = errors.New("not a git repository")
	ErrGitNotFound         = errors.New("git executable not found")
	ErrGitCommand          = errors.New("git command failed")
	ErrMalformedRecord     = errors.New("malformed commit record")
	ErrOperationInProgress = errors.New("git operation already in progress")
	ErrNoRepository        = errors.New("no repository open")
	ErrEmptyCommitMessage  = errors.New("commit message cannot be empty")
	ErrNothingStaged       = errors.New("no files staged")
	ErrRepositoryNotFound  = errors.New("repository not found")
	ErrInvalidGeometry     = errors.New("invalid graph geometry")
)

// OperationInProgressError is returned when an operation is requested while
// another one still runs.
type OperationInProgressError struct {
	Requested OperationKind
	Running   OperationKind
}

func (e *OperationInProgressError) Error() string {
	return fmt.Sprintf("cannot %s: %s is already running", e.Requested.Verb(), e.Running)
}

func (e *OperationInProgressError) Unwrap() error {
	return ErrOperationInProgress
}
