package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OperationKind names a git operation the application can run.
type OperationKind string

const (
	OpStatus  OperationKind = "Status"
	OpHistory OperationKind = "History"
	OpStage   OperationKind = "Stage"
	OpUnstage OperationKind = "Unstage"
	OpDiscard OperationKind = "Discard"
	OpClean   OperationKind = "Clean"
	OpCommit  OperationKind = "Commit"
	OpShow    OperationKind = "Show"
	OpDiff    OperationKind = "Diff"
)

// FollowUp lists the refreshes an operation asks for once it succeeds.
type FollowUp struct {
	RefreshStatus  bool
	RefreshHistory bool
}

// Any returns true if at least one refresh is requested.
func (f FollowUp) Any() bool {
	return f.RefreshStatus || f.RefreshHistory
}

// FollowUpFor returns the refreshes that follow a successful operation.
// The initial load of a repository chains history after status.
func FollowUpFor(kind OperationKind, initialLoad bool) FollowUp {
	switch kind {
	case OpCommit:
		return FollowUp{RefreshStatus: true, RefreshHistory: true}
	case OpStage, OpUnstage, OpDiscard, OpClean:
		return FollowUp{RefreshStatus: true}
	case OpStatus:
		return FollowUp{RefreshHistory: initialLoad}
	default:
		return FollowUp{}
	}
}

// Verb describes the operation for messages, e.g. "cannot stage files".
func (k OperationKind) Verb() string {
	switch k {
	case OpStatus:
		return "refresh status"
	case OpHistory:
		return "refresh history"
	case OpStage:
		return "stage files"
	case OpUnstage:
		return "unstage files"
	case OpDiscard:
		return "discard changes"
	case OpClean:
		return "clean files"
	case OpCommit:
		return "commit"
	case OpShow:
		return "show commit"
	case OpDiff:
		return "show diff"
	}
	return strings.ToLower(string(k))
}

// IsJournaled returns true for operations that change the repository and
// are kept in the operation journal.
func (k OperationKind) IsJournaled() bool {
	switch k {
	case OpStage, OpUnstage, OpDiscard, OpClean, OpCommit:
		return true
	}
	return false
}

// IsDestructive returns true for operations that throw work away.
func (k OperationKind) IsDestructive() bool {
	return k == OpDiscard || k == OpClean
}

// OperationRecord is a journal entry for one git invocation.
type OperationRecord struct {
	ID         string
	Repository string
	Kind       OperationKind
	Args       []string
	Success    bool
	Stderr     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewOperationRecord starts a journal entry for an operation.
func NewOperationRecord(repo string, kind OperationKind, args []string) *OperationRecord {
	return &OperationRecord{
		ID:         uuid.NewString(),
		Repository: repo,
		Kind:       kind,
		Args:       args,
		StartedAt:  time.Now(),
	}
}

// Finish marks the entry as done.
func (o *OperationRecord) Finish(err error) {
	o.FinishedAt = time.Now()
	o.Success = err == nil
	if err != nil {
		o.Stderr = strings.TrimSpace(err.Error())
	}
}

// Duration returns how long the operation ran.
func (o *OperationRecord) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
