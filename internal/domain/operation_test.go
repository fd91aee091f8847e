package domain

import (
	"errors"
	"testing"
)

func TestFollowUpFor(t *testing.T) {
	tests := []struct {
		kind    OperationKind
		initial bool
		want    FollowUp
	}{
		{OpCommit, false, FollowUp{RefreshStatus: true, RefreshHistory: true}},
		{OpStage, false, FollowUp{RefreshStatus: true}},
		{OpUnstage, false, FollowUp{RefreshStatus: true}},
		{OpDiscard, false, FollowUp{RefreshStatus: true}},
		{OpClean, false, FollowUp{RefreshStatus: true}},
		{OpStatus, true, FollowUp{RefreshHistory: true}},
		{OpStatus, false, FollowUp{}},
		{OpHistory, false, FollowUp{}},
		{OpShow, false, FollowUp{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := FollowUpFor(tt.kind, tt.initial)
			if got != tt.want {
				t.Errorf("FollowUpFor(%s, %v) = %+v, want %+v", tt.kind, tt.initial, got, tt.want)
			}
			if got.Any() != (tt.want.RefreshStatus || tt.want.RefreshHistory) {
				t.Errorf("Any() = %v for %+v", got.Any(), got)
			}
		})
	}
}

func TestOperationKind_Classification(t *testing.T) {
	journaled := map[OperationKind]bool{
		OpStage: true, OpUnstage: true, OpDiscard: true, OpClean: true, OpCommit: true,
		OpStatus: false, OpHistory: false, OpShow: false, OpDiff: false,
	}
	for kind, want := range journaled {
		if got := kind.IsJournaled(); got != want {
			t.Errorf("%s.IsJournaled() = %v, want %v", kind, got, want)
		}
	}

	for _, kind := range []OperationKind{OpDiscard, OpClean} {
		if !kind.IsDestructive() {
			t.Errorf("%s should be destructive", kind)
		}
	}
	if OpStage.IsDestructive() {
		t.Error("Stage should not be destructive")
	}
}

func TestOperationInProgressError(t *testing.T) {
	err := error(&OperationInProgressError{Requested: OpStage, Running: OpStatus})

	if got := err.Error(); got != "cannot stage files: Status is already running" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrOperationInProgress) {
		t.Error("error should unwrap to ErrOperationInProgress")
	}

	var target *OperationInProgressError
	if !errors.As(err, &target) || target.Running != OpStatus {
		t.Errorf("errors.As() = %+v", target)
	}

	if got := OperationKind("Fetch").Verb(); got != "fetch" {
		t.Errorf("Verb() of unknown kind = %q, want fetch", got)
	}
}

func TestOperationRecord_Finish(t *testing.T) {
	op := NewOperationRecord("/repo", OpCommit, []string{"-m", "msg"})
	if op.ID == "" || op.StartedAt.IsZero() {
		t.Fatalf("NewOperationRecord() = %+v, want id and start time", op)
	}
	if op.Duration() != 0 {
		t.Error("unfinished operation should have zero duration")
	}

	op.Finish(errors.New("  nothing to commit\n"))
	if op.Success {
		t.Error("failed operation marked successful")
	}
	if op.Stderr != "nothing to commit" {
		t.Errorf("Stderr = %q, want trimmed message", op.Stderr)
	}
	if op.Duration() < 0 {
		t.Errorf("Duration() = %v, want non-negative", op.Duration())
	}

	other := NewOperationRecord("/repo", OpStage, nil)
	if other.ID == op.ID {
		t.Error("operation ids should be unique")
	}
	other.Finish(nil)
	if !other.Success || other.Stderr != "" {
		t.Errorf("successful operation = %+v", other)
	}
}

func TestStatusReport(t *testing.T) {
	report := &StatusReport{}
	if !report.IsClean() || report.HasStaged() {
		t.Error("empty report should be clean with nothing staged")
	}

	report.Untracked = []FileEntry{{Code: "??", Path: "new.txt"}}
	if report.IsClean() || report.HasStaged() {
		t.Error("untracked file should make the tree dirty without staging")
	}

	report.Staged = []FileEntry{{Code: "M ", Path: "b.go"}, {Code: "A ", Path: "a.go"}}
	if !report.HasStaged() {
		t.Error("HasStaged() should be true")
	}
	if got := Paths(report.Staged); len(got) != 2 || got[0] != "b.go" || got[1] != "a.go" {
		t.Errorf("Paths() = %v", got)
	}
}
