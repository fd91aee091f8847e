package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// operationJournal implements ports.OperationJournal using SQLite.
type operationJournal struct {
	db *sql.DB
}

// newOperationJournal creates a new operation journal.
func newOperationJournal(db *sql.DB) ports.OperationJournal {
	return &operationJournal{db: db}
}

// Record persists a finished operation.
func (j *operationJournal) Record(ctx context.Context, op *domain.OperationRecord) error {
	query := `
		INSERT INTO operations (id, repository, kind, args, success, stderr, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	args, err := json.Marshal(op.Args)
	if err != nil {
		return fmt.Errorf("failed to encode operation args: %w", err)
	}

	var finishedAt sql.NullTime
	if !op.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: op.FinishedAt.UTC(), Valid: true}
	}

	_, err = j.db.ExecContext(ctx, query,
		op.ID,
		op.Repository,
		string(op.Kind),
		string(args),
		op.Success,
		op.Stderr,
		op.StartedAt.UTC(),
		finishedAt,
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("operation %s already recorded", op.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}

	return nil
}

// Recent returns the latest operations, newest first.
func (j *operationJournal) Recent(ctx context.Context, repository string, limit int) ([]*domain.OperationRecord, error) {
	query := `
		SELECT id, repository, kind, args, success, stderr, started_at, finished_at
		FROM operations
	`
	args := []any{}
	if repository != "" {
		query += " WHERE repository = ?"
		args = append(args, repository)
	}
	query += " ORDER BY started_at DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []*domain.OperationRecord
	for rows.Next() {
		var op domain.OperationRecord
		var kind, argsJSON string
		var stderr sql.NullString
		var finishedAt sql.NullTime

		if err := rows.Scan(&op.ID, &op.Repository, &kind, &argsJSON, &op.Success, &stderr, &op.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		op.Kind = domain.OperationKind(kind)
		op.Stderr = stderr.String
		if finishedAt.Valid {
			op.FinishedAt = finishedAt.Time
		}
		if argsJSON != "" {
			if err := json.Unmarshal([]byte(argsJSON), &op.Args); err != nil {
				return nil, fmt.Errorf("failed to decode operation args: %w", err)
			}
		}

		ops = append(ops, &op)
	}

	return ops, rows.Err()
}
