package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned by RunStore.Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one replay session.
type Run struct {
	RunID      string          `json:"run_id"`
	Workflow   string          `json:"workflow"`
	Detector   string          `json:"detector"`
	Input      string          `json:"input"`
	ParamsJSON json.RawMessage `json:"params_json,omitempty"`
	Status     string          `json:"status"`
	Entries    int             `json:"entries"`
	StartedAt  int64           `json:"started_at"`
	FinishedAt int64           `json:"finished_at,omitempty"`
}

// RunStore records replay sessions.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// Start inserts a running session under a fresh run id. params is stored as
// JSON and may be nil.
func (s *RunStore) Start(ctx context.Context, workflow, detector, input string, params any) (*Run, error) {
	run := &Run{
		RunID:     uuid.New().String(),
		Workflow:  workflow,
		Detector:  detector,
		Input:     input,
		Status:    StatusRunning,
		StartedAt: time.Now().UnixNano(),
	}
	var paramsStr interface{}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		run.ParamsJSON = b
		paramsStr = string(b)
	}

	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO replay_runs (run_id, workflow, detector, input, params_json, status, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Workflow, run.Detector, run.Input, paramsStr, run.Status, run.StartedAt,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish records the outcome of a session.
func (s *RunStore) Finish(ctx context.Context, runID string, entries int, status string) error {
	var n int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE replay_runs SET status = ?, entries = ?, finished_at = ?
			WHERE run_id = ?`,
			status, entries, time.Now().UnixNano(), runID,
		)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// Get loads a session by id.
func (s *RunStore) Get(ctx context.Context, runID string) (*Run, error) {
	var (
		run      Run
		params   sql.NullString
		finished sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, workflow, detector, input, params_json, status, entries, started_at, finished_at
		FROM replay_runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &run.Workflow, &run.Detector, &run.Input, &params,
		&run.Status, &run.Entries, &run.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	run.FinishedAt = finished.Int64
	return &run, nil
}
