package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type RunRecord struct {
	ID          string          `json:"id"`
	Team        string          `json:"team"`
	Task        string          `json:"task"`
	Status      string          `json:"status"`
	State       json.RawMessage `json:"state,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func (s *Store) SaveRun(r *RunRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, team, task, status, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			state = excluded.state`,
		r.ID, r.Team, r.Task, r.Status, nullableRaw(r.State))
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (s *Store) CompleteRun(id, status string, state json.RawMessage) error {
	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, state = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, nullableRaw(state), id)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, team, task, status, state, started_at, completed_at
		FROM runs WHERE id = ?`, id)

	r := &RunRecord{}
	var state *string
	err := row.Scan(&r.ID, &r.Team, &r.Task, &r.Status, &state, &r.StartedAt, &r.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if state != nil {
		r.State = json.RawMessage(*state)
	}
	return r, nil
}

func (s *Store) ListRuns(team string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, team, task, status, started_at, completed_at
		FROM runs
		WHERE team = ? OR ? = ''
		ORDER BY started_at DESC
		LIMIT ?`, team, team, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Team, &r.Task, &r.Status, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nullableRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
