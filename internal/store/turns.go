package store

import (
	"encoding/json"
	"fmt"
	"time"
)

type TurnRecord struct {
	ID        int64           `json:"id"`
	RunID     string          `json:"run_id"`
	Source    string          `json:"source"`
	Content   string          `json:"content"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (s *Store) SaveTurn(tr *TurnRecord) error {
	result, err := s.db.Exec(`
		INSERT INTO turns (run_id, source, content, payload)
		VALUES (?, ?, ?, ?)`,
		tr.RunID, tr.Source, tr.Content, nullableRaw(tr.Payload))
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	tr.ID, _ = result.LastInsertId()
	return nil
}

func (s *Store) GetTurns(runID string, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.Query(`
		SELECT id, run_id, source, content, payload, created_at
		FROM turns
		WHERE run_id = ?
		ORDER BY id DESC
		LIMIT ?`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	var turns []TurnRecord
	for rows.Next() {
		var tr TurnRecord
		var payload *string
		if err := rows.Scan(&tr.ID, &tr.RunID, &tr.Source, &tr.Content, &payload, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if payload != nil {
			tr.Payload = json.RawMessage(*payload)
		}
		turns = append(turns, tr)
	}

	// Reverse to get chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, rows.Err()
}
