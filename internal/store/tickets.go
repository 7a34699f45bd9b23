package store

import (
	"database/sql"
	"fmt"
	"time"
)

type TicketRecord struct {
	ID        string    `json:"id"`
	UserName  string    `json:"user_name"`
	UserEmail string    `json:"user_email"`
	Query     string    `json:"query,omitempty"`
	Category  string    `json:"category,omitempty"`
	Status    string    `json:"status"`
	Answer    string    `json:"answer,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Store) SaveTicket(tk *TicketRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO tickets (id, user_name, user_email, query, category, status, answer)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_name = excluded.user_name,
			user_email = excluded.user_email,
			query = excluded.query,
			category = excluded.category,
			status = excluded.status,
			answer = excluded.answer,
			updated_at = CURRENT_TIMESTAMP`,
		tk.ID, tk.UserName, tk.UserEmail, tk.Query, tk.Category, tk.Status, tk.Answer)
	if err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	return nil
}

func (s *Store) GetTicket(id string) (*TicketRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, user_name, user_email, query, category, status, answer, created_at, updated_at
		FROM tickets WHERE id = ?`, id)

	tk := &TicketRecord{}
	var query, category, answer *string
	err := row.Scan(&tk.ID, &tk.UserName, &tk.UserEmail, &query, &category, &tk.Status, &answer, &tk.CreatedAt, &tk.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	if query != nil {
		tk.Query = *query
	}
	if category != nil {
		tk.Category = *category
	}
	if answer != nil {
		tk.Answer = *answer
	}
	return tk, nil
}

func (s *Store) ListTickets(status string, limit int) ([]TicketRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, user_name, user_email, query, category, status, answer, created_at, updated_at
		FROM tickets
		WHERE status = ? OR ? = ''
		ORDER BY updated_at DESC
		LIMIT ?`, status, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []TicketRecord
	for rows.Next() {
		var tk TicketRecord
		var query, category, answer *string
		if err := rows.Scan(&tk.ID, &tk.UserName, &tk.UserEmail, &query, &category, &tk.Status, &answer, &tk.CreatedAt, &tk.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		if query != nil {
			tk.Query = *query
		}
		if category != nil {
			tk.Category = *category
		}
		if answer != nil {
			tk.Answer = *answer
		}
		tickets = append(tickets, tk)
	}
	return tickets, rows.Err()
}
