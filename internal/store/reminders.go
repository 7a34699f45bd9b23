package store

import (
	"database/sql"
	"fmt"
	"time"
)

type Reminder struct {
	ID        string     `json:"id"`
	TicketID  string     `json:"ticket_id"`
	Schedule  string     `json:"schedule"`
	Note      string     `json:"note,omitempty"`
	Status    string     `json:"status"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func scanReminder(scanner interface {
	Scan(dest ...any) error
}) (*Reminder, error) {
	r := &Reminder{}
	var note, lastError *string
	err := scanner.Scan(&r.ID, &r.TicketID, &r.Schedule, &note, &r.Status,
		&r.NextRunAt, &r.LastRunAt, &lastError, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if note != nil {
		r.Note = *note
	}
	if lastError != nil {
		r.LastError = *lastError
	}
	return r, nil
}

func (s *Store) SaveReminder(r *Reminder) error {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, ticket_id, schedule, note, status, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schedule = excluded.schedule,
			note = excluded.note,
			status = excluded.status,
			next_run_at = excluded.next_run_at`,
		r.ID, r.TicketID, r.Schedule, r.Note, r.Status, r.NextRunAt)
	if err != nil {
		return fmt.Errorf("save reminder: %w", err)
	}
	return nil
}

func (s *Store) GetReminder(id string) (*Reminder, error) {
	row := s.db.QueryRow(`
		SELECT id, ticket_id, schedule, note, status, next_run_at, last_run_at, last_error, created_at
		FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (s *Store) ListReminders() ([]Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, ticket_id, schedule, note, status, next_run_at, last_run_at, last_error, created_at
		FROM reminders ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

// DueReminders returns active reminders whose next run time has passed.
func (s *Store) DueReminders(now time.Time) ([]Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, ticket_id, schedule, note, status, next_run_at, last_run_at, last_error, created_at
		FROM reminders
		WHERE status = 'active' AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at`, now)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

func (s *Store) MarkReminderRun(id string, ranAt time.Time, next *time.Time, runErr string) error {
	status := "active"
	if next == nil {
		status = "done"
	}
	_, err := s.db.Exec(`
		UPDATE reminders
		SET last_run_at = ?, next_run_at = ?, last_error = ?, status = ?
		WHERE id = ?`, ranAt, next, runErr, status, id)
	if err != nil {
		return fmt.Errorf("mark reminder run: %w", err)
	}
	return nil
}

func (s *Store) DeleteReminder(id string) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// CancelTicketReminders deactivates all reminders for a ticket, used
// when the ticket leaves the escalated state.
func (s *Store) CancelTicketReminders(ticketID string) error {
	_, err := s.db.Exec(`
		UPDATE reminders SET status = 'cancelled'
		WHERE ticket_id = ? AND status = 'active'`, ticketID)
	if err != nil {
		return fmt.Errorf("cancel ticket reminders: %w", err)
	}
	return nil
}
