package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"agora/internal/bus"
	"agora/internal/config"
	"agora/internal/kb"
	"agora/internal/llm"
	"agora/internal/schedule"
	"agora/internal/store"
	"agora/internal/team"
	"agora/internal/tools"
)

// FollowUpInterval is how often escalated tickets are chased.
const FollowUpInterval = 4 * time.Hour

// Notifier delivers status notifications. Satisfied by tools.Mailer.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Manager owns support sessions and runs the answer pipeline.
type Manager struct {
	gen      llm.Generator
	kb       *kb.KB
	store    *store.Store
	notifier Notifier
	search   *tools.Spec
	events   *bus.Client
	teams    config.TeamsConfig
}

func NewManager(gen llm.Generator, knowledge *kb.KB, s *store.Store, notifier Notifier, search *tools.Spec, events *bus.Client, teams config.TeamsConfig) *Manager {
	return &Manager{
		gen:      gen,
		kb:       knowledge,
		store:    s,
		notifier: notifier,
		search:   search,
		events:   events,
		teams:    teams,
	}
}

// Open starts a session and persists the ticket as open.
func (m *Manager) Open(userName, userEmail string) (*Session, error) {
	sess := NewSession(userName, userEmail)
	if err := m.saveTicket(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Ask runs the support team on the query and records the answer on the
// session. The ticket stays open; the user decides whether the answer
// resolves it.
func (m *Manager) Ask(ctx context.Context, sess *Session, query string) (string, error) {
	cfg := m.newPipeline()

	run, err := team.Start(ctx, query, cfg, nil)
	if err != nil {
		return "", fmt.Errorf("start support run: %w", err)
	}

	runID := run.ID()
	if m.store != nil {
		record := &store.RunRecord{ID: runID, Team: "ticket", Task: query, Status: "running"}
		if err := m.store.SaveRun(record); err != nil {
			slog.Error("failed to save run", "run", runID, "error", err)
		}
	}

	for turn := range run.Turns() {
		m.recordTurn(runID, sess.TicketID, turn)
	}
	if err := run.Wait(ctx); err != nil {
		return "", fmt.Errorf("support run: %w", err)
	}

	state := run.State()
	sess.Query = query
	sess.Category = finalCategory(state.Transcript)
	sess.Answer = finalAnswer(state.Transcript)

	if m.store != nil {
		if raw, err := json.Marshal(state); err == nil {
			if err := m.store.CompleteRun(runID, "completed", raw); err != nil {
				slog.Error("failed to complete run", "run", runID, "error", err)
			}
		}
	}
	if err := m.saveTicket(sess); err != nil {
		return "", err
	}

	return sess.Answer, nil
}

// Resolve closes the ticket and notifies the user.
func (m *Manager) Resolve(ctx context.Context, sess *Session) error {
	sess.Status = StatusResolved
	if err := m.saveTicket(sess); err != nil {
		return err
	}
	if m.store != nil {
		if err := m.store.CancelTicketReminders(sess.TicketID); err != nil {
			slog.Error("failed to cancel reminders", "ticket", sess.TicketID, "error", err)
		}
	}
	return m.notify(ctx, sess, "resolved and closed")
}

// Escalate hands the ticket to the IT team, notifies the user, and
// schedules recurring follow-up reminders.
func (m *Manager) Escalate(ctx context.Context, sess *Session) error {
	sess.Status = StatusEscalated
	if err := m.saveTicket(sess); err != nil {
		return err
	}

	if m.store != nil {
		next := time.Now().Add(FollowUpInterval)
		reminder := &store.Reminder{
			ID:        uuid.NewString(),
			TicketID:  sess.TicketID,
			Schedule:  schedule.Interval(FollowUpInterval),
			Note:      "Escalated to the IT team.",
			Status:    "active",
			NextRunAt: &next,
		}
		if err := m.store.SaveReminder(reminder); err != nil {
			slog.Error("failed to schedule follow-up", "ticket", sess.TicketID, "error", err)
		}
	}

	return m.notify(ctx, sess, "escalated to the IT team")
}

// Reset starts a new ticket for the same user.
func (m *Manager) Reset(sess *Session) error {
	sess.Reset()
	return m.saveTicket(sess)
}

func (m *Manager) saveTicket(sess *Session) error {
	if m.store == nil {
		return nil
	}
	err := m.store.SaveTicket(&store.TicketRecord{
		ID:        sess.TicketID,
		UserName:  sess.UserName,
		UserEmail: sess.UserEmail,
		Query:     sess.Query,
		Category:  sess.Category,
		Status:    sess.Status,
		Answer:    sess.Answer,
	})
	if err != nil {
		return fmt.Errorf("persist ticket %s: %w", sess.TicketID, err)
	}

	if m.events != nil {
		event := map[string]any{
			"type":      "ticket_updated",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"data": map[string]any{
				"id":       sess.TicketID,
				"status":   sess.Status,
				"category": sess.Category,
			},
		}
		if err := m.events.PublishJSON(bus.TopicEventsTicket(sess.TicketID), event); err != nil {
			slog.Error("failed to publish ticket event", "ticket", sess.TicketID, "error", err)
		}
	}
	return nil
}

func (m *Manager) recordTurn(runID, ticketID string, turn team.Turn) {
	if m.store != nil {
		var payload json.RawMessage
		if len(turn.Payload) > 0 {
			payload, _ = json.Marshal(turn.Payload)
		}
		record := &store.TurnRecord{RunID: runID, Source: turn.Source, Content: turn.Content, Payload: payload}
		if err := m.store.SaveTurn(record); err != nil {
			slog.Error("failed to save turn", "run", runID, "error", err)
		}
	}
	if m.events != nil {
		if err := m.events.PublishJSON(bus.TopicRunTurns(runID), turn); err != nil {
			slog.Error("failed to publish turn", "run", runID, "error", err)
		}
	}
}

func (m *Manager) notify(ctx context.Context, sess *Session, action string) error {
	if m.notifier == nil {
		return nil
	}

	subject := fmt.Sprintf("IT ticket %s %s", sess.TicketID, sess.Status)
	body := fmt.Sprintf(
		"Ticket ID: %s\nUser: %s\nCategory: %s\nQuery: %s\nStatus: %s\n\nYour ticket has been %s.\nTimestamp: %s",
		sess.TicketID, sess.UserName, sess.Category, sess.Query, sess.Status,
		action, time.Now().Format(time.RFC1123))

	if err := m.notifier.Send(ctx, sess.UserEmail, subject, body); err != nil {
		return fmt.Errorf("notify %s: %w", sess.UserEmail, err)
	}
	return nil
}

func finalAnswer(transcript []team.Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		t := transcript[i]
		if t.Source == team.SourceTermination || t.Source == team.SourceUser {
			continue
		}
		if strings.Contains(t.Content, sourceMarker) {
			return t.Content
		}
	}
	return "The team could not produce an answer. Please escalate the ticket."
}

func finalCategory(transcript []team.Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if c, ok := transcript[i].Payload["category"].(string); ok {
			return c
		}
	}
	return "Unknown"
}
