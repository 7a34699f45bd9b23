// Package scheduler polls the reminder table and sends follow-up
// notifications for tickets that are still escalated.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agora/internal/bus"
	"agora/internal/config"
	"agora/internal/schedule"
	"agora/internal/store"
)

// Notifier delivers a follow-up message. Satisfied by tools.Mailer.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

type Scheduler struct {
	store        *store.Store
	notifier     Notifier
	natsClient   *bus.Client
	pollInterval time.Duration
	reloadCh     chan struct{}
}

func New(s *store.Store, notifier Notifier, b *bus.Bus, cfg config.SchedulerConfig) *Scheduler {
	sched := &Scheduler{
		store:        s,
		notifier:     notifier,
		pollInterval: cfg.PollInterval,
		reloadCh:     make(chan struct{}, 1),
	}

	if b != nil {
		client, err := bus.NewClient(b)
		if err != nil {
			slog.Error("scheduler nats client failed", "error", err)
		} else {
			sched.natsClient = client
		}
	}

	return sched
}

// UpdateConfig changes the poll interval and signals the run loop to
// reset its ticker.
func (s *Scheduler) UpdateConfig(pollInterval time.Duration) {
	s.pollInterval = pollInterval
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.pollInterval == 0 {
		s.pollInterval = 30 * time.Second
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	slog.Info("scheduler started", "poll_interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-s.reloadCh:
			ticker.Reset(s.pollInterval)
			slog.Info("scheduler config reloaded", "poll_interval", s.pollInterval)
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	reminders, err := s.store.DueReminders(time.Now())
	if err != nil {
		slog.Error("failed to get due reminders", "error", err)
		return
	}

	for _, r := range reminders {
		s.fire(ctx, r)
	}
}

func (s *Scheduler) fire(ctx context.Context, r store.Reminder) {
	ticket, err := s.store.GetTicket(r.TicketID)
	if err != nil {
		slog.Error("failed to load ticket for reminder", "reminder", r.ID, "error", err)
		return
	}

	// Reminders only matter while the ticket stays escalated. A ticket
	// that was resolved or reset in the meantime retires the reminder.
	if ticket == nil || ticket.Status != "Escalated" {
		slog.Info("reminder obsolete", "reminder", r.ID, "ticket", r.TicketID)
		if err := s.store.MarkReminderRun(r.ID, time.Now(), nil, ""); err != nil {
			slog.Error("failed to retire reminder", "reminder", r.ID, "error", err)
		}
		return
	}

	slog.Info("sending follow-up reminder", "reminder", r.ID, "ticket", ticket.ID)

	subject := fmt.Sprintf("Follow-up: IT ticket %s still escalated", ticket.ID)
	body := fmt.Sprintf(
		"Ticket ID: %s\nUser: %s\nCategory: %s\nQuery: %s\nStatus: %s\n\n%s\n\nThis ticket is still awaiting attention from the IT team.",
		ticket.ID, ticket.UserName, ticket.Category, ticket.Query, ticket.Status, r.Note)

	var runErr string
	if err := s.notifier.Send(ctx, ticket.UserEmail, subject, body); err != nil {
		runErr = err.Error()
		slog.Error("reminder notification failed", "reminder", r.ID, "error", err)
	}

	next := schedule.CalculateNextRun(r.Schedule)
	if err := s.store.MarkReminderRun(r.ID, time.Now(), next, runErr); err != nil {
		slog.Error("failed to update reminder", "reminder", r.ID, "error", err)
	}

	s.publishReminderEvent(r, ticket, runErr)
}

func (s *Scheduler) publishReminderEvent(r store.Reminder, ticket *store.TicketRecord, runErr string) {
	if s.natsClient == nil {
		return
	}

	status := "sent"
	if runErr != "" {
		status = "error"
	}
	event := map[string]any{
		"type":      "reminder_fired",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data": map[string]any{
			"reminder": r.ID,
			"ticket":   ticket.ID,
			"status":   status,
		},
	}

	if err := s.natsClient.PublishJSON(bus.TopicEventsReminder, event); err != nil {
		slog.Error("failed to publish reminder event", "error", err)
	}
}
