package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"agora/internal/schedule"
	"agora/internal/store"
	"agora/internal/team"
	"agora/internal/ticket"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Tickets
	mux.HandleFunc("POST /api/tickets", s.createTicket)
	mux.HandleFunc("GET /api/tickets", s.listTickets)
	mux.HandleFunc("GET /api/tickets/{id}", s.getTicket)
	mux.HandleFunc("POST /api/tickets/{id}/ask", s.askTicket)
	mux.HandleFunc("POST /api/tickets/{id}/resolve", s.resolveTicket)
	mux.HandleFunc("POST /api/tickets/{id}/escalate", s.escalateTicket)
	mux.HandleFunc("POST /api/tickets/{id}/reset", s.resetTicket)

	// Content generation
	mux.HandleFunc("POST /api/content", s.runContent)

	// Runs
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/runs/{id}/turns", s.getRunTurns)

	// Reminders
	mux.HandleFunc("GET /api/reminders", s.listReminders)
	mux.HandleFunc("POST /api/reminders", s.createReminder)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.deleteReminder)

	// Secrets
	mux.HandleFunc("GET /api/secrets", s.listSecrets)
	mux.HandleFunc("PUT /api/secrets/{name}", s.putSecret)
	mux.HandleFunc("DELETE /api/secrets/{name}", s.deleteSecret)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.UserName == "" || body.UserEmail == "" {
		jsonError(w, "user_name and user_email are required", http.StatusBadRequest)
		return
	}

	sess, err := s.tickets.Open(body.UserName, body.UserEmail)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.ticketMu.Lock()
	s.ticketSessions[sess.TicketID] = sess
	s.ticketMu.Unlock()

	jsonResponse(w, sess)
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.store.ListTickets(r.URL.Query().Get("status"), 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tickets == nil {
		tickets = []store.TicketRecord{}
	}
	jsonResponse(w, tickets)
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	tk, err := s.store.GetTicket(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tk == nil {
		jsonError(w, "ticket not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, tk)
}

func (s *Server) session(id string) (*ticket.Session, bool) {
	s.ticketMu.Lock()
	defer s.ticketMu.Unlock()
	sess, ok := s.ticketSessions[id]
	return sess, ok
}

func (s *Server) askTicket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		jsonError(w, "no active session for ticket", http.StatusNotFound)
		return
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	answer, err := s.tickets.Ask(r.Context(), sess, body.Query)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]any{
		"ticket_id": sess.TicketID,
		"category":  sess.Category,
		"answer":    answer,
	})
}

func (s *Server) resolveTicket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		jsonError(w, "no active session for ticket", http.StatusNotFound)
		return
	}
	if err := s.tickets.Resolve(r.Context(), sess); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, sess)
}

func (s *Server) escalateTicket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		jsonError(w, "no active session for ticket", http.StatusNotFound)
		return
	}
	if err := s.tickets.Escalate(r.Context(), sess); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, sess)
}

func (s *Server) resetTicket(w http.ResponseWriter, r *http.Request) {
	oldID := r.PathValue("id")
	sess, ok := s.session(oldID)
	if !ok {
		jsonError(w, "no active session for ticket", http.StatusNotFound)
		return
	}

	if err := s.tickets.Reset(sess); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Re-key the session under its fresh ticket ID.
	s.ticketMu.Lock()
	delete(s.ticketSessions, oldID)
	s.ticketSessions[sess.TicketID] = sess
	s.ticketMu.Unlock()

	jsonResponse(w, sess)
}

func (s *Server) runContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Task     string `json:"task"`
		ResumeID string `json:"resume_run_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Task == "" {
		jsonError(w, "task is required", http.StatusBadRequest)
		return
	}

	var resume *team.RunState
	if body.ResumeID != "" {
		state, err := s.content.LoadState(body.ResumeID)
		if err != nil {
			jsonError(w, fmt.Sprintf("resume: %v", err), http.StatusBadRequest)
			return
		}
		resume = state
	}

	var transcript []string
	result, err := s.content.Run(r.Context(), body.Task, resume, func(e string) {
		transcript = append(transcript, e)
		s.hub.Broadcast(Event{Type: "content_turn", Data: e})
	})
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]any{
		"run_id":      result.RunID,
		"stop_reason": result.StopReason,
		"turn_count":  result.State.TurnCount,
		"transcript":  transcript,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.URL.Query().Get("team"), 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	jsonResponse(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, run)
}

func (s *Server) getRunTurns(w http.ResponseWriter, r *http.Request) {
	turns, err := s.store.GetTurns(r.PathValue("id"), 0)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if turns == nil {
		turns = []store.TurnRecord{}
	}
	jsonResponse(w, turns)
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.store.ListReminders()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, map[string]any{
			"id":          rem.ID,
			"ticket_id":   rem.TicketID,
			"schedule":    schedule.FormatSchedule(rem.Schedule),
			"note":        rem.Note,
			"status":      rem.Status,
			"next_run_at": rem.NextRunAt,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TicketID string `json:"ticket_id"`
		Schedule string `json:"schedule"`
		Note     string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TicketID == "" || body.Schedule == "" {
		jsonError(w, "ticket_id and schedule are required", http.StatusBadRequest)
		return
	}

	normalized, err := schedule.NormalizeSchedule(body.Schedule)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tk, err := s.store.GetTicket(body.TicketID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tk == nil {
		jsonError(w, "ticket not found", http.StatusNotFound)
		return
	}

	reminder := &store.Reminder{
		ID:        uuid.NewString(),
		TicketID:  body.TicketID,
		Schedule:  normalized,
		Note:      body.Note,
		Status:    "active",
		NextRunAt: schedule.CalculateNextRun(normalized),
	}
	if err := s.store.SaveReminder(reminder); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, reminder)
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReminder(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) listSecrets(w http.ResponseWriter, r *http.Request) {
	secrets, err := s.store.ListSecrets()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(secrets))
	for _, sec := range secrets {
		out = append(out, map[string]any{
			"name":       sec.Name,
			"kind":       sec.Kind,
			"updated_at": sec.UpdatedAt,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) putSecret(w http.ResponseWriter, r *http.Request) {
	if s.keeper == nil {
		jsonError(w, "vault not configured", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Value == "" {
		jsonError(w, "value is required", http.StatusBadRequest)
		return
	}
	if body.Kind == "" {
		body.Kind = "api_key"
	}

	if err := s.keeper.Put(r.PathValue("name"), body.Kind, []byte(body.Value)); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) deleteSecret(w http.ResponseWriter, r *http.Request) {
	if s.keeper == nil {
		jsonError(w, "vault not configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.keeper.Delete(r.PathValue("name")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	open, _ := s.store.ListTickets(ticket.StatusOpen, 0)
	escalated, _ := s.store.ListTickets(ticket.StatusEscalated, 0)

	jsonResponse(w, map[string]any{
		"version":           s.version,
		"uptime":            formatUptime(time.Since(s.startedAt)),
		"open_tickets":      len(open),
		"escalated_tickets": len(escalated),
	})
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
