// Package content assembles the article production team: research,
// writing, two critics, and email delivery, coordinated by a model
// selector with a deterministic override once the critics approve.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"agora/internal/agents"
	"agora/internal/bus"
	"agora/internal/config"
	"agora/internal/llm"
	"agora/internal/store"
	"agora/internal/team"
	"agora/internal/tools"
)

// Team owns the content production roster and runs writing tasks.
type Team struct {
	gen    llm.Generator
	arbit  team.GenerateFunc
	search *tools.Spec
	email  *tools.Spec
	store  *store.Store
	events *bus.Client
	teams  config.TeamsConfig
}

func New(gen llm.Generator, arbit team.GenerateFunc, search, email *tools.Spec, s *store.Store, events *bus.Client, teams config.TeamsConfig) *Team {
	return &Team{
		gen:    gen,
		arbit:  arbit,
		search: search,
		email:  email,
		store:  s,
		events: events,
		teams:  teams,
	}
}

func (t *Team) runConfig() team.RunConfig {
	var searchSet, emailSet *tools.Set
	if t.search != nil {
		searchSet = tools.NewSet(*t.search)
	}
	if t.email != nil {
		emailSet = tools.NewSet(*t.email)
	}

	minScore := t.teams.MinScoreThreshold
	participants := []team.Participant{
		agents.NewAssistant(SearchAgent, "research", searchDirective, t.gen, searchSet),
		agents.NewAssistant(WriterAgent, "writer", writerDirective, t.gen, nil),
		agents.NewCritic(ContentCritic, "content critic", contentCriticDirective(minScore), t.gen, ApprovalMarker),
		agents.NewCritic(SEOCritic, "seo critic", seoCriticDirective(minScore), t.gen, ApprovalMarker),
		agents.NewAssistant(EmailAgent, "delivery", emailDirective, t.gen, emailSet),
	}

	selector := &approvalSelector{
		model: team.ModelSelector{
			Generate:     t.arbit,
			Preamble:     selectorPreamble,
			HistoryLimit: 12,
		},
	}

	return team.RunConfig{
		Participants: participants,
		Selector:     selector,
		Termination: team.Any(
			team.TextMention{Text: TerminationMarker},
			team.MaxMessages{Limit: t.teams.MaxTurns},
		),
		MaxTurns: t.teams.MaxTurns,
	}
}

// approvalSelector forces the email agent once the approval phrase
// appears; every other selection is arbitrated by the model.
type approvalSelector struct {
	model team.ModelSelector
}

func (s *approvalSelector) Select(ctx context.Context, transcript []team.Turn, roster []team.RosterEntry) (string, error) {
	if last, ok := team.LastTurn(transcript); ok {
		if last.Source == team.SourceUser {
			return SearchAgent, nil
		}
		if strings.Contains(last.Content, ApprovalMarker) {
			return EmailAgent, nil
		}
	}
	return s.model.Select(ctx, transcript, roster)
}

// Result is the outcome of one writing task.
type Result struct {
	RunID      string
	State      team.RunState
	StopReason string
}

// Run executes a writing task, streaming each formatted turn through
// onEvent when it is non-nil. A resume state continues a previous run.
func (t *Team) Run(ctx context.Context, task string, resume *team.RunState, onEvent func(string)) (*Result, error) {
	run, err := team.Start(ctx, task, t.runConfig(), resume)
	if err != nil {
		return nil, fmt.Errorf("start content run: %w", err)
	}

	runID := run.ID()
	if t.store != nil {
		record := &store.RunRecord{ID: runID, Team: "content", Task: task, Status: "running"}
		if err := t.store.SaveRun(record); err != nil {
			slog.Error("failed to save run", "run", runID, "error", err)
		}
	}

	for turn := range run.Turns() {
		t.recordTurn(runID, turn)
		if onEvent != nil {
			onEvent(FormatTurn(turn))
		}
	}
	if err := run.Wait(ctx); err != nil {
		return nil, fmt.Errorf("content run: %w", err)
	}

	state := run.State()
	if t.store != nil {
		status := "completed"
		if state.StopReason == team.StopReasonCancelled {
			status = "cancelled"
		}
		if raw, err := json.Marshal(state); err == nil {
			if err := t.store.CompleteRun(runID, status, raw); err != nil {
				slog.Error("failed to complete run", "run", runID, "error", err)
			}
		}
	}

	return &Result{RunID: runID, State: state, StopReason: state.StopReason}, nil
}

// LoadState restores a saved run state for resumption.
func (t *Team) LoadState(runID string) (*team.RunState, error) {
	if t.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	record, err := t.store.GetRun(runID)
	if err != nil {
		return nil, err
	}
	if record == nil || len(record.State) == 0 {
		return nil, fmt.Errorf("run %s has no saved state", runID)
	}

	var state team.RunState
	if err := json.Unmarshal(record.State, &state); err != nil {
		return nil, fmt.Errorf("decode run state: %w", err)
	}
	return &state, nil
}

func (t *Team) recordTurn(runID string, turn team.Turn) {
	if t.store != nil {
		var payload json.RawMessage
		if len(turn.Payload) > 0 {
			payload, _ = json.Marshal(turn.Payload)
		}
		record := &store.TurnRecord{RunID: runID, Source: turn.Source, Content: turn.Content, Payload: payload}
		if err := t.store.SaveTurn(record); err != nil {
			slog.Error("failed to save turn", "run", runID, "error", err)
		}
	}
	if t.events != nil {
		if err := t.events.PublishJSON(bus.TopicRunTurns(runID), turn); err != nil {
			slog.Error("failed to publish turn", "run", runID, "error", err)
		}
	}
}
