package team

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Selector chooses which participant acts next. Implementations return
// a participant ID from the roster; the orchestrator validates the
// returned ID, retries an invalid selection once, and falls back to the
// first roster entry, so selectors never block a run.
type Selector interface {
	Select(ctx context.Context, transcript []Turn, roster []RosterEntry) (string, error)
}

// RoundRobin selects participants in roster order, cycling.
type RoundRobin struct {
	mu   sync.Mutex
	next int
}

func (s *RoundRobin) Select(_ context.Context, _ []Turn, roster []RosterEntry) (string, error) {
	if len(roster) == 0 {
		return "", &SelectionError{Err: fmt.Errorf("empty roster")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := roster[s.next%len(roster)].ID
	s.next++
	return id, nil
}

// Rule maps a transcript predicate to a participant ID. Rules make
// deterministic selection policies like "after the approval phrase,
// force the email agent" expressible without a model call.
type Rule struct {
	When func(transcript []Turn) bool
	Pick string
}

// Rules selects the first participant whose rule matches, falling back
// to Default when none does.
type Rules struct {
	Rules   []Rule
	Default string
}

func (s Rules) Select(_ context.Context, transcript []Turn, _ []RosterEntry) (string, error) {
	for _, rule := range s.Rules {
		if rule.When(transcript) {
			return rule.Pick, nil
		}
	}
	if s.Default == "" {
		return "", &SelectionError{Err: fmt.Errorf("no rule matched and no default set")}
	}
	return s.Default, nil
}

// GenerateFunc is the arbitration capability consumed by ModelSelector:
// prompt in, raw text out.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// ModelSelector asks a generation capability to choose the next
// participant, constrained to return exactly one ID from the roster.
type ModelSelector struct {
	Generate GenerateFunc
	// Preamble describes the team's overall task flow; it is prepended
	// to the roster and history in the selection prompt.
	Preamble string
	// HistoryLimit bounds how many trailing turns are shown to the
	// arbiter. Zero means the whole transcript.
	HistoryLimit int
}

func (s ModelSelector) Select(ctx context.Context, transcript []Turn, roster []RosterEntry) (string, error) {
	raw, err := s.Generate(ctx, s.buildPrompt(transcript, roster))
	if err != nil {
		return "", &SelectionError{Err: err}
	}
	return strings.TrimSpace(raw), nil
}

func (s ModelSelector) buildPrompt(transcript []Turn, roster []RosterEntry) string {
	var sb strings.Builder
	if s.Preamble != "" {
		sb.WriteString(s.Preamble)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Roles:\n")
	for _, entry := range roster {
		fmt.Fprintf(&sb, "- %s: %s\n", entry.ID, entry.Role)
	}

	history := transcript
	if s.HistoryLimit > 0 && len(history) > s.HistoryLimit {
		history = history[len(history)-s.HistoryLimit:]
	}
	sb.WriteString("\nConversation so far:\n")
	for _, t := range history {
		fmt.Fprintf(&sb, "%s: %s\n", t.Source, t.Content)
	}

	sb.WriteString("\nSelect the next role to speak from: ")
	for i, entry := range roster {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(entry.ID)
	}
	sb.WriteString("\nRespond with ONLY the role name, nothing else.")
	return sb.String()
}
