package team

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StopReasonMaxTurns is reported when the hard turn ceiling ends a run
// before the termination condition fires.
const StopReasonMaxTurns = "max_turns_exceeded"

// StopReasonCancelled is reported when the caller's context is
// cancelled mid-run.
const StopReasonCancelled = "cancelled"

// RunConfig configures one run of a participant team.
type RunConfig struct {
	Participants []Participant
	Selector     Selector
	Termination  Condition
	// MaxTurns is a hard ceiling independent of Termination, so the
	// turn sequence is finite even if the condition never fires.
	MaxTurns int
}

func (c RunConfig) Validate() error {
	if len(c.Participants) == 0 {
		return &ConfigError{Reason: "no participants"}
	}
	seen := make(map[string]bool, len(c.Participants))
	for _, p := range c.Participants {
		id := p.ID()
		if id == "" {
			return &ConfigError{Reason: "participant with empty id"}
		}
		if id == SourceUser || id == SourceTermination {
			return &ConfigError{Reason: fmt.Sprintf("participant id %q is reserved", id)}
		}
		if seen[id] {
			return &ConfigError{Reason: fmt.Sprintf("duplicate participant id %q", id)}
		}
		seen[id] = true
	}
	if c.Selector == nil {
		return &ConfigError{Reason: "no selector"}
	}
	if c.Termination == nil {
		return &ConfigError{Reason: "no termination condition"}
	}
	if c.MaxTurns <= 0 {
		return &ConfigError{Reason: "max_turns must be positive"}
	}
	return nil
}

// RunState is a serializable snapshot of a run's progress. A snapshot
// taken mid-run can be persisted and later passed to Start as the
// resume state.
type RunState struct {
	Transcript []Turn `json:"transcript"`
	TurnCount  int    `json:"turn_count"`
	Terminated bool   `json:"terminated"`
	StopReason string `json:"stop_reason,omitempty"`
}

// Clone returns a deep-enough copy: the transcript slice is copied so
// the caller can hold the snapshot while the run keeps appending.
func (s RunState) Clone() RunState {
	s.Transcript = cloneTranscript(s.Transcript)
	return s
}

// Run drives the selection, invocation, append, termination cycle over
// a shared transcript and exposes the result as an ordered stream of
// turns. The run owns the transcript for its lifetime and performs no
// I/O of its own beyond what participants do.
type Run struct {
	id    string
	cfg   RunConfig
	byID  map[string]Participant
	turns chan Turn
	done  chan struct{}

	mu    sync.RWMutex
	state RunState
}

// Start validates the configuration, seeds the transcript, and begins
// the run. The returned run streams turns as they are appended; the
// caller stops it early by cancelling ctx, in which case any in-flight
// participant call completes but its output is discarded.
func Start(ctx context.Context, task string, cfg RunConfig, resume *RunState) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Run{
		id:   uuid.New().String(),
		cfg:  cfg,
		byID: make(map[string]Participant, len(cfg.Participants)),
		// Buffered generously so a consumer that stops reading without
		// cancelling never wedges the loop.
		turns: make(chan Turn, 2*cfg.MaxTurns+8),
		done:  make(chan struct{}),
	}
	for _, p := range cfg.Participants {
		r.byID[p.ID()] = p
	}

	var seed []Turn
	if resume != nil {
		r.state = resume.Clone()
		r.state.Terminated = false
		r.state.StopReason = ""
	}
	if task != "" {
		seed = append(seed, Turn{Source: SourceUser, Content: task, At: time.Now()})
	}

	go r.loop(ctx, seed)
	return r, nil
}

func (r *Run) ID() string {
	return r.id
}

// Turns returns the stream of turns in transcript order. The channel
// is closed when the run ends; the final turn before close carries
// Source == SourceTermination with the stop reason, unless the run was
// cancelled.
func (r *Run) Turns() <-chan Turn {
	return r.turns
}

// State returns a snapshot of the run state, safe to read while the
// run is still producing.
func (r *Run) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Wait blocks until the run ends or ctx is cancelled.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Run) loop(ctx context.Context, seed []Turn) {
	defer close(r.turns)
	defer close(r.done)

	for _, t := range seed {
		if !r.append(ctx, t) {
			return
		}
	}

	for {
		if ctx.Err() != nil {
			r.abort()
			return
		}

		state := r.State()
		// The configured policy speaks first; the turn ceiling is only a
		// backstop when no condition fired.
		if reason, done := r.cfg.Termination.Check(state.Transcript, state.TurnCount); done {
			r.finish(ctx, reason)
			return
		}
		if state.TurnCount >= r.cfg.MaxTurns {
			r.finish(ctx, StopReasonMaxTurns)
			return
		}

		p := r.selectParticipant(ctx, state.Transcript)

		produced, err := p.Act(ctx, state.Transcript)
		if ctx.Err() != nil {
			r.abort()
			return
		}
		if err != nil {
			// A failing participant does not abort the run; the
			// failure becomes its visible turn.
			slog.Warn("participant act failed", "run", r.id, "participant", p.ID(), "error", err)
			produced = []Turn{{Content: (&GenerationError{Err: err}).Error()}}
		}

		for _, t := range produced {
			t.Source = p.ID()
			if t.At.IsZero() {
				t.At = time.Now()
			}
			if !r.append(ctx, t) {
				return
			}
		}
	}
}

// append records a turn in the transcript and emits it to the consumer.
// Returns false when the run was cancelled.
func (r *Run) append(ctx context.Context, t Turn) bool {
	r.mu.Lock()
	r.state.Transcript = append(r.state.Transcript, t)
	r.state.TurnCount++
	r.mu.Unlock()

	select {
	case r.turns <- t:
		return true
	case <-ctx.Done():
		r.abort()
		return false
	}
}

func (r *Run) finish(ctx context.Context, reason string) {
	marker := Turn{
		Source:  SourceTermination,
		Content: reason,
		Payload: map[string]any{"stop_reason": reason},
		At:      time.Now(),
	}

	r.mu.Lock()
	r.state.Transcript = append(r.state.Transcript, marker)
	r.state.Terminated = true
	r.state.StopReason = reason
	r.mu.Unlock()

	slog.Info("run finished", "run", r.id, "stop_reason", reason)

	select {
	case r.turns <- marker:
	case <-ctx.Done():
	}
}

func (r *Run) abort() {
	r.mu.Lock()
	r.state.Terminated = true
	r.state.StopReason = StopReasonCancelled
	r.mu.Unlock()
	slog.Info("run cancelled", "run", r.id)
}

// selectParticipant asks the selection policy for the next actor. An
// invalid or failing selection is retried once, then the first roster
// entry is used so the run never blocks on selection.
func (r *Run) selectParticipant(ctx context.Context, transcript []Turn) Participant {
	roster := rosterOf(r.cfg.Participants)

	for attempt := 1; attempt <= 2; attempt++ {
		id, err := r.cfg.Selector.Select(ctx, transcript, roster)
		if err == nil {
			if p, ok := r.byID[strings.TrimSpace(id)]; ok {
				return p
			}
			err = &SelectionError{ID: id}
		}
		slog.Warn("selection failed", "run", r.id, "attempt", attempt, "error", err)
	}

	fallback := r.cfg.Participants[0]
	slog.Warn("selection fell back to first participant", "run", r.id, "participant", fallback.ID())
	return fallback
}
