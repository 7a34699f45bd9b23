package team

import "context"

// Participant is a role-bound actor that consumes the transcript and
// produces turns. Implementations must not mutate the transcript they
// are given.
//
// An error returned from Act does not abort the run: the orchestrator
// surfaces it as a visible turn attributed to the participant and
// continues.
type Participant interface {
	// ID uniquely identifies the participant within a run.
	ID() string
	// Role is a short description used by selectors to pick the next
	// participant.
	Role() string
	// Act produces zero or more turns given the transcript so far.
	Act(ctx context.Context, transcript []Turn) ([]Turn, error)
}

// RosterEntry describes one participant to a selector.
type RosterEntry struct {
	ID   string
	Role string
}

func rosterOf(participants []Participant) []RosterEntry {
	roster := make([]RosterEntry, 0, len(participants))
	for _, p := range participants {
		roster = append(roster, RosterEntry{ID: p.ID(), Role: p.Role()})
	}
	return roster
}
