package team

import (
	"fmt"
	"strings"
)

// Condition decides whether a run is over. Check is evaluated by the
// orchestrator at the top of every cycle, before the next participant
// is selected.
type Condition interface {
	Check(transcript []Turn, turnCount int) (reason string, done bool)
}

// TextMention fires when the literal text appears in the content of the
// most recent turn.
type TextMention struct {
	Text string
}

func (c TextMention) Check(transcript []Turn, _ int) (string, bool) {
	last, ok := LastTurn(transcript)
	if !ok {
		return "", false
	}
	if !strings.Contains(last.Content, c.Text) {
		return "", false
	}
	return fmt.Sprintf("text %q mentioned", c.Text), true
}

// MaxMessages fires once the turn count reaches the limit.
type MaxMessages struct {
	Limit int
}

func (c MaxMessages) Check(_ []Turn, turnCount int) (string, bool) {
	if turnCount < c.Limit {
		return "", false
	}
	return fmt.Sprintf("maximum number of messages (%d) reached", c.Limit), true
}

// Any fires when any child condition fires. Children are evaluated
// left to right and evaluation short-circuits; the reported reason is
// the first firing child's reason.
func Any(conditions ...Condition) Condition {
	return anyCondition(conditions)
}

type anyCondition []Condition

func (c anyCondition) Check(transcript []Turn, turnCount int) (string, bool) {
	for _, child := range c {
		if reason, done := child.Check(transcript, turnCount); done {
			return reason, true
		}
	}
	return "", false
}
