package team

import (
	"strings"
	"testing"
)

func TestTextMention(t *testing.T) {
	cond := TextMention{Text: "TERMINATE"}

	if _, done := cond.Check(nil, 0); done {
		t.Error("empty transcript should not fire")
	}

	transcript := []Turn{
		{Source: "a", Content: "TERMINATE early"},
		{Source: "b", Content: "still working"},
	}
	if _, done := cond.Check(transcript, 2); done {
		t.Error("mention in an older turn should not fire; only the most recent counts")
	}

	transcript = append(transcript, Turn{Source: "a", Content: "ok TERMINATE"})
	reason, done := cond.Check(transcript, 3)
	if !done {
		t.Fatal("expected mention in last turn to fire")
	}
	if !strings.Contains(reason, "TERMINATE") {
		t.Errorf("expected reason to name the text, got %q", reason)
	}
}

func TestMaxMessages(t *testing.T) {
	cond := MaxMessages{Limit: 3}

	if _, done := cond.Check(nil, 2); done {
		t.Error("should not fire below the limit")
	}
	if _, done := cond.Check(nil, 3); !done {
		t.Error("should fire at the limit")
	}
	if _, done := cond.Check(nil, 10); !done {
		t.Error("should fire above the limit")
	}
}

func TestAnyReportsFirstFiringChild(t *testing.T) {
	transcript := []Turn{{Source: "a", Content: "TERMINATE"}}

	cond := Any(
		TextMention{Text: "never-present"},
		MaxMessages{Limit: 1},
		TextMention{Text: "TERMINATE"},
	)

	reason, done := cond.Check(transcript, 5)
	if !done {
		t.Fatal("expected disjunction to fire")
	}
	// Both MaxMessages and the second TextMention hold; the reason
	// must come from the first child in evaluation order that fired.
	if !strings.Contains(reason, "maximum number of messages") {
		t.Errorf("expected first firing child's reason, got %q", reason)
	}
}

func TestAnyShortCircuits(t *testing.T) {
	fired := false
	tracker := conditionFunc(func([]Turn, int) (string, bool) {
		fired = true
		return "tracked", true
	})

	cond := Any(MaxMessages{Limit: 1}, tracker)
	if _, done := cond.Check(nil, 1); !done {
		t.Fatal("expected disjunction to fire")
	}
	if fired {
		t.Error("children after the first firing one must not be evaluated")
	}
}

type conditionFunc func(transcript []Turn, turnCount int) (string, bool)

func (f conditionFunc) Check(transcript []Turn, turnCount int) (string, bool) {
	return f(transcript, turnCount)
}
