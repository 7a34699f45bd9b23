package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"agora/internal/llm"
	"agora/internal/team"
)

// ParseError reports a critic reply that could not be decoded as the
// expected score JSON.
type ParseError struct {
	Agent string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("agent %s: parse critic reply: %v", e.Agent, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Review is the structured verdict a critic produces.
type Review struct {
	Scores   map[string]int `json:"scores"`
	Overall  int            `json:"overall"`
	Feedback string         `json:"feedback"`
	Approved bool           `json:"approved"`
}

// Critic wraps an assistant whose directive demands a JSON verdict.
// The parsed review rides on the turn payload; replies that fail to
// parse pass through as plain text so the run keeps moving.
type Critic struct {
	inner    *Assistant
	approval string
}

// NewCritic builds a critic. approval is the marker the critic appends
// when the work meets its score threshold, for example CONTENT_APPROVED.
func NewCritic(id, role, directive string, gen llm.Generator, approval string) *Critic {
	return &Critic{
		inner:    NewAssistant(id, role, directive, gen, nil),
		approval: approval,
	}
}

func (c *Critic) ID() string   { return c.inner.ID() }
func (c *Critic) Role() string { return c.inner.Role() }

func (c *Critic) Act(ctx context.Context, transcript []team.Turn) ([]team.Turn, error) {
	turns, err := c.inner.Act(ctx, transcript)
	if err != nil {
		return nil, err
	}

	for i := range turns {
		review, parseErr := ParseReview(c.ID(), turns[i].Content)
		if parseErr != nil {
			continue
		}
		if turns[i].Payload == nil {
			turns[i].Payload = map[string]any{}
		}
		turns[i].Payload["review"] = review
		if review.Approved && c.approval != "" && !strings.Contains(turns[i].Content, c.approval) {
			turns[i].Content += "\n" + c.approval
		}
	}
	return turns, nil
}

// ParseReview decodes a critic reply. The JSON object may be wrapped in
// markdown fences or surrounded by prose; the first balanced object in
// the text is taken.
func ParseReview(agent, content string) (*Review, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, &ParseError{Agent: agent, Err: fmt.Errorf("no JSON object in reply")}
	}

	var review Review
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		return nil, &ParseError{Agent: agent, Err: err}
	}
	for _, score := range review.Scores {
		if score < 0 || score > 100 {
			return nil, &ParseError{Agent: agent, Err: fmt.Errorf("score %d out of range", score)}
		}
	}
	return &review, nil
}

func extractJSON(content string) string {
	start := strings.Index(content, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
