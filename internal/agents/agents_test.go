package agents

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"agora/internal/llm"
	"agora/internal/team"
	"agora/internal/tools"
)

// fakeGenerator replays canned responses in order and records requests.
type fakeGenerator struct {
	responses []*llm.Response
	requests  []llm.Request
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &llm.Response{Content: "out of responses"}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func userTurn(content string) team.Turn {
	return team.Turn{Source: team.SourceUser, Content: content}
}

func TestAssistantPlainReply(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{{Content: "hello"}}}
	a := NewAssistant("helper", "helper", "be helpful", gen, nil)

	turns, err := a.Act(context.Background(), []team.Turn{userTurn("hi")})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "hello" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
	if gen.requests[0].Messages[0].Role != llm.RoleSystem {
		t.Fatal("directive not sent as system message")
	}
}

func TestAssistantResolvesToolCalls(t *testing.T) {
	set := tools.NewSet(tools.Spec{
		Name: "lookup",
		Invoke: func(_ context.Context, args json.RawMessage) (string, error) {
			return "tool says: " + string(args), nil
		},
	})
	gen := &fakeGenerator{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "lookup", Arguments: json.RawMessage(`"x"`)}}},
		{Content: "final answer"},
	}}
	a := NewAssistant("helper", "helper", "be helpful", gen, set)

	turns, err := a.Act(context.Background(), []team.Turn{userTurn("hi")})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if turns[0].Content != "final answer" {
		t.Fatalf("expected final answer, got %q", turns[0].Content)
	}

	second := gen.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || !strings.Contains(last.Content, "tool says:") {
		t.Fatalf("tool result not fed back: %+v", last)
	}
}

func TestAssistantFoldsToolErrors(t *testing.T) {
	set := tools.NewSet(tools.Spec{
		Name: "broken",
		Invoke: func(context.Context, json.RawMessage) (string, error) {
			return "", &tools.Error{Tool: "broken", Err: errors.New("boom")}
		},
	})
	gen := &fakeGenerator{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "broken"}}},
		{Content: "recovered"},
	}}
	a := NewAssistant("helper", "helper", "be helpful", gen, set)

	turns, err := a.Act(context.Background(), []team.Turn{userTurn("hi")})
	if err != nil {
		t.Fatalf("tool failure must not abort the act: %v", err)
	}
	if turns[0].Payload["tool_error"] == nil {
		t.Fatal("expected tool_error in payload")
	}

	second := gen.requests[1].Messages
	last := second[len(second)-1]
	if !strings.Contains(last.Content, "boom") {
		t.Fatalf("error not folded into tool result: %q", last.Content)
	}
}

func TestAssistantUnknownTool(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "ghost"}}},
		{Content: "done"},
	}}
	a := NewAssistant("helper", "helper", "be helpful", gen, tools.NewSet())

	turns, err := a.Act(context.Background(), []team.Turn{userTurn("hi")})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if turns[0].Payload["tool_error"] == nil {
		t.Fatal("expected tool_error for unknown tool")
	}
}

func TestClassifierNormalize(t *testing.T) {
	cases := []struct {
		answer string
		want   string
	}{
		{"Hardware", "Hardware"},
		{"  Hardware.  ", "Hardware"},
		{"Hardware..", "Hardware"},
		{"hardware", "Unknown"},
		{"Something else", "Unknown"},
		{"", "Unknown"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.answer); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.answer, got, tc.want)
		}
	}
}

func TestClassifierAct(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{{Content: "Network."}}}
	c := NewClassifier("classifier", gen)

	turns, err := c.Act(context.Background(), []team.Turn{userTurn("vpn keeps dropping")})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if turns[0].Content != "Network" {
		t.Fatalf("expected Network, got %q", turns[0].Content)
	}
	if turns[0].Payload["category"] != "Network" {
		t.Fatalf("category missing from payload: %+v", turns[0].Payload)
	}
}

func TestCriticParsesReview(t *testing.T) {
	reply := "Here is my verdict:\n```json\n" +
		`{"scores":{"clarity":95,"depth":92},"overall":93,"feedback":"solid","approved":true}` +
		"\n```"
	gen := &fakeGenerator{responses: []*llm.Response{{Content: reply}}}
	c := NewCritic("content_critic_agent", "content critic", "score the draft", gen, "CONTENT_APPROVED")

	turns, err := c.Act(context.Background(), []team.Turn{userTurn("draft")})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	review, ok := turns[0].Payload["review"].(*Review)
	if !ok {
		t.Fatalf("review missing from payload: %+v", turns[0].Payload)
	}
	if review.Overall != 93 || !review.Approved {
		t.Fatalf("unexpected review: %+v", review)
	}
	if !strings.Contains(turns[0].Content, "CONTENT_APPROVED") {
		t.Fatal("approval marker not appended")
	}
}

func TestCriticPassesThroughUnparseableReply(t *testing.T) {
	gen := &fakeGenerator{responses: []*llm.Response{{Content: "needs more work on the intro"}}}
	c := NewCritic("content_critic_agent", "content critic", "score the draft", gen, "CONTENT_APPROVED")

	turns, err := c.Act(context.Background(), []team.Turn{userTurn("draft")})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if turns[0].Content != "needs more work on the intro" {
		t.Fatalf("raw text not passed through: %q", turns[0].Content)
	}
	if _, ok := turns[0].Payload["review"]; ok {
		t.Fatal("unparseable reply must not carry a review")
	}
}

func TestParseReviewRejectsOutOfRangeScores(t *testing.T) {
	_, err := ParseReview("critic", `{"scores":{"clarity":120},"overall":120}`)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
