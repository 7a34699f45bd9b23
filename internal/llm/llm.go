// Package llm wraps the chat-completion capability the agents consume:
// generate text given a transcript and a role directive, optionally
// requesting tool invocations.
package llm

import (
	"context"
	"encoding/json"
)

// Message roles on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role    string
	Content string
	// Name attributes the message to a speaker in multi-agent
	// transcripts.
	Name string
	// ToolCallID links a RoleTool message to the call it answers.
	ToolCallID string
	// ToolCalls carries the calls requested by an assistant message.
	ToolCalls []ToolCall
}

// ToolDef declares an invocable tool to the model.
type ToolDef struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

type Request struct {
	Messages []Message
	Tools    []ToolDef
}

type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Generator is the opaque generation capability. Implementations fail
// with a plain error on transport or quota problems; callers decide how
// the failure surfaces.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
