// Package agents provides the model-backed participants that teams are
// assembled from.
package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"agora/internal/llm"
	"agora/internal/team"
	"agora/internal/tools"
)

// Assistant is a model-backed participant with an optional tool set.
// When the model requests tool calls, the assistant invokes them
// synchronously, feeds the results back, and returns only the final
// text as a turn.
type Assistant struct {
	id        string
	role      string
	directive string
	gen       llm.Generator
	tools     *tools.Set
}

// NewAssistant builds an assistant. The tool set may be nil.
func NewAssistant(id, role, directive string, gen llm.Generator, ts *tools.Set) *Assistant {
	return &Assistant{id: id, role: role, directive: directive, gen: gen, tools: ts}
}

func (a *Assistant) ID() string   { return a.id }
func (a *Assistant) Role() string { return a.role }

// Act runs one generation round, resolving at most one batch of tool
// calls before the closing generation.
func (a *Assistant) Act(ctx context.Context, transcript []team.Turn) ([]team.Turn, error) {
	messages := a.buildMessages(transcript)

	resp, err := a.gen.Generate(ctx, llm.Request{Messages: messages, Tools: a.toolDefs()})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	if len(resp.ToolCalls) == 0 {
		return []team.Turn{{Content: resp.Content}}, nil
	}

	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})

	payload := map[string]any{}
	for _, call := range resp.ToolCalls {
		result, invokeErr := a.invoke(ctx, call)
		if invokeErr != nil {
			// Tool failures become replies the model can work with
			// instead of aborting the run.
			var toolErr *tools.Error
			if !errors.As(invokeErr, &toolErr) {
				toolErr = &tools.Error{Tool: call.Name, Err: invokeErr}
			}
			result = toolErr.Error()
			payload["tool_error"] = toolErr.Error()
			slog.Warn("tool call failed", "agent", a.id, "tool", call.Name, "error", invokeErr)
		}
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			Name:       call.Name,
			ToolCallID: call.ID,
		})
	}

	final, err := a.gen.Generate(ctx, llm.Request{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("generate after tools: %w", err)
	}

	turn := team.Turn{Content: final.Content}
	if len(payload) > 0 {
		turn.Payload = payload
	}
	return []team.Turn{turn}, nil
}

func (a *Assistant) invoke(ctx context.Context, call llm.ToolCall) (string, error) {
	if a.tools == nil {
		return "", &tools.Error{Tool: call.Name, Err: errors.New("no tools registered")}
	}
	spec, ok := a.tools.Get(call.Name)
	if !ok {
		return "", &tools.Error{Tool: call.Name, Err: errors.New("unknown tool")}
	}
	return spec.Invoke(ctx, call.Arguments)
}

func (a *Assistant) toolDefs() []llm.ToolDef {
	if a.tools == nil {
		return nil
	}
	var defs []llm.ToolDef
	for _, spec := range a.tools.All() {
		defs = append(defs, llm.ToolDef{
			Name:        spec.Name,
			Description: spec.Description,
			Schema:      spec.Schema,
		})
	}
	return defs
}

// buildMessages maps the shared transcript onto a chat history from
// this assistant's point of view: its own turns become assistant
// messages, everyone else's become user messages prefixed with the
// source name.
func (a *Assistant) buildMessages(transcript []team.Turn) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: a.directive}}
	for _, turn := range transcript {
		if turn.Source == team.SourceTermination {
			continue
		}
		if turn.Source == a.id {
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: turn.Content})
			continue
		}
		content := turn.Content
		if turn.Source != team.SourceUser {
			content = fmt.Sprintf("%s: %s", turn.Source, turn.Content)
		}
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: content})
	}
	return messages
}
