package llm

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"agora/internal/config"
)

// Client is the OpenAI-backed Generator.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(cfg config.ModelConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model api key not configured")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:   openai.NewClientWithConfig(oc),
		model: cfg.Name,
	}, nil
}

func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	oreq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(req.Messages),
	}
	for _, def := range req.Tools {
		oreq.Tools = append(oreq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Schema,
			},
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, oreq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	out := &Response{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: []byte(call.Function.Arguments),
		})
	}
	return out, nil
}

// GenerateText is a prompt-in, text-out convenience used by selection
// policies.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Generate(ctx, Request{
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		om := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, call := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
		out = append(out, om)
	}
	return out
}
