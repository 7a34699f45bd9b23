package agents

import (
	"context"
	"fmt"
	"strings"

	"agora/internal/llm"
	"agora/internal/team"
)

// Labels is the closed set of ticket categories the classifier may
// answer with.
var Labels = []string{"Network", "Software", "Access", "Hardware", "Performance", "Security", "Unknown"}

const classifierDirective = `You are an IT support ticket classifier.
Classify the user's issue into exactly one of these categories:
Network, Software, Access, Hardware, Performance, Security.
Respond with ONLY the category name and nothing else.
If the issue does not fit any category, respond with Unknown.`

// Classifier assigns one category label to the latest user query. Any
// answer outside the closed label set collapses to Unknown.
type Classifier struct {
	id  string
	gen llm.Generator
}

func NewClassifier(id string, gen llm.Generator) *Classifier {
	return &Classifier{id: id, gen: gen}
}

func (c *Classifier) ID() string   { return c.id }
func (c *Classifier) Role() string { return "classifier" }

func (c *Classifier) Act(ctx context.Context, transcript []team.Turn) ([]team.Turn, error) {
	query := latestUserContent(transcript)

	resp, err := c.gen.Generate(ctx, llm.Request{Messages: []llm.Message{
		{Role: llm.RoleSystem, Content: classifierDirective},
		{Role: llm.RoleUser, Content: query},
	}})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	label := Normalize(resp.Content)
	return []team.Turn{{
		Content: label,
		Payload: map[string]any{"category": label},
	}}, nil
}

// Normalize trims whitespace and trailing periods from a model answer
// and collapses anything outside the label set to Unknown.
func Normalize(answer string) string {
	label := strings.TrimSpace(answer)
	label = strings.TrimRight(label, ".")
	label = strings.TrimSpace(label)
	for _, l := range Labels {
		if label == l {
			return l
		}
	}
	return "Unknown"
}

func latestUserContent(transcript []team.Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Source == team.SourceUser {
			return transcript[i].Content
		}
	}
	return ""
}
