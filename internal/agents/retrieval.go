package agents

import (
	"context"

	"agora/internal/kb"
	"agora/internal/team"
)

// Retrieval answers the latest user query from the knowledge base,
// narrowed by the most recent category label when one is present in
// the transcript.
type Retrieval struct {
	id string
	kb *kb.KB
}

func NewRetrieval(id string, knowledge *kb.KB) *Retrieval {
	return &Retrieval{id: id, kb: knowledge}
}

func (r *Retrieval) ID() string   { return r.id }
func (r *Retrieval) Role() string { return "knowledge base" }

func (r *Retrieval) Act(ctx context.Context, transcript []team.Turn) ([]team.Turn, error) {
	query := latestUserContent(transcript)
	category := latestCategory(transcript)

	res := r.kb.Search(query, category)
	turn := team.Turn{Content: res.Answer}
	if res.Found {
		turn.Payload = map[string]any{"score": res.Score}
	}
	return []team.Turn{turn}, nil
}

func latestCategory(transcript []team.Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if c, ok := transcript[i].Payload["category"].(string); ok {
			return c
		}
	}
	return ""
}
