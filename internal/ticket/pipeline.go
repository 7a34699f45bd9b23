package ticket

import (
	"context"
	"fmt"
	"strings"

	"agora/internal/agents"
	"agora/internal/kb"
	"agora/internal/team"
	"agora/internal/tools"
)

// sourceMarker appears in every final answer, so the team terminates
// as soon as either the knowledge base or the web agent produced one.
const sourceMarker = "**Source:**"

const webAgentDirective = `You are an IT support web research agent. The knowledge base had no
answer for the user's issue, so search the web and compose concise
troubleshooting guidance from the results. Start your answer with the
line "**Source:** Web Search" followed by a blank line.`

// kbParticipant answers from the knowledge base and formats hits with
// the category and source header the termination condition keys off.
type kbParticipant struct {
	inner *agents.Retrieval
}

func (p *kbParticipant) ID() string   { return p.inner.ID() }
func (p *kbParticipant) Role() string { return p.inner.Role() }

func (p *kbParticipant) Act(ctx context.Context, transcript []team.Turn) ([]team.Turn, error) {
	turns, err := p.inner.Act(ctx, transcript)
	if err != nil {
		return nil, err
	}

	for i := range turns {
		if turns[i].Content == kb.NotFound {
			continue
		}
		category := categoryOf(transcript)
		turns[i].Content = fmt.Sprintf("**Category:** %s\n**Source:** Knowledge Base\n\n%s",
			category, turns[i].Content)
	}
	return turns, nil
}

func categoryOf(transcript []team.Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if c, ok := transcript[i].Payload["category"].(string); ok {
			return c
		}
	}
	return "Unknown"
}

// newPipeline assembles the support team. The turn order is fixed by
// selection rules: classifier first, then the knowledge base, then the
// web agent only when the knowledge base came up empty.
func (m *Manager) newPipeline() team.RunConfig {
	classifier := agents.NewClassifier("classifier", m.gen)
	knowledge := &kbParticipant{inner: agents.NewRetrieval("kb_agent", m.kb)}

	var searchTools *tools.Set
	if m.search != nil {
		searchTools = tools.NewSet(*m.search)
	}
	web := agents.NewAssistant("web_agent", "web research", webAgentDirective, m.gen, searchTools)

	selector := &team.Rules{
		Rules: []team.Rule{
			{When: lastFrom("classifier"), Pick: "kb_agent"},
			{When: func(transcript []team.Turn) bool {
				last, ok := team.LastTurn(transcript)
				return ok && last.Source == "kb_agent" &&
					strings.Contains(last.Content, kb.NotFound)
			}, Pick: "web_agent"},
		},
		Default: "classifier",
	}

	return team.RunConfig{
		Participants: []team.Participant{classifier, knowledge, web},
		Selector:     selector,
		Termination: team.Any(
			team.TextMention{Text: sourceMarker},
			team.MaxMessages{Limit: m.teams.MaxTurns},
		),
		MaxTurns: m.teams.MaxTurns,
	}
}

func lastFrom(source string) func([]team.Turn) bool {
	return func(transcript []team.Turn) bool {
		last, ok := team.LastTurn(transcript)
		return ok && last.Source == source
	}
}
