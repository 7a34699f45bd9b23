package content

import (
	"fmt"
	"sort"
	"strings"

	"agora/internal/agents"
	"agora/internal/team"
)

var displayNames = map[string]string{
	team.SourceUser: "User",
	SearchAgent:     "Search",
	WriterAgent:     "Writer",
	ContentCritic:   "Content Critic",
	SEOCritic:       "SEO Critic",
	EmailAgent:      "Email",
}

// FormatTurn renders a turn for display, one formatted block per turn.
// Critic turns carrying a parsed review get a score breakdown appended.
func FormatTurn(turn team.Turn) string {
	if turn.Source == team.SourceTermination {
		return fmt.Sprintf("**Termination**: %s", turn.Content)
	}

	name, ok := displayNames[turn.Source]
	if !ok {
		name = turn.Source
	}

	out := fmt.Sprintf("**%s**: %s", name, turn.Content)
	if review, ok := turn.Payload["review"].(*agents.Review); ok {
		out += "\n" + formatReview(review)
	}
	return out
}

func formatReview(review *agents.Review) string {
	var sb strings.Builder
	sb.WriteString("Scores:")

	keys := make([]string, 0, len(review.Scores))
	for k := range review.Scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%d", k, review.Scores[k])
	}
	fmt.Fprintf(&sb, " overall=%d approved=%t", review.Overall, review.Approved)
	return sb.String()
}
