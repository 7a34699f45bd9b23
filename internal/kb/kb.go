// Package kb loads the plain-text knowledge base and answers queries by
// token-set overlap.
package kb

import (
	"fmt"
	"os"
	"strings"
)

const entrySeparator = "========================================"

// NotFound is the sentinel answer returned when no article scores above
// the similarity threshold.
const NotFound = "No relevant KB article found."

// Article is one knowledge base entry, parsed from KEY: value blocks.
type Article struct {
	Category        string
	Title           string
	Description     string
	Troubleshooting string
	Resolution      string
}

// KB is an in-memory knowledge base searched by Jaccard similarity over
// lower-cased whitespace tokens.
type KB struct {
	articles  []Article
	threshold float64
}

// Load parses the knowledge base file. A missing file yields an empty
// knowledge base rather than an error, matching the collaborator's
// lenient contract: every query then answers NotFound.
func Load(path string, threshold float64) (*KB, error) {
	k := &KB{threshold: threshold}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return k, nil
		}
		return nil, fmt.Errorf("read kb file: %w", err)
	}

	k.articles = Parse(string(data))
	return k, nil
}

// Parse splits the raw text on the entry separator and parses each
// block's KEY: value lines, buffering continuation lines under the last
// seen key. Entries without a CATEGORY and TROUBLESHOOTING STEPS are
// dropped.
func Parse(raw string) []Article {
	var articles []Article

	for _, block := range strings.Split(raw, entrySeparator) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		fields := parseFields(block)
		a := Article{
			Category:        fields["CATEGORY"],
			Title:           fields["TITLE"],
			Description:     fields["DESCRIPTION"],
			Troubleshooting: fields["TROUBLESHOOTING STEPS"],
			Resolution:      fields["RESOLUTION"],
		}
		if a.Category == "" || a.Troubleshooting == "" {
			continue
		}
		articles = append(articles, a)
	}

	return articles
}

func parseFields(block string) map[string]string {
	fields := make(map[string]string)

	var key string
	var buf []string
	flush := func() {
		if key != "" {
			fields[key] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		// Unindented lines containing a colon start a new field.
		if strings.Contains(line, ":") && !strings.HasPrefix(line, " ") {
			flush()
			k, v, _ := strings.Cut(line, ":")
			key = strings.TrimSpace(k)
			buf = []string{strings.TrimSpace(v)}
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return fields
}

// Len reports the number of loaded articles.
func (k *KB) Len() int {
	return len(k.articles)
}

// Result is a scored search outcome.
type Result struct {
	Answer string
	Score  float64
	Found  bool
}

// Search scores every candidate article against the query and returns
// the best match, formatted for display. Candidates are pre-filtered by
// category when one is given; an empty filtered set falls back to the
// whole knowledge base. The best score must strictly exceed the
// threshold; ties keep the first candidate in input order.
func (k *KB) Search(query, category string) Result {
	candidates := k.articles
	if category != "" && category != "Unknown" {
		var filtered []Article
		for _, a := range k.articles {
			if a.Category == category {
				filtered = append(filtered, a)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	queryTokens := tokenize(query)

	var best *Article
	bestScore := 0.0
	for i := range candidates {
		a := &candidates[i]
		// The title is the primary signal; a long description must not
		// dilute a strong title overlap, so each is scored on its own.
		score := jaccard(queryTokens, tokenize(a.Title))
		if desc := jaccard(queryTokens, tokenize(a.Description)); desc > score {
			score = desc
		}
		if score > bestScore {
			bestScore = score
			best = a
		}
	}

	if best == nil || bestScore <= k.threshold {
		return Result{Answer: NotFound}
	}

	answer := fmt.Sprintf("**%s**\n\n%s\n\n**Resolution:** %s",
		best.Title, best.Troubleshooting, best.Resolution)
	return Result{Answer: answer, Score: bestScore, Found: true}
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tokens[tok] = true
	}
	return tokens
}

// jaccard is |intersection| / |union| over the two token sets, 0 when
// both are empty.
func jaccard(a, b map[string]bool) float64 {
	union := len(b)
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
