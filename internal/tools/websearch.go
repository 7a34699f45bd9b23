package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"agora/internal/config"
)

const serpBaseURL = "https://serpapi.com/search.json"

// WebSearch queries SerpApi and formats the organic results for a
// model to consume.
type WebSearch struct {
	apiKey     string
	maxResults int
	baseURL    string
	client     *http.Client
}

func NewWebSearch(cfg config.SearchConfig) *WebSearch {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearch{
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		baseURL:    serpBaseURL,
		client:     http.DefaultClient,
	}
}

type serpResult struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
	AnswerBox struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
}

// Search runs a web search for the query and returns a formatted
// summary of the top results.
func (w *WebSearch) Search(ctx context.Context, query string) (string, error) {
	if w.apiKey == "" {
		return "", &Error{Tool: "search_topic", Err: fmt.Errorf("search api key not configured")}
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", w.apiKey)
	params.Set("num", strconv.Itoa(w.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", &Error{Tool: "search_topic", Err: err}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", &Error{Tool: "search_topic", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Tool: "search_topic", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var result serpResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &Error{Tool: "search_topic", Err: fmt.Errorf("decode response: %w", err)}
	}
	if result.Error != "" {
		return "", &Error{Tool: "search_topic", Err: fmt.Errorf("serpapi: %s", result.Error)}
	}

	if len(result.OrganicResults) == 0 {
		// Fall back to the answer box when organic results are missing.
		if result.AnswerBox.Snippet != "" {
			return result.AnswerBox.Snippet, nil
		}
		if result.AnswerBox.Title != "" {
			return result.AnswerBox.Title, nil
		}
		return fmt.Sprintf("No web results found for %q. Try rephrasing the query.", query), nil
	}

	var sb strings.Builder
	for i, r := range result.OrganicResults {
		if i >= w.maxResults {
			break
		}
		fmt.Fprintf(&sb, "Source %d:\nTitle: %s\nSnippet: %s\nURL: %s\n\n", i+1, r.Title, r.Snippet, r.Link)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// Spec exposes the search as an invocable tool.
func (w *WebSearch) Spec() Spec {
	return Spec{
		Name:        "search_topic",
		Description: "Searches the web for the given topic and returns the top results.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "The search query"}
			},
			"required": ["query"]
		}`),
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", &Error{Tool: "search_topic", Err: fmt.Errorf("bad arguments: %w", err)}
			}
			if in.Query == "" {
				return "", &Error{Tool: "search_topic", Err: fmt.Errorf("query is required")}
			}
			return w.Search(ctx, in.Query)
		},
	}
}
