package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agora/internal/config"
)

func TestSetDeduplicatesAndOrders(t *testing.T) {
	invoked := ""
	spec := func(name string) Spec {
		return Spec{
			Name: name,
			Invoke: func(context.Context, json.RawMessage) (string, error) {
				invoked = name
				return "ok", nil
			},
		}
	}

	s := NewSet(spec("search_topic"), spec("send_email"), spec("search_topic"))
	if s.Len() != 2 {
		t.Fatalf("expected 2 tools, got %d", s.Len())
	}

	all := s.All()
	if all[0].Name != "search_topic" || all[1].Name != "send_email" {
		t.Errorf("expected registration order preserved, got %s, %s", all[0].Name, all[1].Name)
	}

	got, ok := s.Get("send_email")
	if !ok {
		t.Fatal("expected send_email in set")
	}
	if _, err := got.Invoke(context.Background(), nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if invoked != "send_email" {
		t.Errorf("expected send_email invoked, got %q", invoked)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("expected missing tool to not be found")
	}
}

func TestWebSearchFormatsOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "printer offline" {
			t.Errorf("expected query 'printer offline', got %q", got)
		}
		_, _ = w.Write([]byte(`{
			"organic_results": [
				{"title": "Fix printers", "snippet": "Turn it off and on", "link": "https://example.com/a"},
				{"title": "More fixes", "snippet": "Check the cable", "link": "https://example.com/b"}
			]
		}`))
	}))
	defer srv.Close()

	w := NewWebSearch(config.SearchConfig{APIKey: "k", MaxResults: 3})
	w.baseURL = srv.URL

	out, err := w.Search(context.Background(), "printer offline")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, fragment := range []string{"Source 1:", "Fix printers", "https://example.com/b"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("expected output to contain %q, got:\n%s", fragment, out)
		}
	}
}

func TestWebSearchAnswerBoxFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer_box": {"title": "Answer", "snippet": "42"}}`))
	}))
	defer srv.Close()

	w := NewWebSearch(config.SearchConfig{APIKey: "k"})
	w.baseURL = srv.URL

	out, err := w.Search(context.Background(), "meaning of life")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if out != "42" {
		t.Errorf("expected answer box snippet, got %q", out)
	}
}

func TestWebSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	w := NewWebSearch(config.SearchConfig{APIKey: "bad"})
	w.baseURL = srv.URL

	_, err := w.Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected tools.Error, got %T", err)
	}
	if toolErr.Tool != "search_topic" {
		t.Errorf("expected tool name search_topic, got %q", toolErr.Tool)
	}
}

func TestWebSearchSpecValidatesArguments(t *testing.T) {
	w := NewWebSearch(config.SearchConfig{APIKey: "k"})
	spec := w.Spec()

	if _, err := spec.Invoke(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing query")
	}
	if _, err := spec.Invoke(context.Background(), json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for malformed arguments")
	}
}

func TestMailerRequiresCredentials(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Server: "smtp.example.com", Port: 587})

	err := m.Send(context.Background(), "user@example.com", "subject", "body")
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected tools.Error, got %T", err)
	}
}
