package kb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleKB = `CATEGORY: Hardware
TITLE: Printer troubleshooting offline issues
DESCRIPTION: Steps for when a printer shows offline or unreachable
TROUBLESHOOTING STEPS:
1. Check the printer power cable
2. Restart the print spooler service
RESOLUTION: Printer reconnects after spooler restart
========================================
CATEGORY: Network
TITLE: VPN connection drops
DESCRIPTION: Remote VPN disconnects intermittently
TROUBLESHOOTING STEPS:
1. Verify the VPN client version
2. Switch to a wired connection
RESOLUTION: Update the VPN client
========================================
CATEGORY: Software
TITLE: Missing troubleshooting steps entry
DESCRIPTION: This entry is incomplete and must be dropped
RESOLUTION: n/a
`

func newTestKB(t *testing.T, threshold float64) *KB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kb.txt")
	if err := os.WriteFile(path, []byte(sampleKB), 0o644); err != nil {
		t.Fatalf("write kb file: %v", err)
	}

	k, err := Load(path, threshold)
	if err != nil {
		t.Fatalf("load kb: %v", err)
	}
	return k
}

func TestParseDropsIncompleteEntries(t *testing.T) {
	k := newTestKB(t, 0.2)
	if k.Len() != 2 {
		t.Fatalf("expected 2 articles, got %d", k.Len())
	}
}

func TestParseMultilineFields(t *testing.T) {
	articles := Parse(sampleKB)
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	steps := articles[0].Troubleshooting
	if !strings.Contains(steps, "power cable") || !strings.Contains(steps, "spooler service") {
		t.Fatalf("troubleshooting steps not joined across lines: %q", steps)
	}
}

func TestSearchFindsOverlappingArticle(t *testing.T) {
	k := newTestKB(t, 0.2)

	res := k.Search("printer offline", "")
	if !res.Found {
		t.Fatalf("expected a match, got %q", res.Answer)
	}
	if res.Score <= 0.2 {
		t.Fatalf("expected score above threshold, got %f", res.Score)
	}
	if !strings.Contains(res.Answer, "Printer troubleshooting offline issues") {
		t.Fatalf("answer missing title: %q", res.Answer)
	}
	if !strings.Contains(res.Answer, "**Resolution:**") {
		t.Fatalf("answer missing resolution section: %q", res.Answer)
	}
}

func TestSearchWordyDescriptionKeepsTitleScore(t *testing.T) {
	// A verbose description must not drag a strong title overlap under
	// the threshold.
	wordy := `CATEGORY: Hardware
TITLE: Printer troubleshooting offline issues
DESCRIPTION: This long article covers many different situations where various network attached printing devices report assorted error conditions to their users
TROUBLESHOOTING STEPS:
1. Check the cable
RESOLUTION: Reconnect
`
	path := filepath.Join(t.TempDir(), "kb.txt")
	if err := os.WriteFile(path, []byte(wordy), 0o644); err != nil {
		t.Fatalf("write kb file: %v", err)
	}
	k, err := Load(path, 0.2)
	if err != nil {
		t.Fatalf("load kb: %v", err)
	}

	res := k.Search("printer offline", "")
	if !res.Found {
		t.Fatalf("expected a match, got %q", res.Answer)
	}
	if res.Score != 0.5 {
		t.Errorf("expected title score 0.5, got %f", res.Score)
	}
}

func TestSearchMatchesOnDescription(t *testing.T) {
	k := newTestKB(t, 0.2)

	res := k.Search("printer shows unreachable", "")
	if !res.Found {
		t.Fatalf("expected description overlap to match, got %q", res.Answer)
	}
	if !strings.Contains(res.Answer, "Printer troubleshooting offline issues") {
		t.Fatalf("wrong article: %q", res.Answer)
	}
}

func TestSearchReturnsSentinelBelowThreshold(t *testing.T) {
	k := newTestKB(t, 0.2)

	res := k.Search("xyz unrelated", "")
	if res.Found {
		t.Fatalf("expected no match, got %q", res.Answer)
	}
	if res.Answer != NotFound {
		t.Fatalf("expected sentinel answer, got %q", res.Answer)
	}
}

func TestSearchCategoryFilter(t *testing.T) {
	k := newTestKB(t, 0.1)

	res := k.Search("printer offline", "Network")
	if res.Found && strings.Contains(res.Answer, "Printer troubleshooting") {
		t.Fatalf("hardware article matched under network filter: %q", res.Answer)
	}
}

func TestSearchUnknownCategorySearchesAll(t *testing.T) {
	k := newTestKB(t, 0.2)

	res := k.Search("printer offline", "Unknown")
	if !res.Found {
		t.Fatalf("expected unknown category to search all articles, got %q", res.Answer)
	}
}

func TestSearchEmptyCategoryFallback(t *testing.T) {
	k := newTestKB(t, 0.1)

	// no article carries this category so the filter falls back to all
	res := k.Search("printer offline", "Performance")
	if !res.Found {
		t.Fatalf("expected fallback to full kb, got %q", res.Answer)
	}
}

func TestJaccardEmptySets(t *testing.T) {
	if score := jaccard(tokenize(""), tokenize("")); score != 0 {
		t.Fatalf("expected 0 for empty sets, got %f", score)
	}
}

func TestLoadMissingFile(t *testing.T) {
	k, err := Load(filepath.Join(t.TempDir(), "absent.txt"), 0.2)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if res := k.Search("anything", ""); res.Answer != NotFound {
		t.Fatalf("empty kb should answer sentinel, got %q", res.Answer)
	}
}
