package core

import (
	"strings"
	"testing"

	"github.com/mohammad-safakhou/icebreak/models"
)

func scrapedOK(url, text string) models.ScrapedContent {
	return models.ScrapedContent{
		Source:  models.RankedProfile{URL: url, Platform: models.PlatformLinkedIn, RelevanceScore: 0.9},
		Text:    text,
		Success: true,
	}
}

func TestBuildPromptDegradedWithoutContent(t *testing.T) {
	t.Parallel()
	contents := []models.ScrapedContent{
		{Source: models.RankedProfile{URL: "https://a.example.org"}, Success: false, Error: "timeout"},
		{Source: models.RankedProfile{URL: "https://b.example.org"}, Success: false, Error: "status 403"},
	}
	prompt := BuildPrompt("Jane Roe", contents, 12000)
	if prompt == "" {
		t.Fatal("expected non-empty degraded prompt")
	}
	if !strings.Contains(prompt, "Jane Roe") {
		t.Fatal("degraded prompt must mention the person's name")
	}
	if !strings.Contains(prompt, "No profile content") {
		t.Fatal("degraded prompt must tell the model no content was found")
	}
}

func TestBuildPromptFiltersFailedScrapes(t *testing.T) {
	t.Parallel()
	contents := []models.ScrapedContent{
		scrapedOK("https://www.linkedin.com/in/janeroe", "Jane leads the platform reliability group at Acme."),
		{Source: models.RankedProfile{URL: "https://dead.example.org"}, Text: "SHOULD NOT APPEAR", Success: false, Error: "unreachable"},
	}
	prompt := BuildPrompt("Jane Roe", contents, 12000)
	if !strings.Contains(prompt, "platform reliability group") {
		t.Fatal("prompt missing successful scrape content")
	}
	if strings.Contains(prompt, "SHOULD NOT APPEAR") {
		t.Fatal("prompt must not include failed scrape content")
	}
	if !strings.Contains(prompt, "https://www.linkedin.com/in/janeroe") {
		t.Fatal("prompt must attribute content to its source URL")
	}
}

func TestBuildPromptGreedyBudget(t *testing.T) {
	t.Parallel()
	contents := []models.ScrapedContent{
		scrapedOK("https://first.example.org", strings.Repeat("alpha ", 100)),
		scrapedOK("https://second.example.org", strings.Repeat("beta ", 100)),
	}
	// Budget fits the first source block but not both.
	prompt := BuildPrompt("Jane Roe", contents, 700)
	if !strings.Contains(prompt, "alpha") {
		t.Fatal("highest-relevance source must be included")
	}
	if strings.Contains(prompt, "beta") {
		t.Fatal("second source should not fit in the budget")
	}
}

func TestBuildPromptTruncatesOversizedSingleSource(t *testing.T) {
	t.Parallel()
	contents := []models.ScrapedContent{
		scrapedOK("https://first.example.org", strings.Repeat("word ", 2000)),
	}
	prompt := BuildPrompt("Jane Roe", contents, 500)
	if strings.Contains(prompt, "No profile content") {
		t.Fatal("oversized single source must not degrade the prompt")
	}
	if len(prompt) > 1200 {
		t.Fatalf("prompt not truncated, %d bytes", len(prompt))
	}
}
