package core

import (
	"testing"

	"github.com/mohammad-safakhou/icebreak/models"
)

func TestClassifyPlatform(t *testing.T) {
	t.Parallel()
	cases := []struct {
		url  string
		want models.Platform
	}{
		{"https://www.linkedin.com/in/janeroe", models.PlatformLinkedIn},
		{"https://twitter.com/janeroe", models.PlatformTwitter},
		{"https://mobile.twitter.com/janeroe", models.PlatformTwitter},
		{"https://x.com/janeroe", models.PlatformTwitter},
		{"https://github.com/janeroe", models.PlatformOther},
		{"https://medium.com/@janeroe", models.PlatformOther},
		{"https://janeroe.example.org/about", models.PlatformUnknown},
		{"not a url", models.PlatformUnknown},
	}
	for _, c := range cases {
		if got := ClassifyPlatform(c.url); got != c.want {
			t.Errorf("ClassifyPlatform(%q) = %s, want %s", c.url, got, c.want)
		}
	}
}

func TestIdentifyRanksLinkedInFirst(t *testing.T) {
	t.Parallel()
	results := []models.SearchResult{
		{URL: "https://sourdough.example.org/starter", Title: "Best sourdough recipes", Snippet: "A baking blog"},
		{URL: "https://www.linkedin.com/in/janeroe", Title: "Jane Roe | LinkedIn", Snippet: "Engineer at Acme"},
	}

	profiles := Identify("Jane Roe", results, 5)
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Platform != models.PlatformLinkedIn {
		t.Fatalf("expected LinkedIn ranked first, got %s", profiles[0].Platform)
	}
	if profiles[0].RelevanceScore <= profiles[1].RelevanceScore {
		t.Fatalf("scores not descending: %f then %f", profiles[0].RelevanceScore, profiles[1].RelevanceScore)
	}
	for _, p := range profiles {
		if p.RelevanceScore < 0 || p.RelevanceScore > 1 {
			t.Fatalf("score out of [0,1]: %f", p.RelevanceScore)
		}
	}
}

func TestIdentifyCapsProfileCount(t *testing.T) {
	t.Parallel()
	var results []models.SearchResult
	for _, u := range []string{
		"https://a.example.org/1", "https://b.example.org/2", "https://c.example.org/3",
		"https://d.example.org/4", "https://e.example.org/5", "https://f.example.org/6",
		"https://g.example.org/7", "https://h.example.org/8",
	} {
		results = append(results, models.SearchResult{URL: u, Title: "Jane Roe"})
	}

	if got := Identify("Jane Roe", results, 5); len(got) != 5 {
		t.Fatalf("cap 5: got %d profiles", len(got))
	}
	// Out-of-band caps are clamped rather than honored.
	if got := Identify("Jane Roe", results, 50); len(got) != 5 {
		t.Fatalf("cap clamped high: got %d profiles", len(got))
	}
	if got := Identify("Jane Roe", results, 1); len(got) != 3 {
		t.Fatalf("cap clamped low: got %d profiles", len(got))
	}
}

func TestIdentifyPreservesProviderOrderOnEqualSignal(t *testing.T) {
	t.Parallel()
	// Same platform, no name overlap: only position separates them, so the
	// provider's order must survive ranking.
	results := []models.SearchResult{
		{URL: "https://first.example.org/a", Title: "alpha"},
		{URL: "https://second.example.org/b", Title: "beta"},
		{URL: "https://third.example.org/c", Title: "gamma"},
	}
	profiles := Identify("Jane Roe", results, 5)
	if len(profiles) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(profiles))
	}
	for i, want := range []string{"https://first.example.org/a", "https://second.example.org/b", "https://third.example.org/c"} {
		if profiles[i].URL != want {
			t.Fatalf("position %d: got %s, want %s", i, profiles[i].URL, want)
		}
	}
}

func TestIdentifyDeduplicates(t *testing.T) {
	t.Parallel()
	results := []models.SearchResult{
		{URL: "https://www.linkedin.com/in/janeroe", Title: "Jane Roe | LinkedIn"},
		{URL: "https://www.linkedin.com/in/janeroe?utm_source=newsletter", Title: "Jane Roe | LinkedIn"},
		{URL: "https://www.linkedin.com/in/janeroe/", Title: "Jane Roe | LinkedIn"},
	}
	if got := Identify("Jane Roe", results, 5); len(got) != 1 {
		t.Fatalf("expected duplicates collapsed to 1, got %d", len(got))
	}
}

func TestIdentifySkipsInvalidURLs(t *testing.T) {
	t.Parallel()
	results := []models.SearchResult{
		{URL: "ftp://example.org/file", Title: "Jane Roe"},
		{URL: "", Title: "Jane Roe"},
		{URL: "https://www.linkedin.com/in/janeroe", Title: "Jane Roe | LinkedIn"},
	}
	got := Identify("Jane Roe", results, 5)
	if len(got) != 1 || got[0].Platform != models.PlatformLinkedIn {
		t.Fatalf("expected only the LinkedIn profile, got %+v", got)
	}
}
