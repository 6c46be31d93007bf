package core

import (
	"sort"
	"strings"

	"github.com/mohammad-safakhou/icebreak/internal/helpers"
	"github.com/mohammad-safakhou/icebreak/models"
)

// Platform classification is a suffix match on the result's domain. Known
// non-professional platforms land in Other; the long tail stays Unknown.
var platformDomains = map[string]models.Platform{
	"linkedin.com":       models.PlatformLinkedIn,
	"twitter.com":        models.PlatformTwitter,
	"x.com":              models.PlatformTwitter,
	"github.com":         models.PlatformOther,
	"medium.com":         models.PlatformOther,
	"facebook.com":       models.PlatformOther,
	"instagram.com":      models.PlatformOther,
	"crunchbase.com":     models.PlatformOther,
	"about.me":           models.PlatformOther,
	"scholar.google.com": models.PlatformOther,
	"researchgate.net":   models.PlatformOther,
	"academia.edu":       models.PlatformOther,
}

// Scoring weights. Platform carries the most signal: a LinkedIn hit for a
// person query is nearly always the profile being looked for. With the
// weights below a top-position LinkedIn result whose title matches the full
// name scores exactly 1.0.
const (
	boostLinkedIn = 0.50
	boostTwitter  = 0.40
	boostOther    = 0.25
	boostUnknown  = 0.10

	positionWeight = 0.30
	overlapWeight  = 0.20
)

// The profile cap is the main cost-control lever for the whole pipeline,
// so it is kept in a narrow band regardless of configuration.
const (
	minProfileCap = 3
	maxProfileCap = 5
)

// ClassifyPlatform maps a URL to the platform hosting it.
func ClassifyPlatform(rawURL string) models.Platform {
	domain := helpers.Domain(rawURL)
	if domain == "" {
		return models.PlatformUnknown
	}
	for known, platform := range platformDomains {
		if domain == known || strings.HasSuffix(domain, "."+known) {
			return platform
		}
	}
	return models.PlatformUnknown
}

// Identify classifies and ranks raw search results, returning at most max
// profiles in descending relevance order. It is a pure function over its
// input: no network, no model calls, deterministic for a given input order.
// Ties keep the search provider's ordering.
func Identify(name string, results []models.SearchResult, max int) []models.RankedProfile {
	if max < minProfileCap {
		max = minProfileCap
	}
	if max > maxProfileCap {
		max = maxProfileCap
	}

	nameTokens := tokenize(name)
	profiles := make([]models.RankedProfile, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for i, r := range results {
		if !helpers.IsValidURL(r.URL) {
			continue
		}
		canonical, err := helpers.CanonicalProfileURL(r.URL)
		if err != nil {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}

		platform := ClassifyPlatform(r.URL)
		score := platformBoost(platform)
		score += positionScore(i, len(results))
		score += overlapWeight * tokenOverlap(nameTokens, r.Title+" "+r.Snippet+" "+r.URL)
		if score > 1 {
			score = 1
		}

		profiles = append(profiles, models.RankedProfile{
			URL:            r.URL,
			Platform:       platform,
			Title:          r.Title,
			RelevanceScore: score,
		})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].RelevanceScore > profiles[j].RelevanceScore
	})
	if len(profiles) > max {
		profiles = profiles[:max]
	}
	return profiles
}

func platformBoost(p models.Platform) float64 {
	switch p {
	case models.PlatformLinkedIn:
		return boostLinkedIn
	case models.PlatformTwitter:
		return boostTwitter
	case models.PlatformOther:
		return boostOther
	default:
		return boostUnknown
	}
}

// positionScore decays linearly with rank: the provider's first result gets
// the full weight, the last gets none.
func positionScore(pos, total int) float64 {
	if total <= 1 {
		return positionWeight
	}
	return positionWeight * (1 - float64(pos)/float64(total-1))
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

// tokenOverlap returns the fraction of name tokens present anywhere in the
// candidate text. Substring match on purpose: profile URLs carry slugs like
// "janeroe" that word matching would miss.
func tokenOverlap(tokens []string, text string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	text = strings.ToLower(text)
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}
