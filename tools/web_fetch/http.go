package web_fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/icebreak/internal/helpers"
	"github.com/mohammad-safakhou/icebreak/models"
)

// HTTPFetch retrieves profile pages over plain HTTP with browser-like
// headers. Some profile hosts serve a rendered snippet to crawlers; the
// readable portion is enough for ice-breaker context.
type HTTPFetch struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

func (f HTTPFetch) Fetch(ctx context.Context, profile models.RankedProfile) models.ScrapedContent {
	if !helpers.IsValidURL(profile.URL) {
		return failed(profile, "invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profile.URL, nil)
	if err != nil {
		return failed(profile, err.Error())
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return failed(profile, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failed(profile, fmt.Sprintf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(profile, err.Error())
	}

	text := extract(string(body), profile.URL, f.MaxChars)
	if text == "" {
		return failed(profile, "no readable content")
	}
	return models.ScrapedContent{Source: profile, Text: text, Success: true}
}

// extract pulls the readable article text out of raw HTML, cleans it and
// truncates it at a sentence boundary.
func extract(html, pageURL string, maxChars int) string {
	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(pageURL))
	if err != nil {
		return ""
	}
	text := helpers.CleanText(article.TextContent)
	return helpers.Truncate(text, maxChars)
}

func failed(profile models.RankedProfile, reason string) models.ScrapedContent {
	return models.ScrapedContent{Source: profile, Success: false, Error: reason}
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
