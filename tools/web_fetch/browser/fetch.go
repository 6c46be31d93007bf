package browser

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/icebreak/internal/helpers"
	"github.com/mohammad-safakhou/icebreak/models"
)

// Fetch renders profile pages in headless Chrome before extraction, for
// hosts that return an empty shell without JavaScript.
type Fetch struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

func (f Fetch) Fetch(ctx context.Context, profile models.RankedProfile) models.ScrapedContent {
	if !helpers.IsValidURL(profile.URL) {
		return failed(profile, "invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	html, err := fetchHTML(ctx, profile.URL, f.UserAgent)
	if err != nil {
		return failed(profile, err.Error())
	}

	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(profile.URL))
	if err != nil {
		return failed(profile, "no readable content")
	}
	text := helpers.Truncate(helpers.CleanText(article.TextContent), f.MaxChars)
	if text == "" {
		return failed(profile, "no readable content")
	}
	return models.ScrapedContent{Source: profile, Text: text, Success: true}
}

func fetchHTML(ctx context.Context, pageURL, userAgent string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
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
