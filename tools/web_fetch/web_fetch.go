package web_fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/icebreak/models"
	"github.com/mohammad-safakhou/icebreak/tools/web_fetch/browser"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxChars = 4000
)

// Fetcher retrieves the readable text of one ranked profile. Implementations
// never return an error: unreachable pages, bad statuses and unreadable
// content all come back as ScrapedContent with Success=false, so a single
// dead link cannot abort a run.
type Fetcher interface {
	Fetch(ctx context.Context, profile models.RankedProfile) models.ScrapedContent
}

type Mode string

const (
	HTTPMode    Mode = "http"
	BrowserMode Mode = "browser"
)

// Options carries the per-fetch limits shared by all fetcher modes.
type Options struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

// NewFetcher builds a Fetcher for the configured mode. HTTPMode issues plain
// GET requests; BrowserMode renders pages in headless Chrome for profiles
// that require JavaScript.
func NewFetcher(mode Mode, opts Options) (Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}

	switch mode {
	case HTTPMode:
		return &HTTPFetch{Timeout: opts.Timeout, MaxChars: opts.MaxChars, UserAgent: opts.UserAgent}, nil
	case BrowserMode:
		return &browser.Fetch{Timeout: opts.Timeout, MaxChars: opts.MaxChars, UserAgent: opts.UserAgent}, nil
	default:
		return nil, fmt.Errorf("unsupported fetcher mode: %s", mode)
	}
}
