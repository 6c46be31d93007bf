package web_search

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/icebreak/models"
	"github.com/mohammad-safakhou/icebreak/tools/web_search/googlecse"
	"github.com/mohammad-safakhou/icebreak/tools/web_search/serpapi"
)

// WebSearcher queries an external search provider for a person's name.
// Implementations make exactly one outbound call per invocation and do no
// caching. An empty result list is a valid outcome; provider failures are
// reported as models.ErrSearchProvider so callers can distinguish "nothing
// found" from "provider down".
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

type Provider string

const (
	SerpAPIProvider   Provider = "serpapi"
	GoogleCSEProvider Provider = "googlecse"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// Options carries provider credentials and request bounds. Which fields are
// required depends on the provider.
type Options struct {
	APIKey     string        // serpapi key, or google api key for googlecse
	CSEID      string        // google custom search engine id
	MaxResults int
	Timeout    time.Duration
}

// NewWebSearcher selects the configured provider. Selection is a
// deployment-time choice; exactly one provider serves a process.
func NewWebSearcher(provider Provider, opts Options) (WebSearcher, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	switch provider {
	case SerpAPIProvider:
		if opts.APIKey == "" {
			return nil, errors.New("serpapi: api key required")
		}
		return serpapi.Search{APIKey: opts.APIKey, Num: opts.MaxResults, Timeout: opts.Timeout}, nil
	case GoogleCSEProvider:
		if opts.APIKey == "" || opts.CSEID == "" {
			return nil, errors.New("googlecse: api key and cse id required")
		}
		return googlecse.Search{APIKey: opts.APIKey, CSEID: opts.CSEID, Num: opts.MaxResults, Timeout: opts.Timeout}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
