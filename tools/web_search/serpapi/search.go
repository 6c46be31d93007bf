package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/icebreak/models"
)

const defaultEndpoint = "https://serpapi.com/search"

type Search struct {
	APIKey   string
	Num      int
	Timeout  time.Duration
	Endpoint string // overridable in tests; defaults to the public API
}

func (s Search) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	// https://serpapi.com/search-api
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", models.ErrInvalidInput)
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", s.APIKey)
	params.Set("num", strconv.Itoa(s.Num))
	params.Set("gl", "us")
	params.Set("hl", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSearchProvider, err)
	}
	client := &http.Client{Timeout: s.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSearchProvider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: serpapi status %d", models.ErrSearchProvider, resp.StatusCode)
	}

	var raw struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrSearchProvider, err)
	}

	out := make([]models.SearchResult, 0, len(raw.OrganicResults))
	for i, r := range raw.OrganicResults {
		if i >= s.Num {
			break
		}
		out = append(out, models.SearchResult{URL: r.Link, Title: r.Title, Snippet: r.Snippet})
	}
	return out, nil
}
