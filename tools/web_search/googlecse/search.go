package googlecse

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

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

type Search struct {
	APIKey   string
	CSEID    string
	Num      int
	Timeout  time.Duration
	Endpoint string // overridable in tests; defaults to the public API
}

func (s Search) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	// https://developers.google.com/custom-search/v1/overview
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", models.ErrInvalidInput)
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	num := s.Num
	if num > 10 {
		num = 10 // CSE caps a single page at 10 items
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", s.APIKey)
	params.Set("cx", s.CSEID)
	params.Set("num", strconv.Itoa(num))

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
		return nil, fmt.Errorf("%w: customsearch status %d", models.ErrSearchProvider, resp.StatusCode)
	}

	var raw struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrSearchProvider, err)
	}

	out := make([]models.SearchResult, 0, len(raw.Items))
	for _, r := range raw.Items {
		out = append(out, models.SearchResult{URL: r.Link, Title: r.Title, Snippet: r.Snippet})
	}
	return out, nil
}
