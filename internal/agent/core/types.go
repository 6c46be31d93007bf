package core

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/icebreak/models"
)

// Searcher is the search capability the orchestrator consumes. Exactly one
// provider-backed implementation is selected at startup.
type Searcher interface {
	// Search queries the configured provider for candidate profile pages.
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Fetcher is the scraping capability. Implementations absorb per-profile
// failures into the returned ScrapedContent instead of erroring, so one
// dead link never aborts a run.
type Fetcher interface {
	Fetch(ctx context.Context, profile models.RankedProfile) models.ScrapedContent
}

// LLMProvider is the generation capability.
type LLMProvider interface {
	// Generate sends one prompt and returns the raw model completion.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the backend in logs and telemetry.
	Name() string
}

// ProcessingStatus reports where an in-flight run currently is. Entries are
// removed when the run returns, so a lookup miss means no active run.
type ProcessingStatus struct {
	Name        string    `json:"name"`
	Phase       string    `json:"phase"`    // starting, searching, identifying, scraping, generating
	Progress    float64   `json:"progress"` // 0.0 to 1.0
	Message     string    `json:"message,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
}
