package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/internal/agent/telemetry"
	"github.com/mohammad-safakhou/icebreak/models"
	"github.com/mohammad-safakhou/icebreak/provider"
	"github.com/mohammad-safakhou/icebreak/tools/web_fetch"
	"github.com/mohammad-safakhou/icebreak/tools/web_search"
)

const searchBackoff = 300 * time.Millisecond

// Orchestrator sequences search, ranking, scraping and generation for one
// person name under the run's iteration and wall-clock budgets.
type Orchestrator struct {
	logger    *log.Logger
	telemetry *telemetry.Telemetry

	searcher Searcher
	fetcher  Fetcher
	llm      LLMProvider

	mu         sync.RWMutex
	processing map[string]*ProcessingStatus

	scrapePolicy      config.ScrapePolicyConfig
	maxProfiles       int
	scrapeConcurrency int
	searchRetries     int
	maxIterations     int
	maxExecutionTime  time.Duration
	promptBudget      int
}

// NewOrchestrator creates an orchestrator with the configured search
// provider, fetcher mode and LLM backend.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, tel *telemetry.Telemetry) (*Orchestrator, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}

	if err := cfg.Search.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), web_search.Options{
		APIKey:     searchAPIKey(cfg.Search),
		CSEID:      cfg.Search.GoogleCSEID,
		MaxResults: cfg.Search.MaxResults,
		Timeout:    cfg.Search.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search tool: %w", err)
	}

	fetcher, err := web_fetch.NewFetcher(web_fetch.Mode(cfg.Scrape.Mode), web_fetch.Options{
		Timeout:   cfg.Scrape.Timeout,
		MaxChars:  cfg.Scrape.MaxContentChars,
		UserAgent: cfg.Scrape.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	agentCfg := cfg.Agent.Normalize()
	identifyCfg := cfg.Identify.Normalize()

	return &Orchestrator{
		logger:            logger,
		telemetry:         tel,
		searcher:          searcher,
		fetcher:           fetcher,
		llm:               llm,
		processing:        make(map[string]*ProcessingStatus),
		scrapePolicy:      cfg.Scrape.Policy.Normalize(),
		maxProfiles:       identifyCfg.MaxProfiles,
		scrapeConcurrency: cfg.Scrape.Concurrency,
		searchRetries:     cfg.Search.Retries,
		maxIterations:     agentCfg.MaxIterations,
		maxExecutionTime:  agentCfg.MaxExecutionTime,
		promptBudget:      agentCfg.PromptCharBudget,
	}, nil
}

func searchAPIKey(cfg config.SearchConfig) string {
	if cfg.Provider == "googlecse" {
		return cfg.GoogleAPIKey
	}
	return cfg.SerpAPIKey
}

// GenerateIceBreakers runs the full pipeline: search, identify, scrape,
// prompt, generate, parse. The wall-clock budget is checked at every state
// transition; exceeding it fails the run with ErrTimeoutExceeded no matter
// which state it was in.
func (o *Orchestrator) GenerateIceBreakers(ctx context.Context, name string) (result models.IceBreakerResult, err error) {
	start := time.Now()

	name = strings.TrimSpace(name)
	if verr := ValidateName(name); verr != nil {
		return models.IceBreakerResult{}, verr
	}

	status := &ProcessingStatus{Name: name, Phase: "starting", StartedAt: start, LastUpdated: start}
	o.mu.Lock()
	o.processing[name] = status
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		if o.processing[name] == status {
			delete(o.processing, name)
		}
		o.mu.Unlock()
	}()

	event := telemetry.RunEvent{Name: name, Backend: o.llm.Name(), StartTime: start}
	defer func() {
		event.Duration = time.Since(start)
		event.Success = err == nil
		if err != nil {
			event.Error = err.Error()
		}
		o.telemetry.RecordRun(event)
	}()

	ctx, cancel := context.WithTimeout(ctx, o.maxExecutionTime)
	defer cancel()

	o.logger.Printf("starting run for %q", name)

	o.updateStatus(status, "searching", 0.1, "querying search provider")
	results, err := o.searchWithRetry(ctx, name)
	if err != nil {
		if berr := o.checkBudget(start); berr != nil {
			return models.IceBreakerResult{}, berr
		}
		return models.IceBreakerResult{}, err
	}
	if err = o.checkBudget(start); err != nil {
		return models.IceBreakerResult{}, err
	}

	o.updateStatus(status, "identifying", 0.35, "ranking candidate profiles")
	profiles := Identify(name, results, o.maxProfiles)
	event.ProfilesFound = len(profiles)
	o.logger.Printf("identified %d candidate profiles for %q", len(profiles), name)
	if err = o.checkBudget(start); err != nil {
		return models.IceBreakerResult{}, err
	}

	o.updateStatus(status, "scraping", 0.5, fmt.Sprintf("fetching %d profiles", len(profiles)))
	scraped := o.scrapeAll(ctx, profiles)
	for _, s := range scraped {
		if s.Success {
			event.ScrapesSucceeded++
		} else {
			event.ScrapesFailed++
		}
	}
	if err = o.checkBudget(start); err != nil {
		return models.IceBreakerResult{}, err
	}

	o.updateStatus(status, "generating", 0.8, "prompting the model")
	breakers, attempts, err := o.generate(ctx, name, scraped, start)
	event.Attempts = attempts
	if err != nil {
		return models.IceBreakerResult{}, err
	}
	o.logger.Printf("generated %d ice breakers for %q in %d attempt(s)", len(breakers), name, attempts)

	return models.IceBreakerResult{
		IceBreakers:   breakers,
		Sources:       profiles,
		ExecutionTime: time.Since(start).Seconds(),
	}, nil
}

// searchWithRetry retries provider failures with exponential backoff.
// Invalid-input errors are not retried.
func (o *Orchestrator) searchWithRetry(ctx context.Context, name string) ([]models.SearchResult, error) {
	var lastErr error
	tries := o.searchRetries + 1
	for attempt := 0; attempt < tries; attempt++ {
		results, err := o.searcher.Search(ctx, name)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !errors.Is(err, models.ErrSearchProvider) {
			return nil, err
		}
		if attempt < tries-1 {
			o.logger.Printf("search attempt %d/%d failed: %v", attempt+1, tries, err)
			select {
			case <-time.After(searchBackoff * time.Duration(1<<attempt)):
			case <-ctx.Done():
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

// scrapeAll fetches every profile concurrently. The returned slice keeps
// relevance order regardless of which fetch finished first; failures and
// policy-blocked hosts come back as Success=false entries.
func (o *Orchestrator) scrapeAll(ctx context.Context, profiles []models.RankedProfile) []models.ScrapedContent {
	limit := o.scrapeConcurrency
	if limit <= 0 {
		limit = 1
	}

	scraped := make([]models.ScrapedContent, len(profiles))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, p := range profiles {
		wg.Add(1)
		go func(i int, p models.RankedProfile) {
			defer wg.Done()
			if !o.scrapePolicy.Allows(p.URL) {
				scraped[i] = models.ScrapedContent{Source: p, Error: "host disallowed by scrape policy"}
				return
			}
			sem <- struct{}{}
			defer func() { <-sem }()
			scraped[i] = o.fetcher.Fetch(ctx, p)
		}(i, p)
	}
	wg.Wait()

	for _, s := range scraped {
		if !s.Success {
			o.logger.Printf("scrape failed for %s: %s", s.Source.URL, s.Error)
		}
	}
	return scraped
}

// generate drives the model, re-prompting on unparsable output up to the
// iteration cap. attempts is the number of generation calls actually made.
func (o *Orchestrator) generate(ctx context.Context, name string, scraped []models.ScrapedContent, start time.Time) ([]string, int, error) {
	prompt := BuildPrompt(name, scraped, o.promptBudget)

	for attempt := 1; attempt <= o.maxIterations; attempt++ {
		raw, err := o.llm.Generate(ctx, prompt)
		if err != nil {
			if berr := o.checkBudget(start); berr != nil {
				return nil, attempt, berr
			}
			return nil, attempt, err
		}
		if breakers := ParseIceBreakers(raw); len(breakers) > 0 {
			return breakers, attempt, nil
		}
		o.logger.Printf("attempt %d/%d: model output had no ice-breaker lines, re-prompting", attempt, o.maxIterations)
		if err := o.checkBudget(start); err != nil {
			return nil, attempt, err
		}
		prompt = buildReformatPrompt(raw)
	}
	return nil, o.maxIterations, fmt.Errorf("%w: no parsable output after %d attempts", models.ErrParseExhausted, o.maxIterations)
}

// checkBudget enforces the global wall-clock deadline between states.
func (o *Orchestrator) checkBudget(start time.Time) error {
	if time.Since(start) > o.maxExecutionTime {
		return fmt.Errorf("%w: exceeded %s", models.ErrTimeoutExceeded, o.maxExecutionTime)
	}
	return nil
}

func (o *Orchestrator) updateStatus(status *ProcessingStatus, phase string, progress float64, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	status.Phase = phase
	status.Progress = progress
	status.Message = message
	status.LastUpdated = time.Now()
}

// GetStatus returns the phase of the in-flight run for name, if any.
func (o *Orchestrator) GetStatus(name string) (ProcessingStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	status, ok := o.processing[strings.TrimSpace(name)]
	if !ok {
		return ProcessingStatus{}, fmt.Errorf("no active run for %q", name)
	}
	return *status, nil
}

var invalidNameChars = regexp.MustCompile(`[<>{}()\[\]\\/]`)

// ValidateName rejects empty, oversized or markup-bearing names before any
// outbound call is made.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", models.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > 100 {
		return fmt.Errorf("%w: name must be at most 100 characters", models.ErrInvalidInput)
	}
	if invalidNameChars.MatchString(name) {
		return fmt.Errorf("%w: name contains invalid characters", models.ErrInvalidInput)
	}
	return nil
}
