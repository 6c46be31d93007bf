package server

import "github.com/mohammad-safakhou/icebreak/internal/index"

// HTTPError is the JSON error envelope returned by the API.
type HTTPError struct {
	Error string `json:"error"`
}

// GenerateRequest asks for ice breakers for one person.
type GenerateRequest struct {
	Name string `json:"name"`
}

// TaskAcceptedResponse acknowledges an asynchronous run.
type TaskAcceptedResponse struct {
	TaskID string `json:"task_id"`
}

// SearchResponse carries full-text hits over completed runs.
type SearchResponse struct {
	Query string      `json:"query"`
	Hits  []index.Hit `json:"hits"`
}

// MetricsResponse exposes aggregate pipeline counters.
type MetricsResponse struct {
	TotalRuns             int64   `json:"total_runs"`
	SuccessfulRuns        int64   `json:"successful_runs"`
	FailedRuns            int64   `json:"failed_runs"`
	AverageRunTimeSeconds float64 `json:"average_run_time_seconds"`
	GenerationCalls       int64   `json:"generation_calls"`
	ProfilesFound         int64   `json:"profiles_found"`
	ScrapesSucceeded      int64   `json:"scrapes_succeeded"`
	ScrapesFailed         int64   `json:"scrapes_failed"`
}

// AuthSignupRequest registers a new user.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest exchanges credentials for a token.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse returns a signed JWT after a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse identifies the authenticated user.
type MeResponse struct {
	UserID string `json:"user_id"`
}
