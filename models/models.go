package models

import (
	"time"
)

// Platform identifies the kind of site a discovered profile lives on.
type Platform string

const (
	PlatformLinkedIn Platform = "LinkedIn"
	PlatformTwitter  Platform = "Twitter"
	PlatformOther    Platform = "Other"
	PlatformUnknown  Platform = "Unknown"
)

// SearchResult is one raw hit returned by a search provider.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// RankedProfile is a search result classified by platform and scored for
// how likely it is the target person's genuine profile. Relevance is a
// normalized value in [0,1]; profiles are scraped in descending order.
type RankedProfile struct {
	URL            string   `json:"url"`
	Platform       Platform `json:"platform"`
	Title          string   `json:"title"`
	RelevanceScore float64  `json:"relevance_score"`
}

// ScrapedContent is the outcome of fetching one ranked profile. A failed
// fetch is recorded here (Success=false, Error set) rather than surfaced as
// an error, so one unreachable profile never aborts a run.
type ScrapedContent struct {
	Source  RankedProfile `json:"source"`
	Text    string        `json:"text"`
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
}

// IceBreakerResult is the terminal output of a pipeline run. Sources lists
// every profile that was scraped (successfully or not) in relevance order.
type IceBreakerResult struct {
	IceBreakers   []string        `json:"ice_breakers"`
	Sources       []RankedProfile `json:"sources"`
	ExecutionTime float64         `json:"execution_time"`
}

// TaskStatus is the lifecycle state of an asynchronous run.
type TaskStatus string

const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task tracks one asynchronous pipeline run. Result is set iff the task
// completed; Error is set iff it failed; CompletedAt is stamped exactly when
// the status leaves processing.
type Task struct {
	ID          string            `json:"task_id"`
	Status      TaskStatus        `json:"status"`
	Name        string            `json:"name"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Result      *IceBreakerResult `json:"result,omitempty"`
	Error       *string           `json:"error,omitempty"`
}

// Terminal reports whether the task has reached completed or failed.
func (t Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
