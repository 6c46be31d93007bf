package index

import (
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/mohammad-safakhou/icebreak/config"
	"github.com/mohammad-safakhou/icebreak/models"
)

// Index maintains a BM25 index over finished tasks so past runs are
// searchable by person name, source title or ice breaker text. A nil *Index
// is valid and indexes nothing.
type Index struct {
	mu  sync.RWMutex
	idx bleve.Index
}

// document is the indexed shape of a completed task. Fields are stored so
// hits can be rendered without a side lookup, which keeps disk-backed
// indexes usable across restarts.
type document struct {
	Name        string    `json:"name"`
	IceBreakers []string  `json:"ice_breakers"`
	Sources     []string  `json:"sources"`
	CompletedAt time.Time `json:"completed_at"`
}

// Hit is a single search result.
type Hit struct {
	TaskID      string   `json:"task_id"`
	Name        string   `json:"name"`
	IceBreakers []string `json:"ice_breakers"`
	Score       float64  `json:"score"`
}

// New opens the index described by cfg. Disabled configs yield a nil index.
// An empty path means memory only.
func New(cfg config.IndexConfig) (*Index, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Path == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
		return &Index{idx: idx}, nil
	}
	idx, err := bleve.Open(cfg.Path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(cfg.Path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", cfg.Path, err)
	}
	return &Index{idx: idx}, nil
}

// IndexTask adds a completed task to the index. Tasks without a result are
// ignored.
func (i *Index) IndexTask(task models.Task) error {
	if i == nil || task.Status != models.TaskStatusCompleted || task.Result == nil {
		return nil
	}
	doc := document{
		Name:        task.Name,
		IceBreakers: task.Result.IceBreakers,
	}
	if task.CompletedAt != nil {
		doc.CompletedAt = *task.CompletedAt
	}
	for _, src := range task.Result.Sources {
		doc.Sources = append(doc.Sources, src.Title, src.URL)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.idx.Index(task.ID, doc)
}

// Search runs a BM25 query and returns up to k hits.
func (i *Index) Search(q string, k int) ([]Hit, error) {
	if i == nil {
		return nil, nil
	}
	if k <= 0 {
		k = 10
	}
	query := bleve.NewQueryStringQuery(q)
	searchReq := bleve.NewSearchRequestOptions(query, k*3, 0, false)
	searchReq.Fields = []string{"name", "ice_breakers"}

	i.mu.RLock()
	res, err := i.idx.Search(searchReq)
	i.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var out []Hit
	for _, hit := range res.Hits {
		out = append(out, Hit{
			TaskID:      hit.ID,
			Name:        fieldString(hit.Fields["name"]),
			IceBreakers: fieldStrings(hit.Fields["ice_breakers"]),
			Score:       hit.Score,
		})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// Close releases the underlying index.
func (i *Index) Close() error {
	if i == nil {
		return nil
	}
	return i.idx.Close()
}

func fieldString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// fieldStrings unpacks a stored field that may hold one value or several.
func fieldStrings(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
