package store

import (
	"context"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

// MemoryStore keeps analyses in a size-bounded LRU whose entries expire
// after a fixed TTL
type MemoryStore struct {
	cache  *expirable.LRU[string, *Analysis]
	logger *logrus.Logger
}

// NewMemoryStore creates a store holding at most capacity analyses.
// A non-positive ttl disables expiry.
func NewMemoryStore(capacity int, ttl time.Duration, logger *logrus.Logger) *MemoryStore {
	if capacity < 1 {
		capacity = 1
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = logrus.New()
	}

	s := &MemoryStore{logger: logger}
	s.cache = expirable.NewLRU[string, *Analysis](capacity, func(projectID string, a *Analysis) {
		s.logger.WithFields(logrus.Fields{
			"project": projectID,
			"run_id":  a.RunID,
		}).Debug("Analysis evicted")
	}, ttl)
	return s
}

// Put stores a, replacing any previous snapshot of the project
func (s *MemoryStore) Put(ctx context.Context, a *Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Add(a.ProjectID, a)
	return nil
}

// Get returns the project's snapshot
func (s *MemoryStore) Get(ctx context.Context, projectID string) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := s.cache.Get(projectID)
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Delete forgets the project; unknown projects are not an error
func (s *MemoryStore) Delete(ctx context.Context, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Remove(projectID)
	return nil
}

// List returns live entries ordered by project id
func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []Summary{}
	for _, a := range s.cache.Values() {
		out = append(out, summarize(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

// Len returns the number of cached entries
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Close drops every entry
func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
