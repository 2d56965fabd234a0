// Package memory provides in-process repository implementations. State in
// this service is process-local; there is no database behind it.
package memory

import (
	"context"
	"sync"

	"finsight/internal/domain/entity"
	"finsight/internal/repository"
)

// QueryResultRepo keeps the most recent query results in a bounded
// in-memory buffer. Oldest entries are discarded once capacity is reached.
type QueryResultRepo struct {
	mu       sync.RWMutex
	results  []*entity.QueryResult
	capacity int
}

var _ repository.QueryResultRepository = (*QueryResultRepo)(nil)

// NewQueryResultRepo creates a repository holding up to capacity results.
func NewQueryResultRepo(capacity int) *QueryResultRepo {
	if capacity <= 0 {
		capacity = 256
	}
	return &QueryResultRepo{capacity: capacity}
}

// Save implements repository.QueryResultRepository.
func (r *QueryResultRepo) Save(_ context.Context, result *entity.QueryResult) error {
	if result == nil {
		return entity.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.results = append(r.results, result)
	if len(r.results) > r.capacity {
		r.results = r.results[len(r.results)-r.capacity:]
	}
	return nil
}

// ListRecent implements repository.QueryResultRepository.
func (r *QueryResultRepo) ListRecent(_ context.Context, limit int) ([]*entity.QueryResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.results) {
		limit = len(r.results)
	}

	out := make([]*entity.QueryResult, 0, limit)
	for i := len(r.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.results[i])
	}
	return out, nil
}

// CountDegraded implements repository.QueryResultRepository.
func (r *QueryResultRepo) CountDegraded(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, res := range r.results {
		if res.Degraded {
			n++
		}
	}
	return n, nil
}
