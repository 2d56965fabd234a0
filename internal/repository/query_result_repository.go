package repository

import (
	"context"

	"finsight/internal/domain/entity"
)

// QueryResultRepository stores answered queries so recent history can be
// inspected via the API and reused for debugging degraded answers.
type QueryResultRepository interface {
	// Save records one answered query.
	Save(ctx context.Context, result *entity.QueryResult) error

	// ListRecent returns up to limit results, most recent first. A
	// non-positive limit returns the full stored history.
	ListRecent(ctx context.Context, limit int) ([]*entity.QueryResult, error)

	// CountDegraded returns how many stored results were served from
	// fallback data.
	CountDegraded(ctx context.Context) (int64, error)
}
