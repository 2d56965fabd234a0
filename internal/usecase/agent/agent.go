// Package agent implements the question-answering agents: a finance agent
// working from market data, a web search agent working from search
// results, and a team agent that combines both. The Service routes each
// query to the right agent and records the outcome.
package agent

import (
	"context"
	"errors"

	"finsight/internal/domain/entity"
)

// ErrNoSymbols is returned when an agent that requires ticker symbols
// receives a query without any.
var ErrNoSymbols = errors.New("no ticker symbols found in query")

// Agent answers an analyzed query.
type Agent interface {
	// Name identifies the agent in result metadata.
	Name() string

	// Answer produces a result for the query. Degraded data paths produce
	// a degraded result rather than an error wherever possible.
	Answer(ctx context.Context, q entity.Query) (*entity.QueryResult, error)
}
