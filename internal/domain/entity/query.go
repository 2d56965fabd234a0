package entity

import "time"

// QueryType classifies what kind of answer a user query is asking for.
type QueryType string

// Recognized query types.
const (
	QueryTypeGeneral         QueryType = "general"
	QueryTypeStockPrice      QueryType = "stock_price"
	QueryTypeRecommendations QueryType = "recommendations"
	QueryTypeNews            QueryType = "news"
	QueryTypeFundamentals    QueryType = "fundamentals"
	QueryTypeComparison      QueryType = "comparison"
)

// Query represents a user question after analysis: the raw text, its
// classified type and the ticker symbols it mentions.
type Query struct {
	Content   string
	Type      QueryType
	Symbols   []Symbol
	CreatedAt time.Time
}

// AddSymbol appends a symbol to the query if not already present.
func (q *Query) AddSymbol(sym Symbol) {
	for _, existing := range q.Symbols {
		if existing == sym {
			return
		}
	}
	q.Symbols = append(q.Symbols, sym)
}

// IsMultiSymbol reports whether the query involves more than one ticker.
func (q *Query) IsMultiSymbol() bool {
	return len(q.Symbols) > 1
}

// QueryResult represents the outcome of answering a query. Degraded marks
// answers that were produced from stale or default fallback data so the
// caller can surface that to the end user.
type QueryResult struct {
	Query          Query
	Answer         string
	Sources        []string
	Agent          string
	Success        bool
	Degraded       bool
	ErrorMessage   string
	GeneratedAt    time.Time
	ProcessingTime time.Duration
}

// AddSource appends a data source label to the result if not already present.
func (r *QueryResult) AddSource(source string) {
	for _, existing := range r.Sources {
		if existing == source {
			return
		}
	}
	r.Sources = append(r.Sources, source)
}

// MarkFailed marks the result as failed with the given error message.
func (r *QueryResult) MarkFailed(message string) {
	r.Success = false
	r.ErrorMessage = message
}
