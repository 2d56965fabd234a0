// Package entity defines the core domain entities and validation logic for
// the application. It contains the fundamental business objects such as
// Stock, AnalystRecommendation and CompanyNews, along with their validation
// rules and domain-specific errors.
package entity

import (
	"fmt"
	"strings"
	"time"
)

// maxSymbolLength is the longest ticker symbol accepted by the upstream API.
const maxSymbolLength = 10

// Symbol represents a validated, normalized stock ticker symbol.
type Symbol string

// NewSymbol validates and normalizes a raw ticker string.
// Symbols are upper-cased and trimmed; empty or overlong input is rejected.
func NewSymbol(raw string) (Symbol, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return "", &ValidationError{Field: "symbol", Message: "must not be empty"}
	}
	if len(normalized) > maxSymbolLength {
		return "", &ValidationError{Field: "symbol", Message: fmt.Sprintf("must be at most %d characters", maxSymbolLength)}
	}
	return Symbol(normalized), nil
}

// String returns the normalized ticker string.
func (s Symbol) String() string {
	return string(s)
}

// Price represents a monetary amount in a given currency.
type Price struct {
	Value    float64
	Currency string
}

// Formatted returns the price rendered for display, e.g. "$187.32".
func (p Price) Formatted() string {
	return fmt.Sprintf("$%.2f", p.Value)
}

// MarketCap represents a company's market capitalization.
type MarketCap struct {
	Value    float64
	Currency string
}

// Formatted returns a humanized market cap, e.g. "$2.8T" or "$415.3B".
func (m MarketCap) Formatted() string {
	switch {
	case m.Value >= 1e12:
		return fmt.Sprintf("$%.1fT", m.Value/1e12)
	case m.Value >= 1e9:
		return fmt.Sprintf("$%.1fB", m.Value/1e9)
	case m.Value >= 1e6:
		return fmt.Sprintf("$%.1fM", m.Value/1e6)
	default:
		return fmt.Sprintf("$%.0f", m.Value)
	}
}

// Stock represents a listed company and its current fundamentals.
// Optional figures are pointers; nil means the upstream source did not
// report the value.
type Stock struct {
	Symbol        Symbol
	Name          string
	Sector        string
	Industry      string
	CurrentPrice  *Price
	MarketCap     *MarketCap
	PERatio       *float64
	DividendYield *float64
	LastUpdated   time.Time
}

// IsTechnology reports whether the stock belongs to the technology sector.
func (s *Stock) IsTechnology() bool {
	return strings.Contains(strings.ToLower(s.Sector), "technology")
}

// Grade is an analyst recommendation grade.
type Grade int

// Recommendation grades, from most to least bullish.
const (
	GradeStrongBuy Grade = iota
	GradeBuy
	GradeHold
	GradeSell
	GradeStrongSell
)

// String returns the display name of the grade.
func (g Grade) String() string {
	switch g {
	case GradeStrongBuy:
		return "Strong Buy"
	case GradeBuy:
		return "Buy"
	case GradeHold:
		return "Hold"
	case GradeSell:
		return "Sell"
	case GradeStrongSell:
		return "Strong Sell"
	default:
		return "Hold"
	}
}

// ParseGrade maps a free-form grade string from an upstream source
// ("buy", "Overweight", "strong sell", ...) to a Grade. Unknown strings
// map to GradeHold.
func ParseGrade(raw string) Grade {
	g := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(g, "strong buy"):
		return GradeStrongBuy
	case strings.Contains(g, "strong sell"):
		return GradeStrongSell
	case strings.Contains(g, "buy"), strings.Contains(g, "overweight"), strings.Contains(g, "outperform"):
		return GradeBuy
	case strings.Contains(g, "sell"), strings.Contains(g, "underweight"), strings.Contains(g, "underperform"):
		return GradeSell
	default:
		return GradeHold
	}
}

// AnalystRecommendation represents a single analyst rating for a stock.
type AnalystRecommendation struct {
	Symbol      Symbol
	Firm        string
	Grade       Grade
	PriceTarget *Price
	Date        time.Time
}

// IsBullish reports whether the rating is a buy-side recommendation.
func (r *AnalystRecommendation) IsBullish() bool {
	return r.Grade == GradeStrongBuy || r.Grade == GradeBuy
}

// IsBearish reports whether the rating is a sell-side recommendation.
func (r *AnalystRecommendation) IsBearish() bool {
	return r.Grade == GradeStrongSell || r.Grade == GradeSell
}

// CompanyNews represents a news item associated with a stock.
type CompanyNews struct {
	Symbol      Symbol
	Title       string
	Summary     string
	Source      string
	URL         string
	PublishedAt time.Time
	Sentiment   string // "positive", "negative", "neutral" or "" when unscored
}

// IsRecent reports whether the item was published within the given number of days.
func (n *CompanyNews) IsRecent(days int) bool {
	return time.Since(n.PublishedAt) <= time.Duration(days)*24*time.Hour
}
