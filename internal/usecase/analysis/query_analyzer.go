// Package analysis turns raw user questions and fetched market data into
// structured insight: query classification and symbol extraction, analyst
// consensus, and news sentiment.
package analysis

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"finsight/internal/domain/entity"
)

// companyAliases maps well-known company names to their tickers so
// questions like "how is nvidia doing" resolve without an explicit symbol.
var companyAliases = map[string]entity.Symbol{
	"alphabet":  "GOOGL",
	"amazon":    "AMZN",
	"amd":       "AMD",
	"apple":     "AAPL",
	"google":    "GOOGL",
	"intel":     "INTC",
	"meta":      "META",
	"microsoft": "MSFT",
	"netflix":   "NFLX",
	"nvidia":    "NVDA",
	"tesla":     "TSLA",
}

// tickerPattern matches upper-case tokens that look like ticker symbols.
var tickerPattern = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// tickerStopwords are upper-case words that look like tickers but are not.
var tickerStopwords = map[string]struct{}{
	"AI": {}, "API": {}, "CEO": {}, "CFO": {}, "EPS": {}, "ETF": {},
	"GDP": {}, "IPO": {}, "NYSE": {}, "OK": {}, "PE": {}, "SEC": {},
	"US": {}, "USA": {}, "USD": {}, "VS": {},
}

// sortedAliases returns alias names in stable order so extracted symbols
// are deterministic.
func sortedAliases() []string {
	names := make([]string, 0, len(companyAliases))
	for name := range companyAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AnalyzeQuery classifies a user question and extracts the ticker symbols
// it mentions, by alias lookup and by upper-case token matching.
func AnalyzeQuery(content string) entity.Query {
	q := entity.Query{
		Content:   content,
		Type:      classify(content),
		CreatedAt: time.Now().UTC(),
	}

	lower := strings.ToLower(content)
	for _, alias := range sortedAliases() {
		if strings.Contains(lower, alias) {
			q.AddSymbol(companyAliases[alias])
		}
	}
	for _, token := range tickerPattern.FindAllString(content, -1) {
		if _, stop := tickerStopwords[token]; stop {
			continue
		}
		q.AddSymbol(entity.Symbol(token))
	}

	if q.Type != entity.QueryTypeComparison && q.IsMultiSymbol() {
		q.Type = entity.QueryTypeComparison
	}
	return q
}

// classify picks the query type from keyword cues, most specific first.
func classify(content string) entity.QueryType {
	c := strings.ToLower(content)

	switch {
	case containsAny(c, "compare", " vs ", " vs.", "versus", "better investment", "which is better"):
		return entity.QueryTypeComparison
	case containsAny(c, "recommend", "analyst", "rating", "should i buy", "should i sell", "upgrade", "downgrade"):
		return entity.QueryTypeRecommendations
	case containsAny(c, "news", "headline", "happened", "announce"):
		return entity.QueryTypeNews
	case containsAny(c, "p/e", "pe ratio", "dividend", "market cap", "fundamental", "valuation", "earnings"):
		return entity.QueryTypeFundamentals
	case containsAny(c, "price", "cost", "worth", "trading at", "how much"):
		return entity.QueryTypeStockPrice
	default:
		return entity.QueryTypeGeneral
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
