package analysis

import (
	"fmt"

	"finsight/internal/domain/entity"
)

// Consensus ratio thresholds. A strong buy-side majority maps to Strong
// Buy, a plain majority to Buy; a substantial sell-side share dominates
// over a weak buy signal.
const (
	strongBuyRatio = 0.6
	buyRatio       = 0.4
	sellRatio      = 0.4
)

// Consensus summarizes a set of analyst recommendations for one stock.
// AvgPriceTarget is nil when no rating carried a price target.
type Consensus struct {
	Symbol         entity.Symbol
	Grade          entity.Grade
	BuyRatio       float64
	SellRatio      float64
	Total          int
	AvgPriceTarget *float64
}

// BuildConsensus derives the consensus grade from individual ratings.
// An empty rating set yields a Hold consensus with Total 0.
func BuildConsensus(symbol entity.Symbol, recs []entity.AnalystRecommendation) Consensus {
	c := Consensus{Symbol: symbol, Grade: entity.GradeHold, Total: len(recs)}
	if len(recs) == 0 {
		return c
	}

	var bullish, bearish, targets int
	var targetSum float64
	for i := range recs {
		if recs[i].IsBullish() {
			bullish++
		} else if recs[i].IsBearish() {
			bearish++
		}
		if recs[i].PriceTarget != nil {
			targetSum += recs[i].PriceTarget.Value
			targets++
		}
	}
	c.BuyRatio = float64(bullish) / float64(len(recs))
	c.SellRatio = float64(bearish) / float64(len(recs))
	if targets > 0 {
		avg := targetSum / float64(targets)
		c.AvgPriceTarget = &avg
	}

	switch {
	case c.SellRatio >= sellRatio && c.SellRatio > c.BuyRatio:
		c.Grade = entity.GradeSell
	case c.BuyRatio >= strongBuyRatio:
		c.Grade = entity.GradeStrongBuy
	case c.BuyRatio >= buyRatio:
		c.Grade = entity.GradeBuy
	default:
		c.Grade = entity.GradeHold
	}
	return c
}

// Summary renders the consensus for inclusion in an answer.
func (c Consensus) Summary() string {
	if c.Total == 0 {
		return fmt.Sprintf("No analyst recommendations available for %s.", c.Symbol)
	}
	bullish := int(c.BuyRatio*float64(c.Total) + 0.5)
	return fmt.Sprintf("%d of %d analysts rate %s buy-side (consensus: %s)",
		bullish, c.Total, c.Symbol, c.Grade)
}
