package analysis

import (
	"fmt"
	"strings"

	"finsight/internal/domain/entity"
)

// Sentiment labels for news items.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

var positiveCues = []string{
	"beat", "gain", "growth", "profit", "rally", "record", "soar",
	"strong", "surge", "upgrade", "wins",
}

var negativeCues = []string{
	"cut", "decline", "downgrade", "drop", "fall", "lawsuit", "loss",
	"miss", "plunge", "recall", "weak",
}

// ScoreSentiment assigns a coarse keyword-based sentiment to a news item.
// It is intentionally simple; the label only colors the digest and is not
// investment signal.
func ScoreSentiment(title, summary string) string {
	text := strings.ToLower(title + " " + summary)

	var score int
	for _, cue := range positiveCues {
		if strings.Contains(text, cue) {
			score++
		}
	}
	for _, cue := range negativeCues {
		if strings.Contains(text, cue) {
			score--
		}
	}

	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// AnnotateSentiment fills the Sentiment field of each item, leaving
// already-scored items untouched.
func AnnotateSentiment(items []entity.CompanyNews) []entity.CompanyNews {
	for i := range items {
		if items[i].Sentiment == "" {
			items[i].Sentiment = ScoreSentiment(items[i].Title, items[i].Summary)
		}
	}
	return items
}

// DigestNews renders up to maxItems news items as bullet lines for
// inclusion in an answer or an LLM prompt.
func DigestNews(items []entity.CompanyNews, maxItems int) string {
	if len(items) == 0 {
		return "No recent news available."
	}
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	var b strings.Builder
	for _, item := range items {
		line := fmt.Sprintf("- %s", item.Title)
		if item.Source != "" {
			line += fmt.Sprintf(" (%s", item.Source)
			if !item.PublishedAt.IsZero() {
				line += ", " + item.PublishedAt.Format("2006-01-02")
			}
			line += ")"
		}
		if item.Sentiment != "" && item.Sentiment != SentimentNeutral {
			line += fmt.Sprintf(" [%s]", item.Sentiment)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
