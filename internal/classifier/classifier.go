// Package classifier detects coarse query intent from keywords. The result
// selects which fallback chain of providers the orchestrator attempts.
package classifier

import (
	"strings"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

// Keyword sets are checked in fixed priority order: time-sensitive first,
// then app-data, otherwise general. Matching is case-insensitive substring
// containment; classification is pure and has no failure mode.
var timeSensitiveKeywords = []string{
	"latest",
	"today",
	"current",
	"recent",
	"news",
	"right now",
	"this week",
	"this month",
	"this year",
	"yesterday",
	"breaking",
	"update on",
	"price of",
	"stock",
	"weather",
	"score",
	"happening",
}

var appDataKeywords = []string{
	"my progress",
	"my score",
	"my study",
	"my stats",
	"my performance",
	"my results",
	"my streak",
	"my account",
	"my plan",
	"how am i doing",
	"how is my",
	"dashboard",
	"quiz history",
	"study plan",
	"flashcard",
}

// Classify maps a message to its query type.
func Classify(message string) models.QueryType {
	m := strings.ToLower(message)

	for _, kw := range timeSensitiveKeywords {
		if strings.Contains(m, kw) {
			return models.QueryTimeSensitive
		}
	}
	for _, kw := range appDataKeywords {
		if strings.Contains(m, kw) {
			return models.QueryAppData
		}
	}
	return models.QueryGeneral
}
