package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

func TestClassify_TimeSensitive(t *testing.T) {
	messages := []string{
		"What's the latest news on inflation?",
		"current weather in Berlin",
		"What is the price of gold today?",
		"Any breaking developments this week?",
	}

	for _, msg := range messages {
		assert.Equal(t, models.QueryTimeSensitive, Classify(msg), "message: %s", msg)
	}
}

func TestClassify_AppData(t *testing.T) {
	messages := []string{
		"How is my progress in Physics?",
		"Show my quiz history",
		"how am i doing on the study plan",
		"What does my dashboard say about chemistry?",
	}

	for _, msg := range messages {
		assert.Equal(t, models.QueryAppData, Classify(msg), "message: %s", msg)
	}
}

func TestClassify_General(t *testing.T) {
	messages := []string{
		"Explain photosynthesis",
		"What is a derivative?",
		"Help me understand Newton's second law",
	}

	for _, msg := range messages {
		assert.Equal(t, models.QueryGeneral, Classify(msg), "message: %s", msg)
	}
}

func TestClassify_TimeSensitiveWinsOverAppData(t *testing.T) {
	// Both keyword sets match; time-sensitive is checked first.
	got := Classify("What is the latest update on my progress?")
	assert.Equal(t, models.QueryTimeSensitive, got)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	assert.Equal(t, models.QueryTimeSensitive, Classify("LATEST NEWS please"))
}
