package usage

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

func TestLogger_EmitsSuccessAndFailure(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := NewLogger(base, 16)

	l.LogSuccess(Event{
		RequestID: "req-1",
		Provider:  "groq",
		Model:     "llama-3.3-70b-versatile",
		QueryType: models.QueryGeneral,
		Tier:      1,
		LatencyMs: 420,
	})
	l.LogFailure(Event{
		RequestID: "req-2",
		Provider:  "gemini",
		Error:     "HTTP 503",
	})
	l.Close()

	entries := hook.AllEntries()
	assert.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "groq", entries[0].Data["provider"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, "HTTP 503", entries[1].Data["error"])
}

func TestLogger_NeverBlocksWhenFull(t *testing.T) {
	base, _ := test.NewNullLogger()
	l := NewLogger(base, 1)
	defer l.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			l.LogSuccess(Event{RequestID: "req", Provider: "groq"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logger blocked the caller")
	}
}

func TestLogger_SendAfterCloseIsSafe(t *testing.T) {
	base, _ := test.NewNullLogger()
	l := NewLogger(base, 4)
	l.Close()

	assert.NotPanics(t, func() {
		l.LogSuccess(Event{RequestID: "late"})
	})
}
