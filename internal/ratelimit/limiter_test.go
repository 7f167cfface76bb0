package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

func TestCheck_FreshProviderIsOK(t *testing.T) {
	l := NewLimiter(30, 40000)

	status := l.Check("groq")
	assert.Equal(t, models.RateLimitOK, status.Status)
	assert.Equal(t, "groq", status.Provider)
	assert.False(t, status.Approaching)
}

func TestCheck_DoesNotConsumeBudget(t *testing.T) {
	l := NewLimiter(2, 40000)

	for i := 0; i < 10; i++ {
		status := l.Check("groq")
		assert.Equal(t, models.RateLimitOK, status.Status, "check %d must not consume", i)
	}
}

func TestRecordRequest_ExhaustsRequestBudget(t *testing.T) {
	l := NewLimiter(2, 40000)

	l.RecordRequest("groq", 100)
	l.RecordRequest("groq", 100)

	status := l.Check("groq")
	assert.Equal(t, models.RateLimitBlocked, status.Status)
}

func TestRecordRequest_ExhaustsTokenBudget(t *testing.T) {
	l := NewLimiter(100, 1000)

	l.RecordRequest("groq", 1000)

	status := l.Check("groq")
	assert.Equal(t, models.RateLimitBlocked, status.Status)
}

func TestLimiter_ProvidersAreIndependent(t *testing.T) {
	l := NewLimiter(1, 40000)

	l.RecordRequest("groq", 10)

	assert.Equal(t, models.RateLimitBlocked, l.Check("groq").Status)
	assert.Equal(t, models.RateLimitOK, l.Check("cerebras").Status)
}

func TestLimitApproaching(t *testing.T) {
	l := NewLimiter(10, 40000)

	assert.False(t, l.LimitApproaching("groq"))

	// Spend 9 of 10 request slots; remaining budget is under 20%
	for i := 0; i < 9; i++ {
		l.RecordRequest("groq", 10)
	}
	assert.True(t, l.LimitApproaching("groq"))
}

func TestRecordRequest_OversizedTokenSpendStillBlocks(t *testing.T) {
	l := NewLimiter(100, 1000)

	l.RecordRequest("groq", 5000)

	assert.Equal(t, models.RateLimitBlocked, l.Check("groq").Status)
}
