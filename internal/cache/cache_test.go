package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

func sampleRequest() *models.ChatRequest {
	return &models.ChatRequest{
		UserID:         "user-1",
		ConversationID: "conv-1",
		Message:        "What is a derivative?",
		ChatType:       "tutor",
	}
}

func sampleResponse() *models.ProviderResponse {
	return &models.ProviderResponse{
		Content:    "A derivative measures instantaneous rate of change.",
		ModelUsed:  "llama-3.3-70b-versatile",
		Provider:   "groq",
		QueryType:  models.QueryGeneral,
		TierUsed:   1,
		TokensUsed: models.TokenUsage{Input: 20, Output: 40},
		LatencyMs:  850,
	}
}

func TestFingerprint_NormalizesVolatileFields(t *testing.T) {
	a := sampleRequest()

	b := sampleRequest()
	b.UserID = "user-2"
	b.ConversationID = "conv-99"
	b.Message = "  what IS a   Derivative? "

	assert.Equal(t, Fingerprint(a), Fingerprint(b),
		"identity fields and whitespace/case must not change the key")
}

func TestFingerprint_DistinguishesContent(t *testing.T) {
	a := sampleRequest()

	b := sampleRequest()
	b.Message = "What is an integral?"

	c := sampleRequest()
	c.ChatType = "exam"

	d := sampleRequest()
	d.IncludeAppData = true

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(d))
}

func TestCache_HitReturnsStoredResponse(t *testing.T) {
	c := NewResponseCache(time.Minute, nil, logrus.New())
	ctx := context.Background()
	req := sampleRequest()

	assert.Nil(t, c.Get(ctx, req), "cold cache misses")

	resp := sampleResponse()
	c.Set(ctx, req, resp)

	got := c.Get(ctx, req)
	require.NotNil(t, got)
	assert.True(t, got.Cached)

	want := *resp
	want.Cached = true
	assert.Equal(t, want, *got, "hit is identical to what was stored, plus the cached flag")
}

func TestCache_EntryExpires(t *testing.T) {
	c := NewResponseCache(10*time.Millisecond, nil, logrus.New())
	ctx := context.Background()
	req := sampleRequest()

	c.Set(ctx, req, sampleResponse())
	require.NotNil(t, c.Get(ctx, req))

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, c.Get(ctx, req))
}

func TestCache_RedisSecondTier(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx := context.Background()
	req := sampleRequest()
	resp := sampleResponse()

	first := NewResponseCache(time.Minute, rdb, logrus.New())
	first.Set(ctx, req, resp)

	// A fresh instance has an empty L1 but shares the redis tier
	second := NewResponseCache(time.Minute, rdb, logrus.New())
	got := second.Get(ctx, req)
	require.NotNil(t, got)
	assert.True(t, got.Cached)
	assert.Equal(t, resp.Content, got.Content)
	assert.Equal(t, resp.Provider, got.Provider)
}

func TestCache_RedisDownDegradesToMemory(t *testing.T) {
	// Client pointing at a closed port; every call errors
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})

	c := NewResponseCache(time.Minute, rdb, logrus.New())
	ctx := context.Background()
	req := sampleRequest()

	c.Set(ctx, req, sampleResponse())

	got := c.Get(ctx, req)
	require.NotNil(t, got, "L2 failure must not break L1 behavior")
	assert.True(t, got.Cached)
}

func TestCache_Purge(t *testing.T) {
	c := NewResponseCache(5*time.Millisecond, nil, logrus.New())
	ctx := context.Background()

	c.Set(ctx, sampleRequest(), sampleResponse())
	time.Sleep(10 * time.Millisecond)
	c.Purge()

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Empty(t, c.entries)
}
