// Package cache stores full provider responses keyed by a fingerprint of
// the normalized request. A hit short-circuits the entire orchestration
// pipeline.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/kunal1000-star/RouteNew-sub010/internal/models"
)

// ResponseCache is memory-first with an optional redis second tier. Redis
// being absent or failing never fails a lookup; L2 errors degrade to
// L1-only behavior.
type ResponseCache struct {
	ttl time.Duration
	log *logrus.Logger

	mu      sync.RWMutex
	entries map[string]entry

	rdb *redis.Client // nil disables the L2 tier
}

type entry struct {
	response  models.ProviderResponse
	createdAt time.Time
}

func NewResponseCache(ttl time.Duration, rdb *redis.Client, log *logrus.Logger) *ResponseCache {
	if log == nil {
		log = logrus.New()
	}
	return &ResponseCache{
		ttl:     ttl,
		log:     log,
		entries: make(map[string]entry),
		rdb:     rdb,
	}
}

// Fingerprint derives a deterministic key from the normalized request.
// Volatile fields (user and conversation identity, timestamps) are
// excluded so normalized-identical content from different sessions shares
// one entry.
func Fingerprint(req *models.ChatRequest) string {
	keyData := struct {
		Message        string `json:"message"`
		ChatType       string `json:"chat_type"`
		IncludeAppData bool   `json:"include_app_data"`
	}{
		Message:        normalize(req.Message),
		ChatType:       req.ChatType,
		IncludeAppData: req.IncludeAppData,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "chat:" + hex.EncodeToString(hash[:16])
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Get returns the cached response for a request, or nil on a miss. The
// returned response always has Cached set.
func (c *ResponseCache) Get(ctx context.Context, req *models.ChatRequest) *models.ProviderResponse {
	key := Fingerprint(req)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		if time.Since(e.createdAt) < c.ttl {
			resp := e.response
			return &resp
		}
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}

	if c.rdb == nil {
		return nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache L2 read failed")
		}
		return nil
	}

	var resp models.ProviderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil
	}

	// Promote to L1 for subsequent hits
	c.mu.Lock()
	c.entries[key] = entry{response: resp, createdAt: time.Now()}
	c.mu.Unlock()

	return &resp
}

// Set stores a response under the request's fingerprint. The stored copy
// carries Cached=true so every hit returns it unchanged.
func (c *ResponseCache) Set(ctx context.Context, req *models.ChatRequest, resp *models.ProviderResponse) {
	key := Fingerprint(req)

	stored := *resp
	stored.Cached = true

	c.mu.Lock()
	c.entries[key] = entry{response: stored, createdAt: time.Now()}
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache L2 write failed")
	}
}

// Purge drops expired L1 entries. Called opportunistically; redis expires
// L2 entries on its own.
func (c *ResponseCache) Purge() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if now.Sub(e.createdAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}
