package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmbedCache caches embedding vectors in Redis keyed by a hash of the input
// text. Cache failures are invisible to callers; a miss is returned instead.
type EmbedCache struct {
	Rdb *redis.Client
	TTL time.Duration
}

func embedCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])
}

// Get returns the cached vector for the text, if any.
func (c *EmbedCache) Get(ctx context.Context, text string) ([]float32, bool) {
	if c == nil || c.Rdb == nil {
		return nil, false
	}
	raw, err := c.Rdb.Get(ctx, embedCacheKey(text)).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

// Put stores the vector with the configured TTL, best effort.
func (c *EmbedCache) Put(ctx context.Context, text string, vec []float32) {
	if c == nil || c.Rdb == nil || len(vec) == 0 {
		return
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_ = c.Rdb.Set(ctx, embedCacheKey(text), raw, ttl).Err()
}
