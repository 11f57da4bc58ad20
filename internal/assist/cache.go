package assist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"domovoy/internal/models"
)

// Cache stores parse results in redis. Parsing is deterministic for a
// given phrasing, speaker and reference date, so identical requests on
// the same day are served without a model call. Misbehaving redis is
// treated as a miss, never an error.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCache wraps a redis client. Returns nil when rdb is nil or ttl is
// not positive, which disables caching entirely.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &Cache{redis: rdb, ttl: ttl}
}

func cacheKey(text, speaker string, refDate time.Time) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(normalized + "|" + speaker + "|" + refDate.Format(models.DateLayout)))
	return "assist:parse:" + hex.EncodeToString(sum[:16])
}

func (c *Cache) Get(ctx context.Context, text, speaker string, refDate time.Time) (*ParseResult, bool) {
	val, err := c.redis.Get(ctx, cacheKey(text, speaker, refDate)).Result()
	if err != nil {
		return nil, false
	}
	var result ParseResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *Cache) Set(ctx context.Context, text, speaker string, refDate time.Time, result *ParseResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(text, speaker, refDate), data, c.ttl).Err()
}
