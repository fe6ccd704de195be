package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lending-marketplace/internal/domain/proposal"

	"github.com/redis/go-redis/v9"
)

const DefaultBandTTL = 10 * time.Minute

// BandCache stores market rate bands as JSON strings with a TTL.
type BandCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBandCache(rdb *redis.Client, ttl time.Duration) *BandCache {
	if ttl <= 0 {
		ttl = DefaultBandTTL
	}
	return &BandCache{rdb: rdb, ttl: ttl}
}

type band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (c *BandCache) GetBand(ctx context.Context, key string) (proposal.RateRange, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return proposal.RateRange{}, false, nil
	}
	if err != nil {
		return proposal.RateRange{}, false, err
	}
	var b band
	if err := json.Unmarshal(raw, &b); err != nil {
		// a corrupt entry is a miss; the caller recomputes and overwrites it
		return proposal.RateRange{}, false, nil
	}
	return proposal.RateRange{Min: b.Min, Max: b.Max}, true, nil
}

func (c *BandCache) SetBand(ctx context.Context, key string, r proposal.RateRange) error {
	raw, err := json.Marshal(band{Min: r.Min, Max: r.Max})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
