package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

// Source is the lookup interface the schedulers consume.
type Source interface {
	TokenData(ctx context.Context, tokenAddress string) (types.TokenMarketData, error)
}

const defaultCacheTTL = 30 * time.Second

// CachedSource puts a short-TTL redis cache in front of an upstream source.
// Many pending orders often reference the same token, so one snapshot per
// TTL window serves a whole polling pass. Cache failures degrade to direct
// upstream reads.
type CachedSource struct {
	upstream Source
	rdb      *redis.Client
	ttl      time.Duration
	logger   *logrus.Logger
}

func NewCachedSource(upstream Source, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &CachedSource{
		upstream: upstream,
		rdb:      rdb,
		ttl:      ttl,
		logger:   logger,
	}
}

func cacheKey(tokenAddress string) string {
	return "marketdata:" + tokenAddress
}

func (c *CachedSource) TokenData(ctx context.Context, tokenAddress string) (types.TokenMarketData, error) {
	key := cacheKey(tokenAddress)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var data types.TokenMarketData
		if err := json.Unmarshal(raw, &data); err == nil {
			return data, nil
		}
		c.logger.Warnf("invalid cached market data for %s, refetching", tokenAddress)
	} else if err != redis.Nil {
		c.logger.WithError(err).Warn("market data cache read failed")
	}

	data, err := c.upstream.TokenData(ctx, tokenAddress)
	if err != nil {
		return types.TokenMarketData{}, fmt.Errorf("failed to fetch market data for %s: %w", tokenAddress, err)
	}

	if encoded, err := json.Marshal(data); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.WithError(err).Warn("market data cache write failed")
		}
	}

	return data, nil
}
