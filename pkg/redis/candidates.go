package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// DefaultCandidateTTL bounds how stale a cached region candidate list may get.
const DefaultCandidateTTL = 10 * time.Minute

// CandidateSource is the uncached lookup the cache sits in front of.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, regionCode string) ([]models.CandidateApartment, error)
}

// CandidateCache is a read-through cache of candidate apartments per region code.
// Cache failures are logged and fall through to the source.
type CandidateCache struct {
	client    *Client
	source    CandidateSource
	ttl       time.Duration
	keyPrefix string
}

// NewCandidateCache creates a cache in front of source. ttl <= 0 uses DefaultCandidateTTL.
func NewCandidateCache(client *Client, source CandidateSource, ttl time.Duration) *CandidateCache {
	if ttl <= 0 {
		ttl = DefaultCandidateTTL
	}
	return &CandidateCache{
		client:    client,
		source:    source,
		ttl:       ttl,
		keyPrefix: "fern:candidates:",
	}
}

func (c *CandidateCache) key(regionCode string) string {
	return c.keyPrefix + regionCode
}

// FetchCandidates returns the cached list for regionCode or loads and stores it.
func (c *CandidateCache) FetchCandidates(ctx context.Context, regionCode string) ([]models.CandidateApartment, error) {
	ctx, span := tracing.StartSpan(ctx, "redis.CandidateCache.FetchCandidates")
	defer span.End()

	log := c.client.logger.WithContext(ctx).WithField("region_code", regionCode)

	raw, err := c.client.rdb.Get(ctx, c.key(regionCode)).Bytes()
	switch {
	case err == nil:
		var candidates []models.CandidateApartment
		if err := json.Unmarshal(raw, &candidates); err == nil {
			metrics.RecordCandidateCache("hit")
			return candidates, nil
		}
		log.WithError(err).Warn("discarding unreadable cached candidates")
		metrics.RecordCandidateCache("error")
	case errors.Is(err, redis.Nil):
		metrics.RecordCandidateCache("miss")
	default:
		log.WithError(err).Warn("candidate cache read failed")
		metrics.RecordCandidateCache("error")
	}

	candidates, err := c.source.FetchCandidates(ctx, regionCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates for region %s: %w", regionCode, err)
	}

	if data, err := json.Marshal(candidates); err == nil {
		if err := c.client.rdb.Set(ctx, c.key(regionCode), data, c.ttl).Err(); err != nil {
			log.WithError(err).Warn("candidate cache write failed")
		}
	}

	return candidates, nil
}

// Invalidate drops the cached list for regionCode.
func (c *CandidateCache) Invalidate(ctx context.Context, regionCode string) error {
	return c.client.rdb.Del(ctx, c.key(regionCode)).Err()
}
