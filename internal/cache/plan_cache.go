package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/replenit/purchase-planner/internal/config"
	"github.com/replenit/purchase-planner/internal/domain"
)

const (
	planSummaryKeyPrefix = "plan:summary"
	planScanBatchSize    = 100
)

// PlanSummaryCache caches aggregate KPIs per plan request so repeated
// dashboard refreshes do not re-run the engine.
type PlanSummaryCache interface {
	GetSummary(ctx context.Context, req domain.PlanRequest) (*domain.PlanSummary, bool, error)
	SetSummary(ctx context.Context, req domain.PlanRequest, summary *domain.PlanSummary) error
	InvalidateAll(ctx context.Context) error
}

type redisPlanSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanSummaryCache struct{}

func NewPlanSummaryCache(cfg config.CacheConfig) (PlanSummaryCache, error) {
	if !cfg.Enabled {
		return &noopPlanSummaryCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPlanSummaryCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopPlanSummaryCache() PlanSummaryCache {
	return &noopPlanSummaryCache{}
}

func (c *redisPlanSummaryCache) GetSummary(ctx context.Context, req domain.PlanRequest) (*domain.PlanSummary, bool, error) {
	key := buildPlanSummaryKey(req)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.PlanSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode plan summary cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisPlanSummaryCache) SetSummary(ctx context.Context, req domain.PlanRequest, summary *domain.PlanSummary) error {
	key := buildPlanSummaryKey(req)
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode plan summary cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPlanSummaryCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, planSummaryKeyPrefix, planScanBatchSize)
}

func (n *noopPlanSummaryCache) GetSummary(ctx context.Context, req domain.PlanRequest) (*domain.PlanSummary, bool, error) {
	return nil, false, nil
}

func (n *noopPlanSummaryCache) SetSummary(ctx context.Context, req domain.PlanRequest, summary *domain.PlanSummary) error {
	return nil
}

func (n *noopPlanSummaryCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildPlanSummaryKey(req domain.PlanRequest) string {
	return fmt.Sprintf("%s:%s", planSummaryKeyPrefix, planRequestHash(req))
}

func planRequestHash(req domain.PlanRequest) string {
	raw := fmt.Sprintf("start=%s|months=%d|service=%.2f|review=%d|transit=%t",
		req.StartMonth, req.NumMonths, req.ServiceLevel, req.ReviewPeriodDays, req.IncludeInTransit)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
