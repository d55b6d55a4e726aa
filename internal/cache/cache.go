package cache

import (
	"context"
	"time"

	"kedaiku/backend/internal/domain"
)

type MetricsCache interface {
	Get(ctx context.Context, key string) (*domain.MetricsSnapshot, bool, error)
	Set(ctx context.Context, key string, value *domain.MetricsSnapshot, ttl time.Duration) error
}

type NoopMetricsCache struct{}

func (NoopMetricsCache) Get(_ context.Context, _ string) (*domain.MetricsSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopMetricsCache) Set(_ context.Context, _ string, _ *domain.MetricsSnapshot, _ time.Duration) error {
	return nil
}
