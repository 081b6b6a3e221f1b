package cache

import (
	"context"
	"time"

	"staffledger/backend/internal/domain"
)

type DashboardCache interface {
	Get(ctx context.Context, key string) (*domain.SalaryDashboard, bool, error)
	Set(ctx context.Context, key string, value *domain.SalaryDashboard, ttl time.Duration) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context, _ string) (*domain.SalaryDashboard, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ string, _ *domain.SalaryDashboard, _ time.Duration) error {
	return nil
}
