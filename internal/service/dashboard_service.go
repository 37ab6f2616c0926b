package service

import (
	"context"
	"fmt"
	"time"

	"bot-dashboard/internal/domain"
	"bot-dashboard/internal/repository"
)

const (
	ShortExpiryWindowDays = 7
	LongExpiryWindowDays  = 30
)

// DashboardStats is the read-only snapshot shown on the dashboard
type DashboardStats struct {
	TotalProducts      int `json:"total_products"`
	ActiveProducts     int `json:"active_products"`
	ExpiredProducts    int `json:"expired_products"`
	ExpiringSoon7Days  int `json:"expiring_soon_7_days"`
	ExpiringSoon30Days int `json:"expiring_soon_30_days"`
}

// DashboardService aggregates product counters
type DashboardService interface {
	GetStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	productRepo repository.ProductRepository
	now         Clock
}

// NewDashboardService creates a new instance of DashboardService
func NewDashboardService(productRepo repository.ProductRepository) DashboardService {
	return NewDashboardServiceWithClock(productRepo, func() time.Time { return time.Now().UTC() })
}

// NewDashboardServiceWithClock creates a DashboardService that reads "now" from clock
func NewDashboardServiceWithClock(productRepo repository.ProductRepository, clock Clock) DashboardService {
	return &dashboardService{productRepo: productRepo, now: clock}
}

// GetStats runs five independent counts against a single "now". The counts are
// not taken in one transaction, so concurrent writes may skew them slightly.
func (s *dashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	stats := &DashboardStats{}

	var err error
	if stats.TotalProducts, err = s.productRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if stats.ActiveProducts, err = s.productRepo.CountByStatus(ctx, domain.StatusActive, now); err != nil {
		return nil, fmt.Errorf("failed to count active products: %w", err)
	}
	if stats.ExpiredProducts, err = s.productRepo.CountByStatus(ctx, domain.StatusExpired, now); err != nil {
		return nil, fmt.Errorf("failed to count expired products: %w", err)
	}
	if stats.ExpiringSoon7Days, err = s.productRepo.CountEndingWithin(ctx, now, now.AddDate(0, 0, ShortExpiryWindowDays)); err != nil {
		return nil, fmt.Errorf("failed to count products expiring in %d days: %w", ShortExpiryWindowDays, err)
	}
	if stats.ExpiringSoon30Days, err = s.productRepo.CountEndingWithin(ctx, now, now.AddDate(0, 0, LongExpiryWindowDays)); err != nil {
		return nil, fmt.Errorf("failed to count products expiring in %d days: %w", LongExpiryWindowDays, err)
	}

	return stats, nil
}
