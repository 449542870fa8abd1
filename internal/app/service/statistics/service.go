package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/BijayX/iapguard/pkg/types"
)

type StatusCount struct {
	Status types.SubscriptionStatus `json:"status"`
	Count  int64                    `json:"count"`
}

type PlatformCount struct {
	Platform types.Platform `json:"platform"`
	Count    int64          `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Overview struct {
	Total        int64           `json:"total"`
	ByStatus     []StatusCount   `json:"by_status"`
	ByPlatform   []PlatformCount `json:"by_platform"`
	ExpiringSoon int64           `json:"expiring_soon"`
	DailyNew     []DailyCount    `json:"daily_new"`
}

// Service aggregates counts over subscription records for admin dashboards.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// Overview computes the admin dashboard numbers in one pass per dimension.
// expiringWithin bounds the expiring-soon window; dailyDays how many days of
// the new-subscription series to return.
func (s *Service) Overview(ctx context.Context, expiringWithin time.Duration, dailyDays int) (*Overview, error) {
	if expiringWithin <= 0 {
		expiringWithin = 7 * 24 * time.Hour
	}
	if dailyDays <= 0 {
		dailyDays = 30
	}

	out := &Overview{}

	if err := s.db.WithContext(ctx).Table("subscription_record").Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscription records: %w", err)
	}

	if err := s.db.WithContext(ctx).Table("subscription_record").
		Select("status, count(*) as count").
		Group("status").
		Order("status").
		Scan(&out.ByStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	if err := s.db.WithContext(ctx).Table("subscription_record").
		Select("platform, count(*) as count").
		Group("platform").
		Order("platform").
		Scan(&out.ByPlatform).Error; err != nil {
		return nil, fmt.Errorf("failed to count by platform: %w", err)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Table("subscription_record").
		Where("status = ?", types.SubscriptionStatusActive).
		Where("expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?", now, now.Add(expiringWithin)).
		Count(&out.ExpiringSoon).Error; err != nil {
		return nil, fmt.Errorf("failed to count expiring records: %w", err)
	}

	since := now.AddDate(0, 0, -dailyDays).Format(time.DateOnly)
	var daily []DailyCount
	if err := s.db.WithContext(ctx).Table("subscription_record").
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as count").
		Where("TO_CHAR(created_at, 'YYYY-MM-DD') >= ?", since).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date").
		Scan(&daily).Error; err != nil {
		return nil, fmt.Errorf("failed to count daily new records: %w", err)
	}
	out.DailyNew = fillMissingDays(daily, now, dailyDays)

	return out, nil
}

// fillMissingDays densifies the series so charts do not skip zero days.
func fillMissingDays(rows []DailyCount, now time.Time, days int) []DailyCount {
	byDate := lo.SliceToMap(rows, func(r DailyCount) (string, int64) { return r.Date, r.Count })
	out := make([]DailyCount, 0, days+1)
	for i := days; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(time.DateOnly)
		out = append(out, DailyCount{Date: date, Count: byDate[date]})
	}
	return out
}
