package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/engforum/engforum/models"
)

// StatsService aggregates forum counters and records daily page views.
type StatsService struct {
	db *gorm.DB
}

// NewStatsService creates a StatsService on db.
func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// ForumStats is the public summary shown on the landing page.
type ForumStats struct {
	Users      int64 `json:"user_count"`
	Threads    int64 `json:"thread_count"`
	Replies    int64 `json:"reply_count"`
	Categories int   `json:"category_count"`
	PageViews  int64 `json:"today_page_views"`
}

func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RecordPageView increments today's counter for path.
func (s *StatsService) RecordPageView(ctx context.Context, path string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
	}).Create(&models.PageView{Date: utcMidnight(now), Path: path, Count: 1, UpdatedAt: now}).Error
}

// TodayPageViews sums page views recorded since UTC midnight.
func (s *StatsService) TodayPageViews(ctx context.Context) (int64, error) {
	start := utcMidnight(time.Now())
	var total int64
	err := s.db.WithContext(ctx).Model(&models.PageView{}).
		Where("date >= ? AND date < ?", start, start.AddDate(0, 0, 1)).
		Select("COALESCE(SUM(count),0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum page views: %w", err)
	}
	return total, nil
}

// Collect gathers the forum summary. categories is the registry size.
func (s *StatsService) Collect(ctx context.Context, categories int) (ForumStats, error) {
	st := ForumStats{Categories: categories}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&st.Users).Error; err != nil {
		return ForumStats{}, fmt.Errorf("count users: %w", err)
	}
	if err := db.Model(&models.Thread{}).Count(&st.Threads).Error; err != nil {
		return ForumStats{}, fmt.Errorf("count threads: %w", err)
	}
	if err := db.Model(&models.Reply{}).Count(&st.Replies).Error; err != nil {
		return ForumStats{}, fmt.Errorf("count replies: %w", err)
	}
	pv, err := s.TodayPageViews(ctx)
	if err != nil {
		return ForumStats{}, err
	}
	st.PageViews = pv
	return st, nil
}
