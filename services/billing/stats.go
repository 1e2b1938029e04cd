package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	DefaultStatsWindowDays = 30
	maxStatsWindowDays     = 365
	statsCacheTTL          = time.Minute
)

// StatsQuery scopes the rollup; an empty InstructorID means platform-wide
type StatsQuery struct {
	InstructorID string
	WindowDays   int
}

// FinancialStats is the fixed-shape rollup returned to dashboards
type FinancialStats struct {
	GrossRevenue   float64   `json:"gross_revenue"`
	ChurnCount     int64     `json:"churn_count"`
	ActiveStudents int64     `json:"active_students"`
	Currency       string    `json:"currency"`
	WindowDays     int       `json:"window_days"`
	InstructorID   string    `json:"instructor_id,omitempty"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// StatsCache stores rendered rollups. *cache.RedisCache implements it.
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// StatsService computes read-only revenue, churn and enrollment rollups
type StatsService struct {
	db    *gorm.DB
	cache StatsCache
	now   func() time.Time

	// concurrent requests for the same scope and window share one computation
	group singleflight.Group
}

// NewStatsService builds the aggregator; cache may be nil
func NewStatsService(db *gorm.DB, cache StatsCache) *StatsService {
	return &StatsService{
		db:    db,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *StatsService) FinancialStats(ctx context.Context, q StatsQuery) (*FinancialStats, error) {
	days := q.WindowDays
	if days <= 0 {
		days = DefaultStatsWindowDays
	}
	if days > maxStatsWindowDays {
		days = maxStatsWindowDays
	}

	scope := q.InstructorID
	if scope == "" {
		scope = "global"
	}
	cacheKey := fmt.Sprintf("financial_stats:%s:%d", scope, days)

	if s.cache != nil {
		var cached FinancialStats
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	// the shared computation outlives any single caller
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(cacheKey, func() (interface{}, error) {
		return s.compute(flightCtx, q.InstructorID, days, cacheKey)
	})
	if err != nil {
		return nil, err
	}
	return v.(*FinancialStats), nil
}

func (s *StatsService) compute(ctx context.Context, instructorID string, days int, cacheKey string) (*FinancialStats, error) {
	since := s.now().AddDate(0, 0, -days)

	revenue, err := s.grossRevenue(ctx, instructorID, since)
	if err != nil {
		return nil, err
	}
	churn, err := s.churnCount(ctx, instructorID, since)
	if err != nil {
		return nil, err
	}
	active, err := s.activeStudents(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	stats := &FinancialStats{
		GrossRevenue:   decimal.NewFromFloat(revenue).Round(2).InexactFloat64(),
		ChurnCount:     churn,
		ActiveStudents: active,
		Currency:       strings.ToUpper(config.PaymentCurrency()),
		WindowDays:     days,
		InstructorID:   instructorID,
		GeneratedAt:    s.now(),
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, stats, statsCacheTTL); err != nil {
			log.Warnw("[Stats] failed to cache financial stats", "key", cacheKey, "error", err)
		}
	}
	return stats, nil
}

func (s *StatsService) grossRevenue(ctx context.Context, instructorID string, since time.Time) (float64, error) {
	var total float64
	query := s.db.WithContext(ctx).
		Model(&model.Payment{}).
		Select("COALESCE(SUM(payments.amount), 0)").
		Where("payments.status = ? AND payments.created_at >= ?", model.PaymentStatusCompleted, since)

	if instructorID != "" {
		query = query.
			Joins("JOIN courses ON courses.id = payments.course_id").
			Where("courses.instructor_id = ? AND courses.deleted_at IS NULL", instructorID)
	}

	if err := query.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// churnCount counts cancelled subscriptions platform-wide, or cancelled
// enrollments on the instructor's courses
func (s *StatsService) churnCount(ctx context.Context, instructorID string, since time.Time) (int64, error) {
	var count int64

	if instructorID == "" {
		err := s.db.WithContext(ctx).
			Model(&model.AuditLog{}).
			Where("action = ? AND created_at >= ?", model.AuditActionSubscriptionCancelled, since).
			Count(&count).Error
		if err != nil {
			return 0, fmt.Errorf("count cancellations: %w", err)
		}
		return count, nil
	}

	err := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.instructor_id = ? AND courses.deleted_at IS NULL", instructorID).
		Where("enrollments.status = ? AND enrollments.cancelled_at >= ?", model.EnrollmentStatusCancelled, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count cancelled enrollments: %w", err)
	}
	return count, nil
}

func (s *StatsService) activeStudents(ctx context.Context, instructorID string) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("enrollments.status = ?", model.EnrollmentStatusActive)

	if instructorID != "" {
		query = query.
			Joins("JOIN courses ON courses.id = enrollments.course_id").
			Where("courses.instructor_id = ? AND courses.deleted_at IS NULL", instructorID)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}
