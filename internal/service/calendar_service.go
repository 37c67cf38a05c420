package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type windowReader interface {
	ListByDoctorWindow(ctx context.Context, doctorID string, from, to time.Time) ([]models.Availability, error)
}

// CalendarService produces per-doctor month views grouped by local date
// and classified by slot origin. Month views are cached in Redis and
// invalidated whenever the doctor's schedule changes.
type CalendarService struct {
	slots        windowReader
	cache        calendarCache
	metrics      *MetricsService
	logger       *zap.Logger
	location     *time.Location
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewCalendarService builds the service. A nil cache disables caching.
func NewCalendarService(slots windowReader, cache calendarCache, metrics *MetricsService, logger *zap.Logger, location *time.Location, cacheEnabled bool, cacheTTL time.Duration) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CalendarService{
		slots:        slots,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		location:     location,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
	}
}

// MonthView returns every day of the given month that has at least one
// availability for the doctor, in ascending date order.
func (s *CalendarService) MonthView(ctx context.Context, doctorID string, year int, month time.Month) ([]models.CalendarDay, error) {
	if doctorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "doctorId is required")
	}
	if year < 2000 || year > 2100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is out of range")
	}
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}

	key := monthViewKey(doctorID, year, month)
	if s.cacheEnabled {
		var cached []models.CalendarDay
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		}
		s.metrics.RecordCacheOperation(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("calendar cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, s.location)
	to := from.AddDate(0, 1, 0)
	start := time.Now()
	slots, err := s.slots.ListByDoctorWindow(ctx, doctorID, from, to)
	s.metrics.ObserveDBQuery("calendar_month_window", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor calendar")
	}

	days := s.GroupByDay(slots)
	if s.cacheEnabled {
		if err := s.cache.Set(ctx, key, days, s.cacheTTL); err != nil {
			s.logger.Warn("calendar cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return days, nil
}

// GroupByDay buckets slots by their local calendar date. Days come back
// sorted ascending and each day's slots sorted by start time.
func (s *CalendarService) GroupByDay(slots []models.Availability) []models.CalendarDay {
	buckets := make(map[string][]models.Availability)
	for _, slot := range slots {
		date := slot.StartTime.In(s.location).Format("2006-01-02")
		buckets[date] = append(buckets[date], slot)
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]models.CalendarDay, 0, len(dates))
	for _, date := range dates {
		group := buckets[date]
		sort.Slice(group, func(i, j int) bool {
			return group[i].StartTime.Before(group[j].StartTime)
		})
		days = append(days, models.CalendarDay{
			Date:           date,
			Classification: ClassifyDay(group),
			Availabilities: group,
		})
	}
	return days
}

// ClassifyDay inspects every slot of a day: a day can hold both individual
// and config-generated slots, so scanning must not stop at the first hit.
func ClassifyDay(slots []models.Availability) models.DayClassification {
	var individual, generated bool
	for _, slot := range slots {
		if slot.IsGenerated() {
			generated = true
		} else {
			individual = true
		}
	}
	switch {
	case individual && generated:
		return models.DayBoth
	case generated:
		return models.DayConfig
	case individual:
		return models.DayIndividual
	default:
		return models.DayNone
	}
}

// InvalidateDoctor drops every cached month view for the doctor. Failures
// are logged rather than propagated: a stale cache entry expires on its
// own TTL and must never fail the write that triggered the invalidation.
func (s *CalendarService) InvalidateDoctor(ctx context.Context, doctorID string) {
	if !s.cacheEnabled || doctorID == "" {
		return
	}
	pattern := fmt.Sprintf("calendar:doctor:%s:*", doctorID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("calendar cache invalidation failed",
			zap.String("doctor_id", doctorID), zap.Error(err))
	}
}

func monthViewKey(doctorID string, year int, month time.Month) string {
	return fmt.Sprintf("calendar:doctor:%s:%04d-%02d", doctorID, year, int(month))
}
