package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

type windowReaderStub struct {
	slots []models.Availability
	calls int
}

func (s *windowReaderStub) ListByDoctorWindow(ctx context.Context, doctorID string, from, to time.Time) ([]models.Availability, error) {
	s.calls++
	return s.slots, nil
}

type cacheStub struct {
	values  map[string][]models.CalendarDay
	deleted []string
}

func (s *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	days, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*[]models.CalendarDay)) = days
	return nil
}

func (s *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string][]models.CalendarDay)
	}
	s.values[key] = value.([]models.CalendarDay)
	return nil
}

func (s *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	return nil
}

func configSlot(day, hour int) models.Availability {
	configID := "cfg-1"
	return models.Availability{
		DoctorID:  "doc-1",
		ConfigID:  &configID,
		StartTime: time.Date(2026, time.September, day, hour, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, time.September, day, hour, 30, 0, 0, time.UTC),
		Status:    models.AvailabilityAvailable,
	}
}

func individualSlot(day, hour int) models.Availability {
	slot := configSlot(day, hour)
	slot.ConfigID = nil
	return slot
}

func TestClassifyDayScansEverySlot(t *testing.T) {
	assert.Equal(t, models.DayBoth, ClassifyDay([]models.Availability{individualSlot(7, 9), configSlot(7, 10)}))
	assert.Equal(t, models.DayConfig, ClassifyDay([]models.Availability{configSlot(7, 9), configSlot(7, 10)}))
	assert.Equal(t, models.DayIndividual, ClassifyDay([]models.Availability{individualSlot(7, 9)}))
	assert.Equal(t, models.DayNone, ClassifyDay(nil))
}

func TestGroupByDaySortsDaysAndSlots(t *testing.T) {
	svc := NewCalendarService(&windowReaderStub{}, nil, nil, nil, time.UTC, false, 0)

	days := svc.GroupByDay([]models.Availability{
		configSlot(9, 11),
		individualSlot(7, 10),
		configSlot(7, 9),
		configSlot(9, 9),
	})

	require.Len(t, days, 2)
	assert.Equal(t, "2026-09-07", days[0].Date)
	assert.Equal(t, models.DayBoth, days[0].Classification)
	assert.Equal(t, 9, days[0].Availabilities[0].StartTime.Hour())
	assert.Equal(t, 10, days[0].Availabilities[1].StartTime.Hour())

	assert.Equal(t, "2026-09-09", days[1].Date)
	assert.Equal(t, models.DayConfig, days[1].Classification)
}

func TestMonthViewUsesCache(t *testing.T) {
	reader := &windowReaderStub{slots: []models.Availability{configSlot(7, 9)}}
	cache := &cacheStub{}
	svc := NewCalendarService(reader, cache, nil, nil, time.UTC, true, time.Minute)

	first, err := svc.MonthView(context.Background(), "doc-1", 2026, time.September)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, reader.calls)

	second, err := svc.MonthView(context.Background(), "doc-1", 2026, time.September)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reader.calls, "second call must be served from cache")
}

func TestMonthViewValidatesInput(t *testing.T) {
	svc := NewCalendarService(&windowReaderStub{}, nil, nil, nil, time.UTC, false, 0)

	_, err := svc.MonthView(context.Background(), "", 2026, time.September)
	require.Error(t, err)

	_, err = svc.MonthView(context.Background(), "doc-1", 2026, time.Month(13))
	require.Error(t, err)
}

func TestInvalidateDoctorDropsCachedMonths(t *testing.T) {
	cache := &cacheStub{}
	svc := NewCalendarService(&windowReaderStub{}, cache, nil, nil, time.UTC, true, time.Minute)

	svc.InvalidateDoctor(context.Background(), "doc-1")
	require.Len(t, cache.deleted, 1)
	assert.Equal(t, "calendar:doctor:doc-1:*", cache.deleted[0])
}
