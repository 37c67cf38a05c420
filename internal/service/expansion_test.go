package service

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citasalud/citasalud-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandConfigGeneratesSlotsOnMatchingWeekdays(t *testing.T) {
	// 2026-03-02 is a Monday.
	cfg := &models.ConfigAvailability{
		ID:              "cfg-1",
		DoctorID:        "doc-1",
		SpecialtyID:     "spec-1",
		Mode:            models.ModeInPerson,
		StartDate:       date(2026, time.March, 2),
		StartHour:       "09:00",
		EndHour:         "10:00",
		DurationMinutes: 30,
		DaysOfWeek:      pq.Int64Array{1},
	}

	slots, err := ExpandConfig(cfg, date(2026, time.March, 2), date(2026, time.March, 8), time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), slots[0].StartTime)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC), slots[0].EndTime)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC), slots[1].StartTime)
	assert.Equal(t, time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC), slots[1].EndTime)

	for _, slot := range slots {
		assert.Equal(t, models.AvailabilityAvailable, slot.Status)
		require.NotNil(t, slot.ConfigID)
		assert.Equal(t, "cfg-1", *slot.ConfigID)
		assert.Equal(t, "doc-1", slot.DoctorID)
	}
}

func TestExpandConfigDropsPartialTrailingSlot(t *testing.T) {
	// 50-minute window with 30-minute slots leaves a 20-minute tail that
	// must never be emitted.
	cfg := &models.ConfigAvailability{
		ID:              "cfg-1",
		DoctorID:        "doc-1",
		StartDate:       date(2026, time.March, 2),
		StartHour:       "09:00",
		EndHour:         "09:50",
		DurationMinutes: 30,
		DaysOfWeek:      pq.Int64Array{1},
	}

	slots, err := ExpandConfig(cfg, date(2026, time.March, 2), date(2026, time.March, 2), time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC), slots[0].EndTime)
}

func TestExpandConfigHonorsEndDateAndRange(t *testing.T) {
	end := date(2026, time.March, 9)
	cfg := &models.ConfigAvailability{
		ID:              "cfg-1",
		DoctorID:        "doc-1",
		StartDate:       date(2026, time.March, 2),
		EndDate:         &end,
		StartHour:       "08:00",
		EndHour:         "09:00",
		DurationMinutes: 60,
		DaysOfWeek:      pq.Int64Array{1}, // Mondays: Mar 2 and Mar 9
	}

	slots, err := ExpandConfig(cfg, date(2026, time.March, 1), date(2026, time.March, 31), time.UTC)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 2, slots[0].StartTime.Day())
	assert.Equal(t, 9, slots[1].StartTime.Day())
}

func TestExpandConfigIsDeterministic(t *testing.T) {
	cfg := &models.ConfigAvailability{
		ID:              "cfg-1",
		DoctorID:        "doc-1",
		StartDate:       date(2026, time.March, 2),
		StartHour:       "09:00",
		EndHour:         "12:00",
		DurationMinutes: 45,
		DaysOfWeek:      pq.Int64Array{1, 3, 5},
	}

	first, err := ExpandConfig(cfg, date(2026, time.March, 2), date(2026, time.March, 15), time.UTC)
	require.NoError(t, err)
	second, err := ExpandConfig(cfg, date(2026, time.March, 2), date(2026, time.March, 15), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpandConfigRejectsInvertedHours(t *testing.T) {
	cfg := &models.ConfigAvailability{
		StartDate:       date(2026, time.March, 2),
		StartHour:       "10:00",
		EndHour:         "09:00",
		DurationMinutes: 30,
		DaysOfWeek:      pq.Int64Array{1},
	}
	_, err := ExpandConfig(cfg, date(2026, time.March, 2), date(2026, time.March, 8), time.UTC)
	require.Error(t, err)
}

func TestDedupeSlotsSplitsFreshFromExisting(t *testing.T) {
	mk := func(day, hour int) models.Availability {
		return models.Availability{
			DoctorID:  "doc-1",
			StartTime: time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2026, time.March, day, hour+1, 0, 0, 0, time.UTC),
		}
	}

	existing := []models.Availability{mk(2, 9), mk(2, 10)}
	candidates := []models.Availability{mk(2, 9), mk(2, 10), mk(9, 9)}

	fresh, duplicates := dedupeSlots(candidates, existing)
	require.Len(t, fresh, 1)
	require.Len(t, duplicates, 2)
	assert.Equal(t, 9, fresh[0].StartTime.Day())
}

func TestIsoWeekday(t *testing.T) {
	assert.Equal(t, 1, isoWeekday(date(2026, time.March, 2))) // Monday
	assert.Equal(t, 7, isoWeekday(date(2026, time.March, 8))) // Sunday
	assert.Equal(t, 4, isoWeekday(date(2026, time.March, 5))) // Thursday
}
