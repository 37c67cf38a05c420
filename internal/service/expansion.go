package service

import (
	"fmt"
	"time"

	"github.com/citasalud/citasalud-api/internal/models"
)

// clockTime is a wall-clock "HH:mm" value detached from any date.
type clockTime struct {
	hour   int
	minute int
}

func parseClock(raw string) (clockTime, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return clockTime{}, fmt.Errorf("invalid clock time %q: %w", raw, err)
	}
	return clockTime{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}

func (c clockTime) minutes() int {
	return c.hour*60 + c.minute
}

// on anchors the clock time on a calendar date in the given location.
func (c clockTime) on(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.hour, c.minute, 0, 0, loc)
}

// isoWeekday maps Go's Sunday-based weekday to ISO numbering (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// dateOf truncates a time to midnight of its calendar date in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ExpandConfig materialises the recurring template into concrete slots over
// [rangeStart, rangeEnd]. It is pure and deterministic: identical inputs
// always produce identical slot boundaries.
//
// For each calendar date in the intersection of the config's date range and
// the requested range whose ISO weekday belongs to the recurrence set,
// consecutive slots of durationMinutes are generated starting at startHour.
// A trailing window shorter than one full slot is dropped, never emitted.
func ExpandConfig(cfg *models.ConfigAvailability, rangeStart, rangeEnd time.Time, loc *time.Location) ([]models.Availability, error) {
	startClock, err := parseClock(cfg.StartHour)
	if err != nil {
		return nil, err
	}
	endClock, err := parseClock(cfg.EndHour)
	if err != nil {
		return nil, err
	}
	if startClock.minutes() >= endClock.minutes() {
		return nil, fmt.Errorf("start hour %s must precede end hour %s", cfg.StartHour, cfg.EndHour)
	}
	if cfg.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", cfg.DurationMinutes)
	}

	lower := dateOf(cfg.StartDate, loc)
	if rs := dateOf(rangeStart, loc); rs.After(lower) {
		lower = rs
	}
	upper := dateOf(rangeEnd, loc)
	if cfg.EndDate != nil {
		if ce := dateOf(*cfg.EndDate, loc); ce.Before(upper) {
			upper = ce
		}
	}

	duration := time.Duration(cfg.DurationMinutes) * time.Minute
	var slots []models.Availability

	for day := lower; !day.After(upper); day = day.AddDate(0, 0, 1) {
		if !cfg.HasDay(isoWeekday(day)) {
			continue
		}
		windowEnd := endClock.on(day, loc)
		for slotStart := startClock.on(day, loc); !slotStart.Add(duration).After(windowEnd); slotStart = slotStart.Add(duration) {
			configID := cfg.ID
			slots = append(slots, models.Availability{
				DoctorID:        cfg.DoctorID,
				SpecialtyID:     cfg.SpecialtyID,
				ConfigID:        &configID,
				Mode:            cfg.Mode,
				StartTime:       slotStart,
				EndTime:         slotStart.Add(duration),
				DurationMinutes: cfg.DurationMinutes,
				Status:          models.AvailabilityAvailable,
			})
		}
	}

	return slots, nil
}

// slotKey identifies a materialised slot for de-duplication during
// re-expansion.
type slotKey struct {
	doctorID string
	start    int64
	end      int64
}

func keyOf(slot models.Availability) slotKey {
	return slotKey{doctorID: slot.DoctorID, start: slot.StartTime.Unix(), end: slot.EndTime.Unix()}
}

// dedupeSlots splits candidates into slots that are new and slots whose
// (doctor, startTime, endTime) identity already exists for the config.
func dedupeSlots(candidates []models.Availability, existing []models.Availability) (fresh, duplicates []models.Availability) {
	seen := make(map[slotKey]struct{}, len(existing))
	for _, slot := range existing {
		seen[keyOf(slot)] = struct{}{}
	}
	for _, candidate := range candidates {
		if _, ok := seen[keyOf(candidate)]; ok {
			duplicates = append(duplicates, candidate)
			continue
		}
		fresh = append(fresh, candidate)
	}
	return fresh, duplicates
}
