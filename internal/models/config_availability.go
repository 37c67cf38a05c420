package models

import (
	"time"

	"github.com/lib/pq"
)

// ConfigAvailability is a recurring template that materialises into
// concrete availabilities. Hours are wall-clock "HH:mm" strings applied
// on each matching weekday; days of week are ISO (Monday=1 .. Sunday=7).
type ConfigAvailability struct {
	ID              string          `db:"id" json:"id"`
	DoctorID        string          `db:"doctor_id" json:"doctor_id"`
	SpecialtyID     string          `db:"specialty_id" json:"specialty_id"`
	Mode            AppointmentMode `db:"mode" json:"mode"`
	StartDate       time.Time       `db:"start_date" json:"start_date"`
	EndDate         *time.Time      `db:"end_date" json:"end_date,omitempty"`
	StartHour       string          `db:"start_hour" json:"start_hour"`
	EndHour         string          `db:"end_hour" json:"end_hour"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	DaysOfWeek      pq.Int64Array   `db:"days_of_week" json:"days_of_week"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// HasDay reports whether the ISO weekday belongs to the recurrence set.
func (c *ConfigAvailability) HasDay(isoWeekday int) bool {
	for _, d := range c.DaysOfWeek {
		if int(d) == isoWeekday {
			return true
		}
	}
	return false
}

// ConfigDeleteResult summarises a cascade deletion.
type ConfigDeleteResult struct {
	DeletedAvailabilities int `json:"deleted_availabilities"`
	CancelledAppointments int `json:"cancelled_appointments"`
}
