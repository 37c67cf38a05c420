package models

import "time"

// AppointmentMode distinguishes in-person from virtual attention.
type AppointmentMode string

const (
	ModeInPerson AppointmentMode = "IN_PERSON"
	ModeVirtual  AppointmentMode = "VIRTUAL"
)

// AvailabilityStatus is the slot state machine.
// AVAILABLE -> BOOKED happens only through appointment booking;
// BOOKED -> AVAILABLE only through appointment cancellation.
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "AVAILABLE"
	AvailabilityBooked    AvailabilityStatus = "BOOKED"
	AvailabilityCancelled AvailabilityStatus = "CANCELLED"
)

// Availability is a single concrete bookable time slot for a doctor.
// ConfigID is nil for individually created slots and set for slots
// materialised from a recurring configuration.
type Availability struct {
	ID              string             `db:"id" json:"id"`
	DoctorID        string             `db:"doctor_id" json:"doctor_id"`
	SpecialtyID     string             `db:"specialty_id" json:"specialty_id"`
	ConfigID        *string            `db:"config_id" json:"config_id,omitempty"`
	Mode            AppointmentMode    `db:"mode" json:"mode"`
	StartTime       time.Time          `db:"start_time" json:"start_time"`
	EndTime         time.Time          `db:"end_time" json:"end_time"`
	DurationMinutes int                `db:"duration_minutes" json:"duration_minutes"`
	Status          AvailabilityStatus `db:"status" json:"status"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether two half-open intervals [s1,e1) and [s2,e2)
// intersect. Slots that merely touch at a boundary do not overlap.
func (a Availability) Overlaps(other Availability) bool {
	return a.StartTime.Before(other.EndTime) && other.StartTime.Before(a.EndTime)
}

// IsGenerated reports whether the slot was materialised from a recurring config.
func (a Availability) IsGenerated() bool {
	return a.ConfigID != nil && *a.ConfigID != ""
}

// AvailabilityFilter captures search criteria for availabilities.
type AvailabilityFilter struct {
	DoctorID    string
	SpecialtyID string
	Mode        AppointmentMode
	Status      AvailabilityStatus
	StartDate   *time.Time
	EndDate     *time.Time
	All         bool
	Page        int
	Limit       int
}
