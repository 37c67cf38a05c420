package dto

import "time"

// CreateAvailabilityRequest defines payload for an individual slot.
type CreateAvailabilityRequest struct {
	DoctorID        string    `json:"doctorId" validate:"required"`
	SpecialtyID     string    `json:"specialtyId" validate:"required"`
	Mode            string    `json:"mode" validate:"required,oneof=IN_PERSON VIRTUAL"`
	StartTime       time.Time `json:"startTime" validate:"required"`
	EndTime         time.Time `json:"endTime" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"required,gt=0"`
}

// DeleteAvailabilityResult acknowledges a slot deletion.
type DeleteAvailabilityResult struct {
	Deleted bool `json:"deleted"`
}
