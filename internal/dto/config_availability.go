package dto

// CreateConfigAvailabilityRequest defines payload for a recurring template.
// Dates use "2006-01-02", hours use "15:04"; days of week are ISO (Mon=1).
type CreateConfigAvailabilityRequest struct {
	DoctorID        string `json:"doctorId" validate:"required"`
	SpecialtyID     string `json:"specialtyId" validate:"required"`
	Mode            string `json:"mode" validate:"required,oneof=IN_PERSON VIRTUAL"`
	StartDate       string `json:"startDate" validate:"required"`
	EndDate         string `json:"endDate,omitempty"`
	StartHour       string `json:"startHour" validate:"required"`
	EndHour         string `json:"endHour" validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,gt=0"`
	DaysOfWeek      []int  `json:"daysOfWeek" validate:"required,min=1,dive,gte=1,lte=7"`
}

// AppointmentsCountResponse supports the pre-delete confirmation flow.
type AppointmentsCountResponse struct {
	Count int `json:"count"`
}

// RematerializeResult reports how many slots a re-expansion produced.
type RematerializeResult struct {
	CreatedSlots int `json:"created_slots"`
	SkippedSlots int `json:"skipped_slots"`
}
