package dto

// CreateAppointmentRequest books an available slot. PatientID is optional
// for PATIENT callers (taken from the token) and required for ADMIN/DOCTOR.
type CreateAppointmentRequest struct {
	AvailabilityID string `json:"availabilityId" validate:"required"`
	PatientID      string `json:"patientId,omitempty"`
}
