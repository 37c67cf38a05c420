package models

import "time"

// AppointmentStatus is the booking state machine. BOOKED may move to
// ONGOING, COMPLETED or CANCELLED; COMPLETED and CANCELLED are terminal.
type AppointmentStatus string

const (
	AppointmentBooked    AppointmentStatus = "BOOKED"
	AppointmentOngoing   AppointmentStatus = "ONGOING"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Appointment records a patient booking against exactly one availability.
// The availability row remains the source of truth for bookability; the
// appointment is the record of the transaction.
type Appointment struct {
	ID             string            `db:"id" json:"id"`
	AvailabilityID string            `db:"availability_id" json:"availability_id"`
	DoctorID       string            `db:"doctor_id" json:"doctor_id"`
	PatientID      string            `db:"patient_id" json:"patient_id"`
	Mode           AppointmentMode   `db:"mode" json:"mode"`
	StartTime      time.Time         `db:"start_time" json:"start_time"`
	EndTime        time.Time         `db:"end_time" json:"end_time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether no further transitions are allowed.
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentCancelled
}

// AppointmentFilter captures search criteria for appointments.
type AppointmentFilter struct {
	DoctorID  string
	PatientID string
	Status    AppointmentStatus
	Mode      AppointmentMode
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
	SortOrder string
}
