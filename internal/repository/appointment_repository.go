package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/citasalud/citasalud-api/internal/models"
)

const appointmentColumns = `id, availability_id, doctor_id, patient_id, mode, start_time, end_time, status, created_at, updated_at`

// AppointmentRepository handles persistence of appointments and owns the
// booking transaction.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// FindByID returns an appointment by its ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// Book atomically flips the availability to BOOKED and inserts the
// appointment. The conditional update is the whole concurrency story:
// of N concurrent bookings for one slot exactly one sees an affected row.
// Returns false with no side effects when the slot was not AVAILABLE.
func (r *AppointmentRepository) Book(ctx context.Context, appt *models.Appointment) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	const flip = `UPDATE availabilities SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := tx.ExecContext(ctx, flip, appt.AvailabilityID, models.AvailabilityBooked, now, models.AvailabilityAvailable)
	if err != nil {
		return false, fmt.Errorf("flip availability status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("flip availability status: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	appt.Status = models.AppointmentBooked
	appt.CreatedAt = now
	appt.UpdatedAt = now

	const insert = `
INSERT INTO appointments (id, availability_id, doctor_id, patient_id, mode, start_time, end_time, status, created_at, updated_at)
VALUES (:id, :availability_id, :doctor_id, :patient_id, :mode, :start_time, :end_time, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insert, appt); err != nil {
		return false, fmt.Errorf("insert appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit booking tx: %w", err)
	}
	return true, nil
}

// CancelAndRelease marks the appointment CANCELLED and returns its slot to
// AVAILABLE in one transaction so the slot becomes rebookable. The update is
// conditional on the appointment still being cancellable.
func (r *AppointmentRepository) CancelAndRelease(ctx context.Context, appointmentID, availabilityID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	const cancel = `UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1 AND status IN ($4, $5)`
	res, err := tx.ExecContext(ctx, cancel, appointmentID, models.AppointmentCancelled, now,
		models.AppointmentBooked, models.AppointmentOngoing)
	if err != nil {
		return false, fmt.Errorf("cancel appointment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel appointment: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	const release = `UPDATE availabilities SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	if _, err := tx.ExecContext(ctx, release, availabilityID, models.AvailabilityAvailable, now, models.AvailabilityBooked); err != nil {
		return false, fmt.Errorf("release availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit cancel tx: %w", err)
	}
	return true, nil
}

// UpdateStatusFrom transitions the appointment to a new status only when its
// current status is one of the allowed origins.
func (r *AppointmentRepository) UpdateStatusFrom(ctx context.Context, id string, next models.AppointmentStatus, from ...models.AppointmentStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("update appointment status: no origin states")
	}
	placeholders := make([]string, len(from))
	args := []interface{}{id, next, time.Now().UTC()}
	for i, status := range from {
		placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
		args = append(args, status)
	}

	query := fmt.Sprintf(`UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1 AND status IN (%s)`,
		strings.Join(placeholders, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update appointment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update appointment status: %w", err)
	}
	return affected == 1, nil
}

// Search returns appointments filtered by the provided criteria with
// page/limit pagination, ordered by start time.
func (r *AppointmentRepository) Search(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var conditions []string
	var args []interface{}

	if filter.DoctorID != "" {
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", len(args)+1))
		args = append(args, filter.DoctorID)
	}
	if filter.PatientID != "" {
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)+1))
		args = append(args, filter.PatientID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Mode != "" {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", len(args)+1))
		args = append(args, filter.Mode)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("end_time > $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, limit := models.NormalizePageLimit(filter.Page, filter.Limit)
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT %s FROM appointments%s ORDER BY start_time %s LIMIT %d OFFSET %d`,
		appointmentColumns, clause, order, limit, offset)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search appointments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM appointments%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	return appointments, total, nil
}
