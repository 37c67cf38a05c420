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

const availabilityColumns = `id, doctor_id, specialty_id, config_id, mode, start_time, end_time, duration_minutes, status, created_at, updated_at`

// AvailabilityRepository handles persistence of bookable slots.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create inserts a single availability row.
func (r *AvailabilityRepository) Create(ctx context.Context, slot *models.Availability) error {
	now := time.Now().UTC()
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.Status == "" {
		slot.Status = models.AvailabilityAvailable
	}
	slot.CreatedAt = now
	slot.UpdatedAt = now

	const query = `
INSERT INTO availabilities (id, doctor_id, specialty_id, config_id, mode, start_time, end_time, duration_minutes, status, created_at, updated_at)
VALUES (:id, :doctor_id, :specialty_id, :config_id, :mode, :start_time, :end_time, :duration_minutes, :status, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, slot); err != nil {
		return fmt.Errorf("insert availability: %w", err)
	}
	return nil
}

// FindByID returns an availability by its ID.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.Availability, error) {
	query := fmt.Sprintf(`SELECT %s FROM availabilities WHERE id = $1`, availabilityColumns)
	var slot models.Availability
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// CountOverlapping counts slots for the doctor whose half-open interval
// intersects [start, end). Overlap is enforced globally per doctor,
// regardless of specialty or mode.
func (r *AvailabilityRepository) CountOverlapping(ctx context.Context, doctorID string, start, end time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM availabilities WHERE doctor_id = $1 AND start_time < $3 AND end_time > $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, doctorID, start, end); err != nil {
		return 0, fmt.Errorf("count overlapping availabilities: %w", err)
	}
	return count, nil
}

// ListByDoctorWindow returns every slot for the doctor intersecting the window,
// ordered by start time. Used for overlap pre-checks and calendar reads.
func (r *AvailabilityRepository) ListByDoctorWindow(ctx context.Context, doctorID string, from, to time.Time) ([]models.Availability, error) {
	query := fmt.Sprintf(`SELECT %s FROM availabilities
WHERE doctor_id = $1 AND start_time < $3 AND end_time > $2
ORDER BY start_time ASC`, availabilityColumns)
	var slots []models.Availability
	if err := r.db.SelectContext(ctx, &slots, query, doctorID, from, to); err != nil {
		return nil, fmt.Errorf("list availabilities by window: %w", err)
	}
	return slots, nil
}

// ListByConfig returns all slots materialised from a config.
func (r *AvailabilityRepository) ListByConfig(ctx context.Context, configID string) ([]models.Availability, error) {
	query := fmt.Sprintf(`SELECT %s FROM availabilities WHERE config_id = $1 ORDER BY start_time ASC`, availabilityColumns)
	var slots []models.Availability
	if err := r.db.SelectContext(ctx, &slots, query, configID); err != nil {
		return nil, fmt.Errorf("list availabilities by config: %w", err)
	}
	return slots, nil
}

// Search returns slots filtered by the provided criteria. When filter.All is
// set pagination is skipped and the total equals the result length.
func (r *AvailabilityRepository) Search(ctx context.Context, filter models.AvailabilityFilter) ([]models.Availability, int, error) {
	var conditions []string
	var args []interface{}

	if filter.DoctorID != "" {
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", len(args)+1))
		args = append(args, filter.DoctorID)
	}
	if filter.SpecialtyID != "" {
		conditions = append(conditions, fmt.Sprintf("specialty_id = $%d", len(args)+1))
		args = append(args, filter.SpecialtyID)
	}
	if filter.Mode != "" {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", len(args)+1))
		args = append(args, filter.Mode)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
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

	if filter.All {
		query := fmt.Sprintf(`SELECT %s FROM availabilities%s ORDER BY start_time ASC`, availabilityColumns, clause)
		var slots []models.Availability
		if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
			return nil, 0, fmt.Errorf("search availabilities: %w", err)
		}
		return slots, len(slots), nil
	}

	page, limit := models.NormalizePageLimit(filter.Page, filter.Limit)
	offset := (page - 1) * limit

	query := fmt.Sprintf(`SELECT %s FROM availabilities%s ORDER BY start_time ASC LIMIT %d OFFSET %d`,
		availabilityColumns, clause, limit, offset)
	var slots []models.Availability
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("search availabilities: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM availabilities%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count availabilities: %w", err)
	}
	return slots, total, nil
}

// Delete removes a single availability row.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM availabilities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
