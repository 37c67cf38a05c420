package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/citasalud/citasalud-api/internal/models"
)

const configColumns = `id, doctor_id, specialty_id, mode, start_date, end_date, start_hour, end_hour, duration_minutes, days_of_week, created_at, updated_at`

// ConfigAvailabilityRepository handles persistence of recurring templates
// and owns the transactions that keep templates and their derived slots
// consistent.
type ConfigAvailabilityRepository struct {
	db *sqlx.DB
}

// NewConfigAvailabilityRepository constructs the repository.
func NewConfigAvailabilityRepository(db *sqlx.DB) *ConfigAvailabilityRepository {
	return &ConfigAvailabilityRepository{db: db}
}

// FindByID returns a config by its ID.
func (r *ConfigAvailabilityRepository) FindByID(ctx context.Context, id string) (*models.ConfigAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM config_availabilities WHERE id = $1`, configColumns)
	var cfg models.ConfigAvailability
	if err := r.db.GetContext(ctx, &cfg, query, id); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListByDoctor returns all configs owned by the doctor, newest first.
func (r *ConfigAvailabilityRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.ConfigAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM config_availabilities WHERE doctor_id = $1 ORDER BY created_at DESC`, configColumns)
	var configs []models.ConfigAvailability
	if err := r.db.SelectContext(ctx, &configs, query, doctorID); err != nil {
		return nil, fmt.Errorf("list configs by doctor: %w", err)
	}
	return configs, nil
}

// List returns every config, newest first.
func (r *ConfigAvailabilityRepository) List(ctx context.Context) ([]models.ConfigAvailability, error) {
	query := fmt.Sprintf(`SELECT %s FROM config_availabilities ORDER BY created_at DESC`, configColumns)
	var configs []models.ConfigAvailability
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return configs, nil
}

const insertSlotForConfig = `
INSERT INTO availabilities (id, doctor_id, specialty_id, config_id, mode, start_time, end_time, duration_minutes, status, created_at, updated_at)
VALUES (:id, :doctor_id, :specialty_id, :config_id, :mode, :start_time, :end_time, :duration_minutes, :status, :created_at, :updated_at)`

// CreateWithSlots persists the template together with its generated slots in
// one transaction: a conflict part-way through leaves nothing behind.
func (r *ConfigAvailabilityRepository) CreateWithSlots(ctx context.Context, cfg *models.ConfigAvailability, slots []models.Availability) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin config create tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	const insertCfg = `
INSERT INTO config_availabilities (id, doctor_id, specialty_id, mode, start_date, end_date, start_hour, end_hour, duration_minutes, days_of_week, created_at, updated_at)
VALUES (:id, :doctor_id, :specialty_id, :mode, :start_date, :end_date, :start_hour, :end_hour, :duration_minutes, :days_of_week, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insertCfg, cfg); err != nil {
		return fmt.Errorf("insert config availability: %w", err)
	}

	if err := insertConfigSlots(ctx, tx, cfg.ID, slots, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit config create tx: %w", err)
	}
	return nil
}

func insertConfigSlots(ctx context.Context, tx *sqlx.Tx, configID string, slots []models.Availability, now time.Time) error {
	for i := range slots {
		slot := &slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.ConfigID = &configID
		if slot.Status == "" {
			slot.Status = models.AvailabilityAvailable
		}
		slot.CreatedAt = now
		slot.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, tx, insertSlotForConfig, slot); err != nil {
			return fmt.Errorf("insert generated slot: %w", err)
		}
	}
	return nil
}

// DeleteCascade removes the config and every derived slot in one transaction.
// Appointments bound to BOOKED derived slots are cancelled, not deleted: the
// appointment row survives as the record of the transaction while the slot
// row goes away.
func (r *ConfigAvailabilityRepository) DeleteCascade(ctx context.Context, configID string) (*models.ConfigDeleteResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin config delete tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const cancelAppointments = `
UPDATE appointments SET status = $1, updated_at = $2
WHERE availability_id IN (SELECT id FROM availabilities WHERE config_id = $3)
  AND status IN ($4, $5)`
	res, err := tx.ExecContext(ctx, cancelAppointments,
		models.AppointmentCancelled, time.Now().UTC(), configID,
		models.AppointmentBooked, models.AppointmentOngoing)
	if err != nil {
		return nil, fmt.Errorf("cancel appointments for config: %w", err)
	}
	cancelled, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("cancel appointments for config: %w", err)
	}

	const deleteSlots = `DELETE FROM availabilities WHERE config_id = $1`
	res, err = tx.ExecContext(ctx, deleteSlots, configID)
	if err != nil {
		return nil, fmt.Errorf("delete availabilities for config: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("delete availabilities for config: %w", err)
	}

	const deleteCfg = `DELETE FROM config_availabilities WHERE id = $1`
	if _, err := tx.ExecContext(ctx, deleteCfg, configID); err != nil {
		return nil, fmt.Errorf("delete config availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit config delete tx: %w", err)
	}

	return &models.ConfigDeleteResult{
		DeletedAvailabilities: int(deleted),
		CancelledAppointments: int(cancelled),
	}, nil
}

// CountActiveAppointments reports how many BOOKED/ONGOING appointments are
// bound to slots derived from the config. Must stay consistent with what
// DeleteCascade will actually cancel.
func (r *ConfigAvailabilityRepository) CountActiveAppointments(ctx context.Context, configID string) (int, error) {
	const query = `
SELECT COUNT(*) FROM appointments a
JOIN availabilities av ON av.id = a.availability_id
WHERE av.config_id = $1 AND a.status IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, configID, models.AppointmentBooked, models.AppointmentOngoing); err != nil {
		return 0, fmt.Errorf("count active appointments for config: %w", err)
	}
	return count, nil
}

// InsertSlots adds newly materialised slots for an existing config.
func (r *ConfigAvailabilityRepository) InsertSlots(ctx context.Context, configID string, slots []models.Availability) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot insert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertConfigSlots(ctx, tx, configID, slots, time.Now().UTC()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot insert tx: %w", err)
	}
	return nil
}
