package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/citasalud/citasalud-api/internal/models"
)

const doctorColumns = `id, user_id, license_number, title, created_at, updated_at`

// DoctorRepository reads doctor reference data and specialty associations.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository constructs the repository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// List returns all doctors.
func (r *DoctorRepository) List(ctx context.Context) ([]models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors ORDER BY created_at ASC`, doctorColumns)
	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// FindByID returns a doctor by its ID.
func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE id = $1`, doctorColumns)
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// FindByUserID returns the doctor profile bound to a user account.
func (r *DoctorRepository) FindByUserID(ctx context.Context, userID string) (*models.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE user_id = $1`, doctorColumns)
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// ListSpecialties returns the specialties associated with a doctor.
func (r *DoctorRepository) ListSpecialties(ctx context.Context, doctorID string) ([]models.Specialty, error) {
	const query = `
SELECT s.id, s.name, s.created_at, s.updated_at
FROM specialties s
JOIN doctor_specialties ds ON ds.specialty_id = s.id
WHERE ds.doctor_id = $1
ORDER BY s.name ASC`
	var specialties []models.Specialty
	if err := r.db.SelectContext(ctx, &specialties, query, doctorID); err != nil {
		return nil, fmt.Errorf("list doctor specialties: %w", err)
	}
	return specialties, nil
}

// HasSpecialty reports whether the doctor is associated with the specialty.
func (r *DoctorRepository) HasSpecialty(ctx context.Context, doctorID, specialtyID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM doctor_specialties WHERE doctor_id = $1 AND specialty_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, doctorID, specialtyID); err != nil {
		return false, fmt.Errorf("check doctor specialty: %w", err)
	}
	return count > 0, nil
}
