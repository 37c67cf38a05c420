package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

type specialtyStore interface {
	List(ctx context.Context) ([]models.Specialty, error)
	FindByID(ctx context.Context, id string) (*models.Specialty, error)
}

type doctorStore interface {
	List(ctx context.Context) ([]models.Doctor, error)
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
	ListSpecialties(ctx context.Context, doctorID string) ([]models.Specialty, error)
}

// SpecialtyService exposes the specialty and doctor registry.
type SpecialtyService struct {
	specialties specialtyStore
	doctors     doctorStore
	logger      *zap.Logger
}

// NewSpecialtyService constructs the service.
func NewSpecialtyService(specialties specialtyStore, doctors doctorStore, logger *zap.Logger) *SpecialtyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecialtyService{specialties: specialties, doctors: doctors, logger: logger}
}

// ListSpecialties returns every registered specialty.
func (s *SpecialtyService) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	specialties, err := s.specialties.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list specialties")
	}
	return specialties, nil
}

// ListDoctors returns every registered doctor.
func (s *SpecialtyService) ListDoctors(ctx context.Context) ([]models.Doctor, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list doctors")
	}
	return doctors, nil
}

// GetDoctor returns one doctor with their specialties attached.
func (s *SpecialtyService) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	doctor, err := s.doctors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}

	specialties, err := s.doctors.ListSpecialties(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor specialties")
	}
	doctor.Specialties = specialties
	return doctor, nil
}
