package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

type availabilityStore interface {
	Create(ctx context.Context, slot *models.Availability) error
	FindByID(ctx context.Context, id string) (*models.Availability, error)
	CountOverlapping(ctx context.Context, doctorID string, start, end time.Time) (int, error)
	Search(ctx context.Context, filter models.AvailabilityFilter) ([]models.Availability, int, error)
	Delete(ctx context.Context, id string) error
}

// AvailabilityService owns individual bookable slots and their lifecycle.
type AvailabilityService struct {
	repo      availabilityStore
	doctors   doctorReader
	calendar  calendarInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService builds the service with sane defaults.
func NewAvailabilityService(repo availabilityStore, doctors doctorReader, calendar calendarInvalidator, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		repo:      repo,
		doctors:   doctors,
		calendar:  calendar,
		validator: validate,
		logger:    logger,
	}
}

// CreateIndividual persists a manually created slot after verifying it does
// not intersect any existing availability for the doctor. Overlap is checked
// globally per doctor: a doctor cannot offer two slots at once even across
// specialties or modes.
func (s *AvailabilityService) CreateIndividual(ctx context.Context, req dto.CreateAvailabilityRequest, actor *models.JWTClaims) (*models.Availability, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := ensureScheduleOwner(req.DoctorID, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startTime must precede endTime")
	}

	if _, err := s.doctors.FindByID(ctx, req.DoctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	hasSpecialty, err := s.doctors.HasSpecialty(ctx, req.DoctorID, req.SpecialtyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify specialty")
	}
	if !hasSpecialty {
		return nil, appErrors.Clone(appErrors.ErrValidation, "doctor does not attend the requested specialty")
	}

	overlapping, err := s.repo.CountOverlapping(ctx, req.DoctorID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check overlaps")
	}
	if overlapping > 0 {
		return nil, appErrors.ErrOverlap
	}

	slot := &models.Availability{
		DoctorID:        req.DoctorID,
		SpecialtyID:     req.SpecialtyID,
		Mode:            models.AppointmentMode(req.Mode),
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		Status:          models.AvailabilityAvailable,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist availability")
	}

	s.calendar.InvalidateDoctor(ctx, slot.DoctorID)
	s.logger.Info("individual availability created",
		zap.String("availability_id", slot.ID),
		zap.String("doctor_id", slot.DoctorID))
	return slot, nil
}

// Get returns a slot by ID.
func (s *AvailabilityService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Availability, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.loadSlot(ctx, id)
}

// Search lists slots matching the filter. Patients only see bookable slots.
func (s *AvailabilityService) Search(ctx context.Context, filter models.AvailabilityFilter, actor *models.JWTClaims) ([]models.Availability, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RolePatient {
		filter.Status = models.AvailabilityAvailable
	}
	filter.Page, filter.Limit = models.NormalizePageLimit(filter.Page, filter.Limit)

	slots, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search availabilities")
	}
	if filter.All {
		return slots, nil, nil
	}
	return slots, models.NewPagination(total, filter.Page, filter.Limit), nil
}

// Delete removes a slot through the unprivileged path: a BOOKED slot is never
// deleted here, callers must cancel the appointment (or cascade-delete the
// owning config) first.
func (s *AvailabilityService) Delete(ctx context.Context, id string, actor *models.JWTClaims) (*dto.DeleteAvailabilityResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	slot, err := s.loadSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureScheduleOwner(slot.DoctorID, actor); err != nil {
		return nil, err
	}
	if slot.Status == models.AvailabilityBooked {
		return nil, appErrors.ErrSlotBooked
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability")
	}

	s.calendar.InvalidateDoctor(ctx, slot.DoctorID)
	s.logger.Info("availability deleted",
		zap.String("availability_id", id),
		zap.String("doctor_id", slot.DoctorID))
	return &dto.DeleteAvailabilityResult{Deleted: true}, nil
}

func (s *AvailabilityService) loadSlot(ctx context.Context, id string) (*models.Availability, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return slot, nil
}
