package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type configStore interface {
	FindByID(ctx context.Context, id string) (*models.ConfigAvailability, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]models.ConfigAvailability, error)
	List(ctx context.Context) ([]models.ConfigAvailability, error)
	CreateWithSlots(ctx context.Context, cfg *models.ConfigAvailability, slots []models.Availability) error
	InsertSlots(ctx context.Context, configID string, slots []models.Availability) error
	DeleteCascade(ctx context.Context, configID string) (*models.ConfigDeleteResult, error)
	CountActiveAppointments(ctx context.Context, configID string) (int, error)
}

type slotWindowReader interface {
	ListByDoctorWindow(ctx context.Context, doctorID string, from, to time.Time) ([]models.Availability, error)
	ListByConfig(ctx context.Context, configID string) ([]models.Availability, error)
}

type doctorReader interface {
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
	HasSpecialty(ctx context.Context, doctorID, specialtyID string) (bool, error)
}

type calendarInvalidator interface {
	InvalidateDoctor(ctx context.Context, doctorID string)
}

// ConfigAvailabilityService owns recurring templates and their expansion
// into concrete slots.
type ConfigAvailabilityService struct {
	repo                configStore
	slots               slotWindowReader
	doctors             doctorReader
	calendar            calendarInvalidator
	metrics             *MetricsService
	validator           *validator.Validate
	logger              *zap.Logger
	location            *time.Location
	materializationDays int
}

// NewConfigAvailabilityService builds the service with sane defaults.
func NewConfigAvailabilityService(
	repo configStore,
	slots slotWindowReader,
	doctors doctorReader,
	calendar calendarInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	location *time.Location,
	materializationDays int,
) *ConfigAvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if materializationDays <= 0 {
		materializationDays = 90
	}
	return &ConfigAvailabilityService{
		repo:                repo,
		slots:               slots,
		doctors:             doctors,
		calendar:            calendar,
		metrics:             metrics,
		validator:           validate,
		logger:              logger,
		location:            location,
		materializationDays: materializationDays,
	}
}

// Create validates the template, expands it over its materialisation window,
// verifies none of the generated slots collide with existing availabilities
// for the doctor and persists everything atomically. On any conflict nothing
// is written.
func (s *ConfigAvailabilityService) Create(ctx context.Context, req dto.CreateConfigAvailabilityRequest, actor *models.JWTClaims) (*models.ConfigAvailability, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := ensureScheduleOwner(req.DoctorID, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid config availability payload")
	}

	cfg, err := s.buildConfig(req)
	if err != nil {
		return nil, err
	}

	if err := s.ensureDoctorSpecialty(ctx, cfg.DoctorID, cfg.SpecialtyID); err != nil {
		return nil, err
	}

	windowStart := cfg.StartDate
	windowEnd := s.materializationEnd(cfg)

	generated, err := ExpandConfig(cfg, windowStart, windowEnd, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if len(generated) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "configuration generates no slots: check days of week, hours and duration")
	}

	existing, err := s.slots.ListByDoctorWindow(ctx, cfg.DoctorID, generated[0].StartTime, generated[len(generated)-1].EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing availabilities")
	}
	if conflict := firstOverlap(generated, existing); conflict != nil {
		return nil, appErrors.Clone(appErrors.ErrOverlap, fmt.Sprintf(
			"generated slot %s-%s overlaps an existing availability",
			conflict.StartTime.In(s.location).Format("2006-01-02 15:04"),
			conflict.EndTime.In(s.location).Format("15:04")))
	}

	if err := s.repo.CreateWithSlots(ctx, cfg, generated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist config availability")
	}

	s.calendar.InvalidateDoctor(ctx, cfg.DoctorID)
	s.metrics.AddSlotsGenerated(len(generated))
	s.logger.Info("config availability created",
		zap.String("config_id", cfg.ID),
		zap.String("doctor_id", cfg.DoctorID),
		zap.Int("generated_slots", len(generated)))
	return cfg, nil
}

// Get returns a config visible to the actor.
func (s *ConfigAvailabilityService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ConfigAvailability, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	cfg, err := s.loadConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureScheduleOwner(cfg.DoctorID, actor); err != nil {
		return nil, err
	}
	return cfg, nil
}

// List returns the actor's configs; admins see every doctor's.
func (s *ConfigAvailabilityService) List(ctx context.Context, actor *models.JWTClaims) ([]models.ConfigAvailability, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin:
		configs, err := s.repo.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list configs")
		}
		return configs, nil
	case models.RoleDoctor:
		configs, err := s.repo.ListByDoctor(ctx, actor.DoctorID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list configs")
		}
		return configs, nil
	default:
		return nil, appErrors.ErrForbidden
	}
}

// Delete removes the config and cascades over its derived slots: BOOKED
// slots get their appointment cancelled before the slot row is deleted,
// all inside one transaction.
func (s *ConfigAvailabilityService) Delete(ctx context.Context, id string, actor *models.JWTClaims) (*models.ConfigDeleteResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	cfg, err := s.loadConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureScheduleOwner(cfg.DoctorID, actor); err != nil {
		return nil, err
	}

	result, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete config availability")
	}

	s.calendar.InvalidateDoctor(ctx, cfg.DoctorID)
	s.logger.Info("config availability deleted",
		zap.String("config_id", id),
		zap.Int("cancelled_appointments", result.CancelledAppointments),
		zap.Int("deleted_availabilities", result.DeletedAvailabilities))
	return result, nil
}

// AppointmentsCount reports how many active appointments a cascade delete
// would cancel, for pre-delete confirmation.
func (s *ConfigAvailabilityService) AppointmentsCount(ctx context.Context, id string, actor *models.JWTClaims) (int, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}
	cfg, err := s.loadConfig(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := ensureScheduleOwner(cfg.DoctorID, actor); err != nil {
		return 0, err
	}
	count, err := s.repo.CountActiveAppointments(ctx, id)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count appointments")
	}
	return count, nil
}

// Rematerialize re-runs expansion over the config's window, inserting only
// slots that do not already exist. Safe to run any number of times.
func (s *ConfigAvailabilityService) Rematerialize(ctx context.Context, id string, actor *models.JWTClaims) (*dto.RematerializeResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	cfg, err := s.loadConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureScheduleOwner(cfg.DoctorID, actor); err != nil {
		return nil, err
	}

	generated, err := ExpandConfig(cfg, cfg.StartDate, s.materializationEnd(cfg), s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if len(generated) == 0 {
		return &dto.RematerializeResult{}, nil
	}

	existingForConfig, err := s.slots.ListByConfig(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load materialised slots")
	}
	fresh, duplicates := dedupeSlots(generated, existingForConfig)
	if len(fresh) == 0 {
		return &dto.RematerializeResult{SkippedSlots: len(duplicates)}, nil
	}

	existing, err := s.slots.ListByDoctorWindow(ctx, cfg.DoctorID, generated[0].StartTime, generated[len(generated)-1].EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing availabilities")
	}
	if conflict := firstOverlap(fresh, existing); conflict != nil {
		return nil, appErrors.Clone(appErrors.ErrOverlap, fmt.Sprintf(
			"regenerated slot %s-%s overlaps an existing availability",
			conflict.StartTime.In(s.location).Format("2006-01-02 15:04"),
			conflict.EndTime.In(s.location).Format("15:04")))
	}

	if err := s.repo.InsertSlots(ctx, id, fresh); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist regenerated slots")
	}

	s.calendar.InvalidateDoctor(ctx, cfg.DoctorID)
	s.metrics.AddSlotsGenerated(len(fresh))
	return &dto.RematerializeResult{CreatedSlots: len(fresh), SkippedSlots: len(duplicates)}, nil
}

func (s *ConfigAvailabilityService) loadConfig(ctx context.Context, id string) (*models.ConfigAvailability, error) {
	cfg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "config availability not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load config availability")
	}
	return cfg, nil
}

// ensureScheduleOwner allows admins everywhere and doctors on their own
// schedule only. Patients never manage schedules.
func ensureScheduleOwner(doctorID string, actor *models.JWTClaims) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDoctor:
		if actor.DoctorID != "" && actor.DoctorID == doctorID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "doctors may only manage their own schedule")
	default:
		return appErrors.ErrForbidden
	}
}

func (s *ConfigAvailabilityService) ensureDoctorSpecialty(ctx context.Context, doctorID, specialtyID string) error {
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	ok, err := s.doctors.HasSpecialty(ctx, doctorID, specialtyID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify specialty")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "doctor does not attend the requested specialty")
	}
	return nil
}

func (s *ConfigAvailabilityService) buildConfig(req dto.CreateConfigAvailabilityRequest) (*models.ConfigAvailability, error) {
	startDate, err := time.ParseInLocation(dateLayout, req.StartDate, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must use YYYY-MM-DD")
	}
	today := dateOf(time.Now(), s.location)
	if startDate.Before(today) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must not be in the past")
	}

	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, req.EndDate, s.location)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must use YYYY-MM-DD")
		}
		if parsed.Before(startDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
		}
		endDate = &parsed
	}

	startClock, err := parseClock(req.StartHour)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startHour must use HH:mm")
	}
	endClock, err := parseClock(req.EndHour)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endHour must use HH:mm")
	}
	if startClock.minutes() >= endClock.minutes() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startHour must precede endHour")
	}
	if endClock.minutes()-startClock.minutes() < req.DurationMinutes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "durationMinutes exceeds the daily window")
	}

	days := make(pq.Int64Array, 0, len(req.DaysOfWeek))
	seen := make(map[int]struct{}, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, int64(d))
	}

	return &models.ConfigAvailability{
		DoctorID:        req.DoctorID,
		SpecialtyID:     req.SpecialtyID,
		Mode:            models.AppointmentMode(req.Mode),
		StartDate:       startDate,
		EndDate:         endDate,
		StartHour:       req.StartHour,
		EndHour:         req.EndHour,
		DurationMinutes: req.DurationMinutes,
		DaysOfWeek:      days,
	}, nil
}

func (s *ConfigAvailabilityService) materializationEnd(cfg *models.ConfigAvailability) time.Time {
	if cfg.EndDate != nil {
		return *cfg.EndDate
	}
	return cfg.StartDate.AddDate(0, 0, s.materializationDays)
}

// firstOverlap returns the first candidate that collides with any existing
// slot, comparing half-open intervals.
func firstOverlap(candidates, existing []models.Availability) *models.Availability {
	for i := range candidates {
		for j := range existing {
			if candidates[i].Overlaps(existing[j]) {
				return &candidates[i]
			}
		}
	}
	return nil
}
