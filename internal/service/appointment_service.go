package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

type appointmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Book(ctx context.Context, appt *models.Appointment) (bool, error)
	CancelAndRelease(ctx context.Context, appointmentID, availabilityID string) (bool, error)
	UpdateStatusFrom(ctx context.Context, id string, next models.AppointmentStatus, from ...models.AppointmentStatus) (bool, error)
	Search(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
}

type slotReader interface {
	FindByID(ctx context.Context, id string) (*models.Availability, error)
}

// AppointmentService owns booking, cancellation and completion.
type AppointmentService struct {
	repo      appointmentStore
	slots     slotReader
	calendar  calendarInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAppointmentService builds the service with sane defaults.
func NewAppointmentService(repo appointmentStore, slots slotReader, calendar calendarInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:      repo,
		slots:     slots,
		calendar:  calendar,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Book binds a patient to an AVAILABLE slot. The status flip and the
// appointment insert happen in one storage transaction; when two callers
// race for the same slot exactly one wins and the loser gets
// ALREADY_BOOKED with the slot untouched.
func (s *AppointmentService) Book(ctx context.Context, req dto.CreateAppointmentRequest, actor *models.JWTClaims) (*models.Appointment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
	}

	patientID := req.PatientID
	switch actor.Role {
	case models.RolePatient:
		// Patients always book for themselves, ignoring any supplied ID.
		patientID = actor.UserID
	case models.RoleAdmin, models.RoleDoctor:
		if patientID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "patientId is required when booking on behalf of a patient")
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	slot, err := s.slots.FindByID(ctx, req.AvailabilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	switch slot.Status {
	case models.AvailabilityAvailable:
	case models.AvailabilityBooked:
		return nil, appErrors.ErrAlreadyBooked
	default:
		return nil, appErrors.Clone(appErrors.ErrAlreadyBooked, "availability is not bookable in its current state")
	}

	appt := &models.Appointment{
		AvailabilityID: slot.ID,
		DoctorID:       slot.DoctorID,
		PatientID:      patientID,
		Mode:           slot.Mode,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
	}
	booked, err := s.repo.Book(ctx, appt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to book appointment")
	}
	if !booked {
		// Lost the race between the status read above and the conditional flip.
		return nil, appErrors.ErrAlreadyBooked
	}

	s.calendar.InvalidateDoctor(ctx, slot.DoctorID)
	s.metrics.RecordAppointmentTransition("booked")
	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("availability_id", slot.ID),
		zap.String("patient_id", patientID))
	return appt, nil
}

// Cancel transitions an appointment to CANCELLED and releases its slot back
// to AVAILABLE so it can be rebooked. Allowed for the booking patient, the
// bound doctor and admins. Double cancellation is surfaced, not swallowed.
func (s *AppointmentService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Appointment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	appt, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canCancel(appt, actor) {
		return nil, appErrors.ErrForbidden
	}

	switch appt.Status {
	case models.AppointmentCompleted:
		return nil, appErrors.ErrAlreadyCompleted
	case models.AppointmentCancelled:
		return nil, appErrors.ErrAlreadyCancelled
	}

	cancelled, err := s.repo.CancelAndRelease(ctx, appt.ID, appt.AvailabilityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel appointment")
	}
	if !cancelled {
		// Someone else transitioned the appointment first.
		return nil, appErrors.ErrAlreadyCancelled
	}

	appt.Status = models.AppointmentCancelled
	s.calendar.InvalidateDoctor(ctx, appt.DoctorID)
	s.metrics.RecordAppointmentTransition("cancelled")
	s.logger.Info("appointment cancelled",
		zap.String("appointment_id", appt.ID),
		zap.String("cancelled_by", actor.UserID))
	return appt, nil
}

// Complete marks an appointment COMPLETED. Restricted to the bound doctor
// and admins: patients cannot complete even their own appointment.
func (s *AppointmentService) Complete(ctx context.Context, id string, actor *models.JWTClaims) (*models.Appointment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	appt, err := s.loadAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canComplete(appt, actor) {
		return nil, appErrors.ErrForbidden
	}

	switch appt.Status {
	case models.AppointmentCompleted:
		return nil, appErrors.ErrAlreadyCompleted
	case models.AppointmentCancelled:
		return nil, appErrors.ErrAlreadyCancelled
	}

	completed, err := s.repo.UpdateStatusFrom(ctx, appt.ID, models.AppointmentCompleted,
		models.AppointmentBooked, models.AppointmentOngoing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete appointment")
	}
	if !completed {
		return nil, appErrors.ErrAlreadyCompleted
	}

	appt.Status = models.AppointmentCompleted
	s.metrics.RecordAppointmentTransition("completed")
	s.logger.Info("appointment completed",
		zap.String("appointment_id", appt.ID),
		zap.String("completed_by", actor.UserID))
	return appt, nil
}

// Search lists appointments with role scoping: patients see their own,
// doctors see their own schedule, admins see everything.
func (s *AppointmentService) Search(ctx context.Context, filter models.AppointmentFilter, actor *models.JWTClaims) ([]models.Appointment, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RolePatient:
		filter.PatientID = actor.UserID
	case models.RoleDoctor:
		filter.DoctorID = actor.DoctorID
	case models.RoleAdmin:
	default:
		return nil, nil, appErrors.ErrForbidden
	}
	filter.Page, filter.Limit = models.NormalizePageLimit(filter.Page, filter.Limit)

	appointments, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search appointments")
	}
	return appointments, models.NewPagination(total, filter.Page, filter.Limit), nil
}

func (s *AppointmentService) loadAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appt, nil
}

func canCancel(appt *models.Appointment, actor *models.JWTClaims) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return actor.DoctorID != "" && actor.DoctorID == appt.DoctorID
	case models.RolePatient:
		return actor.UserID == appt.PatientID
	default:
		return false
	}
}

func canComplete(appt *models.Appointment, actor *models.JWTClaims) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return actor.DoctorID != "" && actor.DoctorID == appt.DoctorID
	default:
		return false
	}
}
