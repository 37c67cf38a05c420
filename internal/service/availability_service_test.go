package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

type availabilityStoreStub struct {
	slots       map[string]models.Availability
	created     *models.Availability
	deleted     []string
	overlapping int
	searchTotal int
}

func (s *availabilityStoreStub) Create(ctx context.Context, slot *models.Availability) error {
	slot.ID = "slot-new"
	s.created = slot
	return nil
}

func (s *availabilityStoreStub) FindByID(ctx context.Context, id string) (*models.Availability, error) {
	if slot, ok := s.slots[id]; ok {
		return &slot, nil
	}
	return nil, sql.ErrNoRows
}

func (s *availabilityStoreStub) CountOverlapping(ctx context.Context, doctorID string, start, end time.Time) (int, error) {
	return s.overlapping, nil
}

func (s *availabilityStoreStub) Search(ctx context.Context, filter models.AvailabilityFilter) ([]models.Availability, int, error) {
	var out []models.Availability
	for _, slot := range s.slots {
		if filter.Status != "" && slot.Status != filter.Status {
			continue
		}
		out = append(out, slot)
	}
	return out, s.searchTotal, nil
}

func (s *availabilityStoreStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func slotRequest() dto.CreateAvailabilityRequest {
	start := time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC)
	return dto.CreateAvailabilityRequest{
		DoctorID:        "doc-1",
		SpecialtyID:     "spec-1",
		Mode:            "VIRTUAL",
		StartTime:       start,
		EndTime:         start.Add(30 * time.Minute),
		DurationMinutes: 30,
	}
}

func TestAvailabilityCreateIndividual(t *testing.T) {
	store := &availabilityStoreStub{}
	cal := &invalidatorStub{}
	svc := NewAvailabilityService(store, doctorReaderStub{}, cal, nil, nil)

	slot, err := svc.CreateIndividual(context.Background(), slotRequest(), doctorActor("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityAvailable, slot.Status)
	assert.Equal(t, models.ModeVirtual, slot.Mode)
	assert.Equal(t, []string{"doc-1"}, cal.doctorIDs)
}

func TestAvailabilityCreateRejectsOverlap(t *testing.T) {
	// Existing 10:00-10:30 slot; request 10:15-10:45 must be rejected.
	store := &availabilityStoreStub{overlapping: 1}
	svc := NewAvailabilityService(store, doctorReaderStub{}, &invalidatorStub{}, nil, nil)

	req := slotRequest()
	req.StartTime = req.StartTime.Add(15 * time.Minute)
	req.EndTime = req.EndTime.Add(15 * time.Minute)

	_, err := svc.CreateIndividual(context.Background(), req, doctorActor("doc-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverlap.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.created)
}

func TestAvailabilityCreateRejectsInvertedInterval(t *testing.T) {
	svc := NewAvailabilityService(&availabilityStoreStub{}, doctorReaderStub{}, &invalidatorStub{}, nil, nil)
	req := slotRequest()
	req.EndTime = req.StartTime
	_, err := svc.CreateIndividual(context.Background(), req, doctorActor("doc-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityCreateForbiddenForPatients(t *testing.T) {
	svc := NewAvailabilityService(&availabilityStoreStub{}, doctorReaderStub{}, &invalidatorStub{}, nil, nil)
	_, err := svc.CreateIndividual(context.Background(), slotRequest(),
		&models.JWTClaims{UserID: "pat-1", Role: models.RolePatient})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAvailabilitySearchForcesAvailableForPatients(t *testing.T) {
	store := &availabilityStoreStub{
		slots: map[string]models.Availability{
			"slot-1": {ID: "slot-1", Status: models.AvailabilityAvailable},
			"slot-2": {ID: "slot-2", Status: models.AvailabilityBooked},
		},
		searchTotal: 1,
	}
	svc := NewAvailabilityService(store, doctorReaderStub{}, &invalidatorStub{}, nil, nil)

	slots, pagination, err := svc.Search(context.Background(), models.AvailabilityFilter{Page: 1, Limit: 20},
		&models.JWTClaims{UserID: "pat-1", Role: models.RolePatient})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, models.AvailabilityAvailable, slots[0].Status)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Total)
}

func TestAvailabilityDeleteBlockedWhenBooked(t *testing.T) {
	store := &availabilityStoreStub{
		slots: map[string]models.Availability{
			"slot-1": {ID: "slot-1", DoctorID: "doc-1", Status: models.AvailabilityBooked},
		},
	}
	svc := NewAvailabilityService(store, doctorReaderStub{}, &invalidatorStub{}, nil, nil)

	_, err := svc.Delete(context.Background(), "slot-1", doctorActor("doc-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotBooked.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)
}

func TestAvailabilityDeleteAvailableSlot(t *testing.T) {
	store := &availabilityStoreStub{
		slots: map[string]models.Availability{
			"slot-1": {ID: "slot-1", DoctorID: "doc-1", Status: models.AvailabilityAvailable},
		},
	}
	cal := &invalidatorStub{}
	svc := NewAvailabilityService(store, doctorReaderStub{}, cal, nil, nil)

	result, err := svc.Delete(context.Background(), "slot-1", adminActor())
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Equal(t, []string{"slot-1"}, store.deleted)
	assert.Equal(t, []string{"doc-1"}, cal.doctorIDs)
}
