package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

type configStoreStub struct {
	configs      map[string]models.ConfigAvailability
	created      *models.ConfigAvailability
	createdSlots []models.Availability
	inserted     []models.Availability
	deleteResult *models.ConfigDeleteResult
	activeCount  int
}

func (s *configStoreStub) FindByID(ctx context.Context, id string) (*models.ConfigAvailability, error) {
	if cfg, ok := s.configs[id]; ok {
		return &cfg, nil
	}
	return nil, sql.ErrNoRows
}

func (s *configStoreStub) ListByDoctor(ctx context.Context, doctorID string) ([]models.ConfigAvailability, error) {
	var out []models.ConfigAvailability
	for _, cfg := range s.configs {
		if cfg.DoctorID == doctorID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *configStoreStub) List(ctx context.Context) ([]models.ConfigAvailability, error) {
	var out []models.ConfigAvailability
	for _, cfg := range s.configs {
		out = append(out, cfg)
	}
	return out, nil
}

func (s *configStoreStub) CreateWithSlots(ctx context.Context, cfg *models.ConfigAvailability, slots []models.Availability) error {
	cfg.ID = "cfg-new"
	s.created = cfg
	s.createdSlots = slots
	return nil
}

func (s *configStoreStub) InsertSlots(ctx context.Context, configID string, slots []models.Availability) error {
	s.inserted = append(s.inserted, slots...)
	return nil
}

func (s *configStoreStub) DeleteCascade(ctx context.Context, configID string) (*models.ConfigDeleteResult, error) {
	return s.deleteResult, nil
}

func (s *configStoreStub) CountActiveAppointments(ctx context.Context, configID string) (int, error) {
	return s.activeCount, nil
}

type slotWindowStub struct {
	windowSlots []models.Availability
	configSlots []models.Availability
}

func (s *slotWindowStub) ListByDoctorWindow(ctx context.Context, doctorID string, from, to time.Time) ([]models.Availability, error) {
	return s.windowSlots, nil
}

func (s *slotWindowStub) ListByConfig(ctx context.Context, configID string) ([]models.Availability, error) {
	return s.configSlots, nil
}

type doctorReaderStub struct {
	missing     bool
	noSpecialty bool
}

func (s doctorReaderStub) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Doctor{ID: id}, nil
}

func (s doctorReaderStub) HasSpecialty(ctx context.Context, doctorID, specialtyID string) (bool, error) {
	return !s.noSpecialty, nil
}

type invalidatorStub struct {
	doctorIDs []string
}

func (s *invalidatorStub) InvalidateDoctor(ctx context.Context, doctorID string) {
	s.doctorIDs = append(s.doctorIDs, doctorID)
}

func doctorActor(doctorID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleDoctor, DoctorID: doctorID}
}

func adminActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

// nextWeekday returns the next future date falling on the given ISO weekday.
func nextWeekday(iso int) time.Time {
	day := time.Now().UTC().AddDate(0, 0, 1)
	for isoWeekday(day) != iso {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

func validConfigRequest() dto.CreateConfigAvailabilityRequest {
	start := nextWeekday(1)
	end := start.AddDate(0, 0, 13)
	return dto.CreateConfigAvailabilityRequest{
		DoctorID:        "doc-1",
		SpecialtyID:     "spec-1",
		Mode:            "IN_PERSON",
		StartDate:       start.Format("2006-01-02"),
		EndDate:         end.Format("2006-01-02"),
		StartHour:       "09:00",
		EndHour:         "11:00",
		DurationMinutes: 30,
		DaysOfWeek:      []int{1},
	}
}

func newConfigService(store *configStoreStub, slots *slotWindowStub, doctors doctorReaderStub, cal *invalidatorStub) *ConfigAvailabilityService {
	return NewConfigAvailabilityService(store, slots, doctors, cal, nil, nil, nil, time.UTC, 90)
}

func TestConfigAvailabilityCreateMaterializesSlots(t *testing.T) {
	store := &configStoreStub{}
	cal := &invalidatorStub{}
	svc := newConfigService(store, &slotWindowStub{}, doctorReaderStub{}, cal)

	cfg, err := svc.Create(context.Background(), validConfigRequest(), doctorActor("doc-1"))
	require.NoError(t, err)
	require.NotNil(t, store.created)

	// Two Mondays, 09:00-11:00 in 30-minute slots: 4 per day.
	assert.Len(t, store.createdSlots, 8)
	for _, slot := range store.createdSlots {
		assert.Equal(t, models.AvailabilityAvailable, slot.Status)
		assert.Equal(t, cfg.DoctorID, slot.DoctorID)
	}
	assert.Equal(t, []string{"doc-1"}, cal.doctorIDs)
}

func TestConfigAvailabilityCreateRejectsOverlapAtomically(t *testing.T) {
	start := nextWeekday(1)
	existing := models.Availability{
		DoctorID:  "doc-1",
		StartTime: time.Date(start.Year(), start.Month(), start.Day(), 9, 15, 0, 0, time.UTC),
		EndTime:   time.Date(start.Year(), start.Month(), start.Day(), 9, 45, 0, 0, time.UTC),
		Status:    models.AvailabilityAvailable,
	}

	store := &configStoreStub{}
	svc := newConfigService(store, &slotWindowStub{windowSlots: []models.Availability{existing}}, doctorReaderStub{}, &invalidatorStub{})

	_, err := svc.Create(context.Background(), validConfigRequest(), doctorActor("doc-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOverlap.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.created, "nothing may be written on conflict")
}

func TestConfigAvailabilityCreateForbiddenForOtherDoctor(t *testing.T) {
	svc := newConfigService(&configStoreStub{}, &slotWindowStub{}, doctorReaderStub{}, &invalidatorStub{})
	_, err := svc.Create(context.Background(), validConfigRequest(), doctorActor("doc-2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestConfigAvailabilityCreateRejectsPastStartDate(t *testing.T) {
	req := validConfigRequest()
	req.StartDate = time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	svc := newConfigService(&configStoreStub{}, &slotWindowStub{}, doctorReaderStub{}, &invalidatorStub{})
	_, err := svc.Create(context.Background(), req, adminActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfigAvailabilityCreateRejectsUnattendedSpecialty(t *testing.T) {
	svc := newConfigService(&configStoreStub{}, &slotWindowStub{}, doctorReaderStub{noSpecialty: true}, &invalidatorStub{})
	_, err := svc.Create(context.Background(), validConfigRequest(), adminActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConfigAvailabilityDeleteCascades(t *testing.T) {
	store := &configStoreStub{
		configs: map[string]models.ConfigAvailability{
			"cfg-1": {ID: "cfg-1", DoctorID: "doc-1"},
		},
		deleteResult: &models.ConfigDeleteResult{DeletedAvailabilities: 12, CancelledAppointments: 3},
	}
	cal := &invalidatorStub{}
	svc := newConfigService(store, &slotWindowStub{}, doctorReaderStub{}, cal)

	result, err := svc.Delete(context.Background(), "cfg-1", doctorActor("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, 12, result.DeletedAvailabilities)
	assert.Equal(t, 3, result.CancelledAppointments)
	assert.Equal(t, []string{"doc-1"}, cal.doctorIDs)
}

func TestConfigAvailabilityDeleteUnknownConfig(t *testing.T) {
	svc := newConfigService(&configStoreStub{}, &slotWindowStub{}, doctorReaderStub{}, &invalidatorStub{})
	_, err := svc.Delete(context.Background(), "missing", adminActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestConfigAvailabilityAppointmentsCount(t *testing.T) {
	store := &configStoreStub{
		configs:     map[string]models.ConfigAvailability{"cfg-1": {ID: "cfg-1", DoctorID: "doc-1"}},
		activeCount: 5,
	}
	svc := newConfigService(store, &slotWindowStub{}, doctorReaderStub{}, &invalidatorStub{})

	count, err := svc.AppointmentsCount(context.Background(), "cfg-1", doctorActor("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestConfigAvailabilityRematerializeIsIdempotent(t *testing.T) {
	start := nextWeekday(1)
	end := start.AddDate(0, 0, 6)
	cfg := models.ConfigAvailability{
		ID:              "cfg-1",
		DoctorID:        "doc-1",
		StartDate:       start,
		EndDate:         &end,
		StartHour:       "09:00",
		EndHour:         "10:00",
		DurationMinutes: 30,
		DaysOfWeek:      pq.Int64Array{1},
	}

	// Every slot the expansion would produce already exists.
	generated, err := ExpandConfig(&cfg, start, end, time.UTC)
	require.NoError(t, err)
	require.Len(t, generated, 2)

	store := &configStoreStub{configs: map[string]models.ConfigAvailability{"cfg-1": cfg}}
	slots := &slotWindowStub{configSlots: generated, windowSlots: generated}
	svc := newConfigService(store, slots, doctorReaderStub{}, &invalidatorStub{})

	result, err := svc.Rematerialize(context.Background(), "cfg-1", doctorActor("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.CreatedSlots)
	assert.Equal(t, 2, result.SkippedSlots)
	assert.Empty(t, store.inserted)
}

func TestConfigAvailabilityRematerializeFillsMissingSlots(t *testing.T) {
	start := nextWeekday(1)
	end := start.AddDate(0, 0, 6)
	cfg := models.ConfigAvailability{
		ID:              "cfg-1",
		DoctorID:        "doc-1",
		StartDate:       start,
		EndDate:         &end,
		StartHour:       "09:00",
		EndHour:         "10:00",
		DurationMinutes: 30,
		DaysOfWeek:      pq.Int64Array{1},
	}

	generated, err := ExpandConfig(&cfg, start, end, time.UTC)
	require.NoError(t, err)
	require.Len(t, generated, 2)

	// Only the first slot survived; the second must be re-created.
	store := &configStoreStub{configs: map[string]models.ConfigAvailability{"cfg-1": cfg}}
	slots := &slotWindowStub{configSlots: generated[:1], windowSlots: generated[:1]}
	svc := newConfigService(store, slots, doctorReaderStub{}, &invalidatorStub{})

	result, err := svc.Rematerialize(context.Background(), "cfg-1", doctorActor("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedSlots)
	assert.Equal(t, 1, result.SkippedSlots)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, generated[1].StartTime, store.inserted[0].StartTime)
}
