package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citasalud/citasalud-api/internal/models"
)

func weekdayTemplate() *models.ConfigAvailability {
	return &models.ConfigAvailability{
		DoctorID:        "doc-1",
		SpecialtyID:     "spec-1",
		Mode:            models.ModeInPerson,
		StartDate:       time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		StartHour:       "09:00",
		EndHour:         "10:00",
		DurationMinutes: 30,
		DaysOfWeek:      pq.Int64Array{1},
	}
}

func generatedSlots(n int) []models.Availability {
	slots := make([]models.Availability, n)
	base := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	for i := range slots {
		slots[i] = models.Availability{
			DoctorID:        "doc-1",
			SpecialtyID:     "spec-1",
			Mode:            models.ModeInPerson,
			StartTime:       base.Add(time.Duration(i) * 30 * time.Minute),
			EndTime:         base.Add(time.Duration(i+1) * 30 * time.Minute),
			DurationMinutes: 30,
		}
	}
	return slots
}

func TestConfigCreateWithSlots(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConfigAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO config_availabilities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availabilities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availabilities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cfg := weekdayTemplate()
	slots := generatedSlots(2)
	err := repo.CreateWithSlots(context.Background(), cfg, slots)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.ID)
	for _, slot := range slots {
		require.NotNil(t, slot.ConfigID)
		assert.Equal(t, cfg.ID, *slot.ConfigID)
		assert.Equal(t, models.AvailabilityAvailable, slot.Status)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigCreateWithSlotsRollsBackOnSlotFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConfigAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO config_availabilities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availabilities").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateWithSlots(context.Background(), weekdayTemplate(), generatedSlots(1))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConfigAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "doctor_id", "specialty_id", "mode", "start_date", "end_date", "start_hour", "end_hour", "duration_minutes", "days_of_week", "created_at", "updated_at"}).
		AddRow("cfg-1", "doc-1", "spec-1", string(models.ModeInPerson), now, nil, "09:00", "11:00", 30, "{1,3}", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, doctor_id, specialty_id, mode, start_date, end_date, start_hour, end_hour, duration_minutes, days_of_week, created_at, updated_at FROM config_availabilities WHERE id = $1")).
		WithArgs("cfg-1").
		WillReturnRows(rows)

	cfg, err := repo.FindByID(context.Background(), "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", cfg.DoctorID)
	assert.True(t, cfg.HasDay(3))
	assert.False(t, cfg.HasDay(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigDeleteCascade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConfigAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM availabilities WHERE config_id").
		WithArgs("cfg-1").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec("DELETE FROM config_availabilities").
		WithArgs("cfg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.DeleteCascade(context.Background(), "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, 12, result.DeletedAvailabilities)
	assert.Equal(t, 3, result.CancelledAppointments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigCountActiveAppointments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConfigAvailabilityRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM appointments a\\s+JOIN availabilities av ON av.id = a.availability_id").
		WithArgs("cfg-1", models.AppointmentBooked, models.AppointmentOngoing).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountActiveAppointments(context.Background(), "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigInsertSlots(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewConfigAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO availabilities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.InsertSlots(context.Background(), "cfg-1", generatedSlots(1))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
