package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
)

func agendaQuery(format string) dto.AgendaExportQuery {
	return dto.AgendaExportQuery{
		DoctorID:  "doc-1",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-13",
		Format:    format,
	}
}

func TestAgendaExportCSV(t *testing.T) {
	reader := &windowReaderStub{slots: []models.Availability{configSlot(7, 9), individualSlot(8, 10)}}
	svc := NewAgendaService(reader, nil, nil, time.UTC)

	result, err := svc.Export(context.Background(), agendaQuery("csv"), doctorActor("doc-1"))
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "agenda_doc-1_2026-09-07_2026-09-13.csv", result.FileName)

	content := string(result.Content)
	assert.True(t, strings.HasPrefix(content, "Date,Start,End,Mode,Status,Origin"))
	assert.Contains(t, content, "2026-09-07,09:00,09:30")
	assert.Contains(t, content, "recurring")
	assert.Contains(t, content, "individual")
}

func TestAgendaExportPDF(t *testing.T) {
	reader := &windowReaderStub{slots: []models.Availability{configSlot(7, 9)}}
	svc := NewAgendaService(reader, nil, nil, time.UTC)

	result, err := svc.Export(context.Background(), agendaQuery("pdf"), adminActor())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestAgendaExportForbiddenForOtherDoctor(t *testing.T) {
	svc := NewAgendaService(&windowReaderStub{}, nil, nil, time.UTC)
	_, err := svc.Export(context.Background(), agendaQuery("csv"), doctorActor("doc-2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAgendaExportRejectsInvertedWindow(t *testing.T) {
	svc := NewAgendaService(&windowReaderStub{}, nil, nil, time.UTC)
	query := agendaQuery("csv")
	query.StartDate, query.EndDate = query.EndDate, query.StartDate
	_, err := svc.Export(context.Background(), query, adminActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAgendaExportRejectsUnknownFormat(t *testing.T) {
	svc := NewAgendaService(&windowReaderStub{}, nil, nil, time.UTC)
	_, err := svc.Export(context.Background(), agendaQuery("xlsx"), adminActor())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
