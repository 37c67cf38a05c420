package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
	"github.com/citasalud/citasalud-api/pkg/export"
)

var agendaHeaders = []string{"Date", "Start", "End", "Mode", "Status", "Origin"}

// AgendaService renders a doctor's schedule window as a downloadable
// CSV or PDF document. Doctors export their own agenda; admins any.
type AgendaService struct {
	slots     windowReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
}

// NewAgendaService builds the service with sane defaults.
func NewAgendaService(slots windowReader, validate *validator.Validate, logger *zap.Logger, location *time.Location) *AgendaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &AgendaService{
		slots:     slots,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		location:  location,
	}
}

// Export renders the doctor's slots inside [startDate, endDate] into the
// requested format.
func (s *AgendaService) Export(ctx context.Context, query dto.AgendaExportQuery, actor *models.JWTClaims) (*dto.AgendaExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid agenda export query")
	}
	if err := ensureScheduleOwner(query.DoctorID, actor); err != nil {
		return nil, err
	}

	from, err := time.ParseInLocation("2006-01-02", query.StartDate, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must use format YYYY-MM-DD")
	}
	to, err := time.ParseInLocation("2006-01-02", query.EndDate, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must use format YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	// End of the closing day, exclusive.
	to = to.AddDate(0, 0, 1)

	slots, err := s.slots.ListByDoctorWindow(ctx, query.DoctorID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor agenda")
	}

	dataset := s.buildDataset(slots)
	fileName := fmt.Sprintf("agenda_%s_%s_%s", query.DoctorID, query.StartDate, query.EndDate)

	switch query.Format {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv agenda")
		}
		return &dto.AgendaExportResult{
			FileName:    fileName + ".csv",
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		title := fmt.Sprintf("Doctor agenda %s to %s", query.StartDate, query.EndDate)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf agenda")
		}
		return &dto.AgendaExportResult{
			FileName:    fileName + ".pdf",
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *AgendaService) buildDataset(slots []models.Availability) export.Dataset {
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		origin := "individual"
		if slot.IsGenerated() {
			origin = "recurring"
		}
		start := slot.StartTime.In(s.location)
		end := slot.EndTime.In(s.location)
		rows = append(rows, map[string]string{
			"Date":   start.Format("2006-01-02"),
			"Start":  start.Format("15:04"),
			"End":    end.Format("15:04"),
			"Mode":   string(slot.Mode),
			"Status": string(slot.Status),
			"Origin": origin,
		})
	}
	return export.Dataset{Headers: agendaHeaders, Rows: rows}
}
