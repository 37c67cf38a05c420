package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	"github.com/citasalud/citasalud-api/pkg/response"
)

type agendaService interface {
	Export(ctx context.Context, query dto.AgendaExportQuery, actor *models.JWTClaims) (*dto.AgendaExportResult, error)
}

// AgendaHandler exposes agenda document exports.
type AgendaHandler struct {
	service agendaService
}

// NewAgendaHandler builds a new handler.
func NewAgendaHandler(svc agendaService) *AgendaHandler {
	return &AgendaHandler{service: svc}
}

// Export godoc
// @Summary Export doctor agenda
// @Description Renders the doctor's slots inside the window as CSV or PDF
// @Tags Agenda
// @Produce text/csv
// @Produce application/pdf
// @Param doctorId query string true "Doctor ID"
// @Param startDate query string true "Window start (YYYY-MM-DD)"
// @Param endDate query string true "Window end (YYYY-MM-DD, inclusive)"
// @Param format query string true "Document format (csv, pdf)"
// @Success 200 {file} byte
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	query := dto.AgendaExportQuery{
		DoctorID:  c.Query("doctorId"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
		Format:    c.Query("format"),
	}

	result, err := h.service.Export(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
