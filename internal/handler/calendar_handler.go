package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
	"github.com/citasalud/citasalud-api/pkg/response"
)

type calendarService interface {
	MonthView(ctx context.Context, doctorID string, year int, month time.Month) ([]models.CalendarDay, error)
}

// CalendarHandler exposes the per-doctor month calendar.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler builds a new handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// MonthView godoc
// @Summary Doctor month calendar
// @Description Days with slots, each classified as INDIVIDUAL, CONFIG or BOTH
// @Tags Calendar
// @Produce json
// @Param doctorId query string true "Doctor ID"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar [get]
func (h *CalendarHandler) MonthView(c *gin.Context) {
	doctorID := c.Query("doctorId")
	year := queryInt(c, "year", 0)
	month := queryInt(c, "month", 0)
	if doctorID == "" || year == 0 || month == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "doctorId, year and month are required"))
		return
	}

	days, err := h.service.MonthView(c.Request.Context(), doctorID, year, time.Month(month))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}
