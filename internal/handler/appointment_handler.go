package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
	"github.com/citasalud/citasalud-api/pkg/response"
)

type appointmentService interface {
	Book(ctx context.Context, req dto.CreateAppointmentRequest, actor *models.JWTClaims) (*models.Appointment, error)
	Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Appointment, error)
	Complete(ctx context.Context, id string, actor *models.JWTClaims) (*models.Appointment, error)
	Search(ctx context.Context, filter models.AppointmentFilter, actor *models.JWTClaims) ([]models.Appointment, *models.Pagination, error)
}

// AppointmentHandler manages appointment endpoints.
type AppointmentHandler struct {
	service appointmentService
}

// NewAppointmentHandler builds a new handler.
func NewAppointmentHandler(svc appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc}
}

// Book godoc
// @Summary Book an appointment
// @Description Books an AVAILABLE slot; concurrent bookings of the same slot yield 409 for all but one caller
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAppointmentRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req dto.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid appointment payload"))
		return
	}

	appt, err := h.service.Book(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Description Cancels the appointment and releases its slot back to AVAILABLE
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments/{id}/cancel [patch]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appt, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Complete godoc
// @Summary Complete an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments/{id}/complete [patch]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	appt, err := h.service.Complete(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appt, nil)
}

// Search godoc
// @Summary Search appointments
// @Description Patients see their own appointments, doctors their own schedule, admins everything
// @Tags Appointments
// @Produce json
// @Param doctorId query string false "Filter by doctor"
// @Param patientId query string false "Filter by patient"
// @Param status query string false "Filter by status"
// @Param mode query string false "Filter by mode"
// @Param startDate query string false "Window start (YYYY-MM-DD)"
// @Param endDate query string false "Window end (YYYY-MM-DD, inclusive)"
// @Param order query string false "Sort order by start time (ASC, DESC)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments [get]
func (h *AppointmentHandler) Search(c *gin.Context) {
	filter := models.AppointmentFilter{
		DoctorID:  c.Query("doctorId"),
		PatientID: c.Query("patientId"),
		Status:    models.AppointmentStatus(strings.ToUpper(c.Query("status"))),
		Mode:      models.AppointmentMode(strings.ToUpper(c.Query("mode"))),
		StartDate: queryDate(c, "startDate"),
		EndDate:   queryDateEnd(c, "endDate"),
		SortOrder: strings.ToUpper(c.Query("order")),
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 20),
	}

	appointments, pagination, err := h.service.Search(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, appointments, pagination)
}
