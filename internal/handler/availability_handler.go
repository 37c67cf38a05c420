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

type availabilityService interface {
	CreateIndividual(ctx context.Context, req dto.CreateAvailabilityRequest, actor *models.JWTClaims) (*models.Availability, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Availability, error)
	Search(ctx context.Context, filter models.AvailabilityFilter, actor *models.JWTClaims) ([]models.Availability, *models.Pagination, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) (*dto.DeleteAvailabilityResult, error)
}

// AvailabilityHandler manages individual slot endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Create godoc
// @Summary Create individual availability slot
// @Tags Availabilities
// @Accept json
// @Produce json
// @Param payload body dto.CreateAvailabilityRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /availabilities [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	slot, err := h.service.CreateIndividual(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Get godoc
// @Summary Get availability slot
// @Tags Availabilities
// @Produce json
// @Param id path string true "Availability ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /availabilities/{id} [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	slot, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Search godoc
// @Summary Search availability slots
// @Tags Availabilities
// @Produce json
// @Param doctorId query string false "Filter by doctor"
// @Param specialtyId query string false "Filter by specialty"
// @Param mode query string false "Filter by mode (IN_PERSON, VIRTUAL)"
// @Param status query string false "Filter by status"
// @Param startDate query string false "Window start (YYYY-MM-DD)"
// @Param endDate query string false "Window end (YYYY-MM-DD, inclusive)"
// @Param all query bool false "Return all matches without pagination"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /availabilities/search [get]
func (h *AvailabilityHandler) Search(c *gin.Context) {
	filter := models.AvailabilityFilter{
		DoctorID:    c.Query("doctorId"),
		SpecialtyID: c.Query("specialtyId"),
		Mode:        models.AppointmentMode(strings.ToUpper(c.Query("mode"))),
		Status:      models.AvailabilityStatus(strings.ToUpper(c.Query("status"))),
		StartDate:   queryDate(c, "startDate"),
		EndDate:     queryDateEnd(c, "endDate"),
		All:         c.Query("all") == "true",
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", 20),
	}

	slots, pagination, err := h.service.Search(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// Delete godoc
// @Summary Delete availability slot
// @Tags Availabilities
// @Produce json
// @Param id path string true "Availability ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /availabilities/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	result, err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
