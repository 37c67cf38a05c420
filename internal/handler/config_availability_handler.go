package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/citasalud-api/internal/dto"
	"github.com/citasalud/citasalud-api/internal/models"
	appErrors "github.com/citasalud/citasalud-api/pkg/errors"
	"github.com/citasalud/citasalud-api/pkg/response"
)

type configAvailabilityService interface {
	Create(ctx context.Context, req dto.CreateConfigAvailabilityRequest, actor *models.JWTClaims) (*models.ConfigAvailability, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ConfigAvailability, error)
	List(ctx context.Context, actor *models.JWTClaims) ([]models.ConfigAvailability, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) (*models.ConfigDeleteResult, error)
	AppointmentsCount(ctx context.Context, id string, actor *models.JWTClaims) (int, error)
	Rematerialize(ctx context.Context, id string, actor *models.JWTClaims) (*dto.RematerializeResult, error)
}

// ConfigAvailabilityHandler manages recurring configuration endpoints.
type ConfigAvailabilityHandler struct {
	service configAvailabilityService
}

// NewConfigAvailabilityHandler builds a new handler.
func NewConfigAvailabilityHandler(svc configAvailabilityService) *ConfigAvailabilityHandler {
	return &ConfigAvailabilityHandler{service: svc}
}

// Create godoc
// @Summary Create recurring availability configuration
// @Description Creates the template and materialises its slots in one transaction
// @Tags ConfigAvailabilities
// @Accept json
// @Produce json
// @Param payload body dto.CreateConfigAvailabilityRequest true "Configuration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /config-availabilities [post]
func (h *ConfigAvailabilityHandler) Create(c *gin.Context) {
	var req dto.CreateConfigAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid configuration payload"))
		return
	}

	cfg, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

// Get godoc
// @Summary Get recurring configuration
// @Tags ConfigAvailabilities
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /config-availabilities/{id} [get]
func (h *ConfigAvailabilityHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// List godoc
// @Summary List recurring configurations
// @Description Admins see all configurations, doctors see their own
// @Tags ConfigAvailabilities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /config-availabilities [get]
func (h *ConfigAvailabilityHandler) List(c *gin.Context) {
	configs, err := h.service.List(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, nil)
}

// Delete godoc
// @Summary Delete recurring configuration
// @Description Cascades: cancels active appointments and removes generated slots
// @Tags ConfigAvailabilities
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /config-availabilities/{id} [delete]
func (h *ConfigAvailabilityHandler) Delete(c *gin.Context) {
	result, err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AppointmentsCount godoc
// @Summary Count active appointments bound to a configuration
// @Description Supports the pre-delete confirmation flow
// @Tags ConfigAvailabilities
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /config-availabilities/{id}/appointments-count [get]
func (h *ConfigAvailabilityHandler) AppointmentsCount(c *gin.Context) {
	count, err := h.service.AppointmentsCount(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AppointmentsCountResponse{Count: count}, nil)
}

// Rematerialize godoc
// @Summary Re-expand configuration slots
// @Description Idempotently fills any missing slots up to the materialization horizon
// @Tags ConfigAvailabilities
// @Produce json
// @Param id path string true "Configuration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /config-availabilities/{id}/rematerialize [post]
func (h *ConfigAvailabilityHandler) Rematerialize(c *gin.Context) {
	result, err := h.service.Rematerialize(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
