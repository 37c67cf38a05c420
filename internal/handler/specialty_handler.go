package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citasalud/citasalud-api/internal/models"
	"github.com/citasalud/citasalud-api/pkg/response"
)

type specialtyService interface {
	ListSpecialties(ctx context.Context) ([]models.Specialty, error)
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*models.Doctor, error)
}

// SpecialtyHandler exposes the specialty and doctor registry endpoints.
type SpecialtyHandler struct {
	service specialtyService
}

// NewSpecialtyHandler builds a new handler.
func NewSpecialtyHandler(svc specialtyService) *SpecialtyHandler {
	return &SpecialtyHandler{service: svc}
}

// ListSpecialties godoc
// @Summary List specialties
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /specialties [get]
func (h *SpecialtyHandler) ListSpecialties(c *gin.Context) {
	specialties, err := h.service.ListSpecialties(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, specialties, nil)
}

// ListDoctors godoc
// @Summary List doctors
// @Tags Registry
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /doctors [get]
func (h *SpecialtyHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.service.ListDoctors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doctors, nil)
}

// GetDoctor godoc
// @Summary Get doctor with specialties
// @Tags Registry
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /doctors/{id} [get]
func (h *SpecialtyHandler) GetDoctor(c *gin.Context) {
	doctor, err := h.service.GetDoctor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doctor, nil)
}
