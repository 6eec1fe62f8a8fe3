package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

// FacultyPreferenceHandler handles faculty day/time preference endpoints.
type FacultyPreferenceHandler struct {
	service *service.FacultyPreferenceService
}

// NewFacultyPreferenceHandler constructs the handler.
func NewFacultyPreferenceHandler(svc *service.FacultyPreferenceService) *FacultyPreferenceHandler {
	return &FacultyPreferenceHandler{service: svc}
}

// Get godoc
// @Summary Get a faculty member's stored preference bias
// @Tags Faculty Preferences
// @Produce json
// @Param faculty path string true "Faculty name"
// @Success 200 {object} response.Envelope
// @Router /faculty-preferences/{faculty} [get]
func (h *FacultyPreferenceHandler) Get(c *gin.Context) {
	pref, err := h.service.Get(c.Request.Context(), c.Param("faculty"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// Upsert godoc
// @Summary Store a faculty member's preference bias
// @Tags Faculty Preferences
// @Accept json
// @Produce json
// @Param faculty path string true "Faculty name"
// @Param payload body service.UpsertFacultyPreferenceRequest true "Preference payload"
// @Success 200 {object} response.Envelope
// @Router /faculty-preferences/{faculty} [put]
func (h *FacultyPreferenceHandler) Upsert(c *gin.Context) {
	var req service.UpsertFacultyPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pref, err := h.service.Upsert(c.Request.Context(), c.Param("faculty"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}
