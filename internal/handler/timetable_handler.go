package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

const maxSubjectsPerRequest = 256

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerationRequest) (*dto.GenerationResponse, error)
	GenerateAsync(ctx context.Context, req dto.GenerationRequest) (*dto.AsyncGenerationResponse, error)
	GetAsyncResult(ctx context.Context, jobID string) (*dto.GenerationResponse, bool, error)
	Commit(ctx context.Context, req dto.CommitRequest) (*dto.CommitResponse, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableVersionSummary, error)
	Get(ctx context.Context, id string) (*models.TimetableVersion, []models.TimetableEntry, error)
	Validate(ctx context.Context, id string, repair bool) (*dto.ValidateResponse, error)
}

// TimetableHandler exposes the generation, commit, and retrieval endpoints.
type TimetableHandler struct {
	service timetableGenerator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.ScheduleGeneratorService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate a candidate weekly timetable
// @Description Runs the weighted or backtracking placement engine and returns an uncommitted preview. mode=backtracking&async=true submits the run to the background job queue instead.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerationRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	if len(req.Subjects) > maxSubjectsPerRequest {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjects exceeds supported limit"))
		return
	}
	if mode := c.Query("mode"); mode != "" {
		req.Mode = mode
	}
	if c.Query("async") == "true" {
		req.Async = true
	}

	if req.Mode == "backtracking" && req.Async {
		result, err := h.service.GenerateAsync(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, result, nil)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GenerateJob godoc
// @Summary Fetch the result of an asynchronous generation job
// @Tags Timetables
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /timetables/jobs/{jobId} [get]
func (h *TimetableHandler) GenerateJob(c *gin.Context) {
	result, ready, err := h.service.GetAsyncResult(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !ready {
		response.JSON(c, http.StatusAccepted, gin.H{"status": "pending"}, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Commit godoc
// @Summary Commit a generated preview as a new timetable version
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Preview ID"
// @Success 201 {object} response.Envelope
// @Router /timetables/{id}/commit [post]
func (h *TimetableHandler) Commit(c *gin.Context) {
	req := dto.CommitRequest{PreviewID: c.Param("id")}
	result, err := h.service.Commit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List stored timetable versions for a department/semester
// @Tags Timetables
// @Produce json
// @Param department query string true "Department"
// @Param semester query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) List(c *gin.Context) {
	query := dto.TimetableQuery{
		Department: c.Query("department"),
		Semester:   c.Query("semester"),
	}
	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Fetch a stored timetable version and its entries
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable version ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	version, entries, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"version": version, "entries": entries}, nil)
}

// Validate godoc
// @Summary Re-run the invariant validator against a stored timetable version
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable version ID"
// @Param repair query bool false "Attempt reduced repair on violations"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/validate [post]
func (h *TimetableHandler) Validate(c *gin.Context) {
	repair := c.Query("repair") == "true"
	result, err := h.service.Validate(c.Request.Context(), c.Param("id"), repair)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
