package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dimasfahmi/studyplan-api/internal/dto"
	"github.com/dimasfahmi/studyplan-api/internal/models"
	"github.com/dimasfahmi/studyplan-api/internal/schedule"
	appErrors "github.com/dimasfahmi/studyplan-api/pkg/errors"
	"github.com/dimasfahmi/studyplan-api/pkg/response"
)

type planService interface {
	Generate(ctx context.Context, req dto.GeneratePlanRequest, progress func(stage string)) (*dto.GeneratePlanResponse, error)
	Resolve(ctx context.Context, req dto.ResolvePlanRequest) (*dto.ResolvePlanResponse, error)
	List(ctx context.Context) ([]models.StoredPlan, error)
	Get(ctx context.Context, id string) (*models.StoredPlan, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, req dto.UpdatePlanStatusRequest) error
	CheckConflicts(ctx context.Context, req dto.CheckConflictsRequest) ([]schedule.Conflict, error)
	AvailableSlots(ctx context.Context) ([]schedule.AvailableSlot, error)
	Export(ctx context.Context, id, format string) ([]byte, string, string, error)
}

// PlanHandler exposes the study plan endpoints.
type PlanHandler struct {
	service planService
}

// NewPlanHandler builds a new handler.
func NewPlanHandler(service planService) *PlanHandler {
	return &PlanHandler{service: service}
}

// RegisterRoutes attaches plan routes to the router group.
func (h *PlanHandler) RegisterRoutes(group *gin.RouterGroup) {
	plans := group.Group("/plans")
	plans.POST("/generate", h.Generate)
	plans.POST("/generate/stream", h.GenerateStream)
	plans.POST("/resolve", h.Resolve)
	plans.POST("/conflicts/check", h.CheckConflicts)
	plans.GET("", h.List)
	plans.GET("/:id", h.Get)
	plans.DELETE("/:id", h.Delete)
	plans.PATCH("/:id/status", h.UpdateStatus)
	plans.GET("/:id/export", h.Export)

	group.GET("/slots/available", h.AvailableSlots)
}

// Generate godoc
// @Summary Generate a study plan
// @Description Generates a plan (AI with deterministic fallback), checks it for schedule conflicts, and either saves it or stages it for resolution.
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePlanRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Router /plans/generate [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.RequiresDecision {
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	response.Created(c, result)
}

// GenerateStream godoc
// @Summary Generate a study plan with progress streaming
// @Description Same pipeline as /plans/generate but emits server-sent events for each stage before the final result.
// @Tags Plans
// @Accept json
// @Produce text/event-stream
// @Param payload body dto.GeneratePlanRequest true "Generation request"
// @Success 200 {string} string "event stream"
// @Router /plans/generate/stream [post]
func (h *PlanHandler) GenerateStream(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "streaming is not supported"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	emit := func(frame dto.StreamFrame) {
		payload, err := json.Marshal(frame)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		flusher.Flush()
	}

	result, err := h.service.Generate(c.Request.Context(), req, func(stage string) {
		emit(dto.StreamFrame{Type: dto.StreamProgress, Stage: stage})
	})
	if err != nil {
		appErr := appErrors.FromError(err)
		emit(dto.StreamFrame{Type: dto.StreamError, Message: appErr.Message})
		return
	}
	emit(dto.StreamFrame{Type: dto.StreamSuccess, Data: result})
}

// Resolve godoc
// @Summary Resolve a staged plan
// @Description Settles a plan staged over conflicts: overwrite saves it as-is, regenerate replaces it with a conflict-free schedule, cancel discards it.
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.ResolvePlanRequest true "Resolution request"
// @Success 200 {object} response.Envelope
// @Router /plans/resolve [post]
func (h *PlanHandler) Resolve(c *gin.Context) {
	var req dto.ResolvePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolve payload"))
		return
	}
	result, err := h.service.Resolve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CheckConflicts godoc
// @Summary Check a plan for schedule conflicts
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.CheckConflictsRequest true "Plan to vet"
// @Success 200 {object} response.Envelope
// @Router /plans/conflicts/check [post]
func (h *PlanHandler) CheckConflicts(c *gin.Context) {
	var req dto.CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict check payload"))
		return
	}
	conflicts, err := h.service.CheckConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"conflicts":    conflicts,
		"hasConflicts": len(conflicts) > 0,
	}, nil)
}

// List godoc
// @Summary List stored plans
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Get godoc
// @Summary Get a stored plan
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete a stored plan
// @Tags Plans
// @Param id path string true "Plan ID"
// @Success 204 {string} string "no content"
// @Router /plans/{id} [delete]
func (h *PlanHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateStatus godoc
// @Summary Update a plan's lifecycle status
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body dto.UpdatePlanStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{id}/status [patch]
func (h *PlanHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdatePlanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": req.Status}, nil)
}

// Export godoc
// @Summary Export a stored plan
// @Tags Plans
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Plan ID"
// @Param format query string true "Export format (pdf or csv)"
// @Success 200 {string} string "file"
// @Router /plans/{id}/export [get]
func (h *PlanHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "pdf")
	payload, contentType, filename, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// AvailableSlots godoc
// @Summary List available study slots
// @Description Returns the canonical weekly slot catalogue minus slots occupied by active plans.
// @Tags Slots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /slots/available [get]
func (h *PlanHandler) AvailableSlots(c *gin.Context) {
	slots, err := h.service.AvailableSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"slots": slots,
		"count": len(slots),
	}, nil)
}
