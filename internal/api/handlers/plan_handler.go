// internal/api/handlers/plan_handler.go
package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/replenit/purchase-planner/internal/dataio"
	"github.com/replenit/purchase-planner/internal/domain"
	"github.com/replenit/purchase-planner/internal/planner"
	"github.com/replenit/purchase-planner/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// GeneratePlan runs the engine and returns the full forecast report.
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	var req domain.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, summary, err := h.planService.GeneratePlan(c.Request.Context(), req)
	if err != nil {
		planError(c, err, "failed to generate plan")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":   summary,
		"generated": report.Generated,
		"forecasts": report.Forecasts,
	})
}

// GetSummary returns the aggregate KPIs for a plan described by query params.
func (h *PlanHandler) GetSummary(c *gin.Context) {
	req := planRequestFromQuery(c)

	summary, err := h.planService.PlanSummary(c.Request.Context(), req)
	if err != nil {
		planError(c, err, "failed to compute plan summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportPlan generates a plan and streams the export file back.
func (h *PlanHandler) ExportPlan(c *gin.Context) {
	req := planRequestFromQuery(c)

	format := c.DefaultQuery("format", service.FormatExcel)
	if format != service.FormatExcel && format != service.FormatJSON {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or json"})
		return
	}

	path, err := h.planService.ExportPlan(c.Request.Context(), req, format)
	if err != nil {
		planError(c, err, "failed to export plan")
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// ListRuns returns the most recent persisted runs.
func (h *PlanHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.planService.ListRuns(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list plan runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list plan runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRunLines returns the persisted lines for one run.
func (h *PlanHandler) GetRunLines(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	lines, err := h.planService.GetRunLines(c.Request.Context(), runID)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch plan run lines")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch plan run lines"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run_id": runID, "lines": lines, "count": len(lines)})
}

// planError maps engine failures onto HTTP status codes: rejected request
// parameters are the client's fault, malformed catalog files are
// unprocessable, anything else is a server error.
func planError(c *gin.Context, err error, message string) {
	log.Error().Err(err).Msg(message)

	var verr *dataio.ValidationError
	switch {
	case errors.Is(err, planner.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func planRequestFromQuery(c *gin.Context) domain.PlanRequest {
	req := domain.PlanRequest{
		StartMonth: c.Query("start_month"),
	}
	if v, err := strconv.Atoi(c.Query("num_months")); err == nil {
		req.NumMonths = v
	}
	if v, err := strconv.ParseFloat(c.Query("service_level"), 64); err == nil {
		req.ServiceLevel = v
	}
	if v, err := strconv.Atoi(c.Query("review_period_days")); err == nil {
		req.ReviewPeriodDays = v
	}
	if v, err := strconv.ParseBool(c.DefaultQuery("include_in_transit", "true")); err == nil {
		req.IncludeInTransit = v
	}
	return req
}
