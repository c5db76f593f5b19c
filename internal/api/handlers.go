package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/funnel-analyzer/internal/config"
	"github.com/jonesrussell/funnel-analyzer/internal/funnel"
	"github.com/jonesrussell/funnel-analyzer/internal/processor"
)

// Handler handles HTTP requests for the funnel-analyzer API.
type Handler struct {
	runner     *processor.Runner
	batch      *processor.BatchClassifier
	funnelCfg  config.FunnelConfig
	calculator *funnel.Calculator
	logger     Logger
}

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// NewHandler creates a new API handler.
func NewHandler(
	runner *processor.Runner,
	batch *processor.BatchClassifier,
	funnelCfg config.FunnelConfig,
	calculator *funnel.Calculator,
	logger Logger,
) *Handler {
	return &Handler{
		runner:     runner,
		batch:      batch,
		funnelCfg:  funnelCfg,
		calculator: calculator,
		logger:     logger,
	}
}

// HealthCheck reports process liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// ReadyCheck reports whether the analyzer can serve requests. Classification
// is in-memory, so readiness only requires construction to have completed.
func (h *Handler) ReadyCheck(c *gin.Context) {
	if h.batch == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "analyzer not initialized"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
	})
}

// Analyze runs a full analysis over the requested date range.
// POST /api/v1/analyze
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	from, to, err := req.dateRange()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.runner.Run(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("analysis run failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "analysis failed: " + err.Error()})
		return
	}

	if !req.IncludeEvents {
		result.ClassifiedEvents = nil
	}
	c.JSON(http.StatusOK, result)
}

// Classify classifies the events in the request body without aggregation.
// POST /api/v1/classify
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	classified := h.batch.Classify(c.Request.Context(), req.Events)
	progress := funnel.UserProgression(classified)

	c.JSON(http.StatusOK, ClassifyResponse{
		Events:   classified,
		Progress: progress,
		Funnel:   h.calculator.StageFunnel(progress),
	})
}

// GetRules returns the active funnel configuration.
// GET /api/v1/funnel/rules
func (h *Handler) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, RulesResponse{
		StageRules:       h.funnelCfg.StageRules,
		ConversionEvent:  h.funnelCfg.ConversionEvent,
		SignupPage:       h.funnelCfg.SignupPage,
		MinEngagementSec: h.funnelCfg.MinEngagementSec,
	})
}

// dateRange resolves the request to a concrete [from, to] interval.
func (r AnalyzeRequest) dateRange() (time.Time, time.Time, error) {
	if r.Days > 0 {
		to := time.Now().UTC()
		return to.AddDate(0, 0, -r.Days), to, nil
	}

	from, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errBadDate("start_date", r.StartDate)
	}
	to, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errBadDate("end_date", r.EndDate)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errRange(from, to)
	}
	// Include the whole end day.
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}
