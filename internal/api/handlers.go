package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/service"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
)

// Report endpoint labels.
const (
	endpointAnalytics         = "analytics"
	endpointErrorIntelligence = "error_intelligence"

	outcomeOK       = "ok"
	outcomeDegraded = "degraded"
	outcomeError    = "error"
)

// ConnectRequest is the body of POST /api/connect.
type ConnectRequest struct {
	Organization string `binding:"required,min=2" json:"organization"`
	PAT          string `binding:"required,min=5" json:"pat"`
}

// ConnectResponse is returned on a successful connect.
type ConnectResponse struct {
	SessionID    string `json:"session_id"`
	Organization string `json:"organization"`
	ProjectCount int    `json:"project_count"`
}

// Handler serves the /api routes.
type Handler struct {
	sessions  *service.SessionService
	catalog   *service.CatalogService
	analytics *service.AnalyticsService
	failures  *service.FailureService
	metrics   *telemetry.Provider
	logger    infralogger.Logger
}

func NewHandler(
	sessions *service.SessionService,
	catalog *service.CatalogService,
	analytics *service.AnalyticsService,
	failures *service.FailureService,
	metrics *telemetry.Provider,
	log infralogger.Logger,
) *Handler {
	return &Handler{
		sessions:  sessions,
		catalog:   catalog,
		analytics: analytics,
		failures:  failures,
		metrics:   metrics,
		logger:    log,
	}
}

// Connect validates the credential against the provider and opens a session.
func (h *Handler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid connect request", infralogger.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	conn, err := h.sessions.Connect(c.Request.Context(), req.Organization, req.PAT)
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			h.logger.Info("Connect rejected",
				infralogger.String("organization", req.Organization),
				infralogger.Int("upstream_status", upstream.StatusCode()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": fmt.Sprintf("Authentication/connectivity failed: %v", upstream.Err),
			})
			return
		}
		h.logger.Error("Failed to create session", infralogger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.JSON(http.StatusOK, ConnectResponse{
		SessionID:    conn.Session.ID,
		Organization: conn.Session.Organization,
		ProjectCount: conn.ProjectCount,
	})
}

// Disconnect revokes a session. It is idempotent.
func (h *Handler) Disconnect(c *gin.Context) {
	if h.sessions.Revoke(c.Param("session_id")) {
		h.logger.Info("Session revoked")
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListProjects(c *gin.Context) {
	src, ok := h.source(c)
	if !ok {
		return
	}

	projects, err := h.catalog.Projects(c.Request.Context(), src)
	if err != nil {
		h.fail(c, "Failed to list projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) ListPipelines(c *gin.Context) {
	src, ok := h.source(c)
	if !ok {
		return
	}

	pipelines, err := h.catalog.Pipelines(c.Request.Context(), src, c.Param("project"))
	if err != nil {
		h.fail(c, "Failed to list pipelines", err)
		return
	}
	c.JSON(http.StatusOK, pipelines)
}

func (h *Handler) ListRuns(c *gin.Context) {
	src, ok := h.source(c)
	if !ok {
		return
	}
	pipelineID, ok := intParam(c, "pipeline_id", c.Param("pipeline_id"))
	if !ok {
		return
	}

	runs, err := h.catalog.Runs(c.Request.Context(), src, c.Param("project"), pipelineID)
	if err != nil {
		h.fail(c, "Failed to list runs", err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// Analytics returns build statistics for a project.
func (h *Handler) Analytics(c *gin.Context) {
	src, ok := h.source(c)
	if !ok {
		return
	}

	report, err := h.analytics.Analytics(c.Request.Context(), src, c.Query("session_id"), c.Param("project"))
	if err != nil {
		h.metrics.RecordReport(endpointAnalytics, outcomeError)
		h.fail(c, "Failed to compute analytics", err)
		return
	}

	h.metrics.RecordReport(endpointAnalytics, outcomeOK)
	c.JSON(http.StatusOK, report)
}

// ErrorIntelligence returns the failure report for a pipeline, optionally
// narrowed to one run with ?run_id=.
func (h *Handler) ErrorIntelligence(c *gin.Context) {
	src, ok := h.source(c)
	if !ok {
		return
	}
	pipelineID, ok := intParam(c, "pipeline_id", c.Param("pipeline_id"))
	if !ok {
		return
	}

	var runID *int
	if raw := c.Query("run_id"); raw != "" {
		id, valid := intParam(c, "run_id", raw)
		if !valid {
			return
		}
		runID = &id
	}

	diagnosis, err := h.failures.Diagnose(c.Request.Context(), src, c.Param("project"), pipelineID, runID)
	if err != nil {
		h.metrics.RecordReport(endpointErrorIntelligence, outcomeError)
		if errors.Is(err, domain.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Run %d not found", *runID)})
			return
		}
		h.fail(c, "Failed to build failure report", err)
		return
	}

	outcome := outcomeOK
	if len(diagnosis.Degraded) > 0 {
		outcome = outcomeDegraded
	}
	h.metrics.RecordReport(endpointErrorIntelligence, outcome)

	c.JSON(http.StatusOK, diagnosis.Report)
}

// source resolves ?session_id= and writes a 401 when it does not.
func (h *Handler) source(c *gin.Context) (service.Source, bool) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing session_id"})
		return nil, false
	}

	src, _, err := h.sessions.Source(sessionID)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusUnauthorized {
			h.logger.Debug("Session rejected", infralogger.Error(err))
		} else {
			h.logger.Error("Failed to open session source", infralogger.Error(err))
		}
		c.JSON(status, gin.H{"error": msg})
		return nil, false
	}
	return src, true
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status, clientMsg := statusFor(err)
	log := infralogger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error(msg, infralogger.String("project", c.Param("project")), infralogger.Error(err))
	} else {
		log.Warn(msg, infralogger.String("project", c.Param("project")), infralogger.Error(err))
	}
	c.JSON(status, gin.H{"error": clientMsg})
}

func intParam(c *gin.Context, name, raw string) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s: %q", name, raw)})
		return 0, false
	}
	return v, true
}
