package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	infragin "github.com/sivakumaru2002/devops-ease-access/infrastructure/gin"
)

// SetupRoutes registers /metrics and the /api group. The /api group requires
// a bearer token when jwtSecret is set.
func SetupRoutes(router *gin.Engine, h *Handler, metrics http.Handler, jwtSecret string) {
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v := infragin.ProtectedGroup(router, "/api", jwtSecret)

	v.POST("/connect", h.Connect)
	v.DELETE("/sessions/:session_id", h.Disconnect)

	v.GET("/projects", h.ListProjects)

	project := v.Group("/projects/:project")
	project.GET("/analytics", h.Analytics)
	project.GET("/pipelines", h.ListPipelines)
	project.GET("/pipelines/:pipeline_id/runs", h.ListRuns)
	project.GET("/pipelines/:pipeline_id/error-intelligence", h.ErrorIntelligence)
}
