package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	infraerrors "github.com/sivakumaru2002/devops-ease-access/infrastructure/errors"
	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	"github.com/sivakumaru2002/devops-ease-access/internal/api"
	"github.com/sivakumaru2002/devops-ease-access/internal/cache"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/secret"
	"github.com/sivakumaru2002/devops-ease-access/internal/service"
	"github.com/sivakumaru2002/devops-ease-access/internal/session"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSource is a service.Source with canned responses.
type stubSource struct {
	projects    []domain.Project
	projectsErr error
	pipelines   []domain.Pipeline
	runs        []domain.Run
	runsErr     error
	builds      []domain.Build
	timeline    *domain.Timeline
}

func (s *stubSource) ListProjects(context.Context) ([]domain.Project, error) {
	return s.projects, s.projectsErr
}

func (s *stubSource) ListPipelines(context.Context, string) ([]domain.Pipeline, error) {
	return s.pipelines, nil
}

func (s *stubSource) ListPipelineRuns(context.Context, string, int) ([]domain.Run, error) {
	return s.runs, s.runsErr
}

func (s *stubSource) ListBuilds(context.Context, string) ([]domain.Build, error) {
	return s.builds, nil
}

func (s *stubSource) GetTimeline(context.Context, string, int) (*domain.Timeline, error) {
	return s.timeline, nil
}

type testEnv struct {
	router   *gin.Engine
	src      *stubSource
	registry *session.Registry
	now      *time.Time
}

func newTestEnv(t *testing.T, jwtSecret string) *testEnv {
	t.Helper()

	codec, err := secret.NewEphemeralCodec()
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{
		src: &stubSource{projects: []domain.Project{{ID: "1", Name: "web"}}},
		now: &now,
	}
	env.registry = session.NewRegistry(codec, 30*time.Minute, session.WithClock(func() time.Time { return *env.now }))

	log := infralogger.NewNop()
	metrics := telemetry.NewProvider()
	factory := func(string, string) service.Source { return env.src }

	h := api.NewHandler(
		service.NewSessionService(env.registry, factory, log),
		service.NewCatalogService(),
		service.NewAnalyticsService(cache.New[domain.AnalyticsReport](time.Minute), metrics),
		service.NewFailureService(service.FailureConfig{}, nil, metrics, log),
		metrics,
		log,
	)

	env.router = gin.New()
	api.SetupRoutes(env.router, h, metrics.Handler(), jwtSecret)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) connect(t *testing.T) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/connect", map[string]string{"organization": "contoso", "pat": "secret-pat"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.ConnectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.SessionID
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func TestConnect(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodPost, "/api/connect", map[string]string{"organization": "contoso", "pat": "secret-pat"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ConnectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.SessionID, 64)
	assert.Equal(t, "contoso", resp.Organization)
	assert.Equal(t, 1, resp.ProjectCount)
}

func TestConnect_Validation(t *testing.T) {
	env := newTestEnv(t, "")

	for _, body := range []map[string]string{
		{"organization": "c", "pat": "secret-pat"},
		{"organization": "contoso", "pat": "abc"},
		{"organization": "contoso"},
	} {
		w := env.do(t, http.MethodPost, "/api/connect", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Zero(t, env.registry.Len())
}

func TestConnect_ProviderRejects(t *testing.T) {
	env := newTestEnv(t, "")
	env.src.projectsErr = &infraerrors.HTTPError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"}

	w := env.do(t, http.MethodPost, "/api/connect", map[string]string{"organization": "contoso", "pat": "bad-pat"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, errorBody(t, w), "Authentication/connectivity failed")
	assert.Zero(t, env.registry.Len())
}

func TestSessionErrors(t *testing.T) {
	env := newTestEnv(t, "")
	sid := env.connect(t)

	w := env.do(t, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/projects?session_id=unknown", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid session", errorBody(t, w))

	*env.now = env.now.Add(31 * time.Minute)
	w = env.do(t, http.MethodGet, "/api/projects?session_id="+sid, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session expired", errorBody(t, w))

	w = env.do(t, http.MethodGet, "/api/projects?session_id="+sid, nil)
	assert.Equal(t, "Invalid session", errorBody(t, w))
}

func TestDisconnect(t *testing.T) {
	env := newTestEnv(t, "")
	sid := env.connect(t)

	w := env.do(t, http.MethodDelete, "/api/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/api/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/projects?session_id="+sid, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	env := newTestEnv(t, "")
	sid := env.connect(t)
	env.src.pipelines = []domain.Pipeline{{ID: 3, Name: "web-ci"}}
	env.src.runs = []domain.Run{{ID: 9, State: "completed", Result: "succeeded"}}

	w := env.do(t, http.MethodGet, "/api/projects?session_id="+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var projects []domain.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
	assert.Len(t, projects, 1)

	w = env.do(t, http.MethodGet, "/api/projects/web/pipelines?session_id="+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pipelines []domain.PipelineSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pipelines))
	require.Len(t, pipelines, 1)
	assert.Equal(t, "succeeded", pipelines[0].LatestResult)

	w = env.do(t, http.MethodGet, "/api/projects/web/pipelines/3/runs?session_id="+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/projects/web/pipelines/abc/runs?session_id="+sid, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsRoute(t *testing.T) {
	env := newTestEnv(t, "")
	sid := env.connect(t)
	env.src.builds = []domain.Build{
		{ID: 1, Result: "succeeded", QueueTime: "2026-03-01T08:00:00Z"},
		{ID: 2, Result: "failed", QueueTime: "2026-03-01T09:00:00Z"},
	}

	w := env.do(t, http.MethodGet, "/api/projects/web/analytics?session_id="+sid, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report domain.AnalyticsReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalRuns)
	assert.InDelta(t, 50.0, report.SuccessRate, 0.001)
}

func TestErrorIntelligenceRoute(t *testing.T) {
	env := newTestEnv(t, "")
	sid := env.connect(t)
	env.src.runs = []domain.Run{
		{ID: 11, Result: "failed", CreatedDate: "2026-03-01T10:00:00Z", Pipeline: &domain.PipelineRef{ID: 3, Name: "web-ci"}},
		{ID: 10, Result: "succeeded"},
	}
	env.src.timeline = &domain.Timeline{Records: []domain.TimelineRecord{
		{Type: "Task", Result: "failed", Name: "Build", Issues: []domain.Issue{{Type: "error", Message: "compile error"}}},
	}}
	base := "/api/projects/web/pipelines/3/error-intelligence?session_id=" + sid

	w := env.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, domain.StatusFailuresDetected, report["status"])
	assert.Equal(t, "web-ci", report["pipeline_name"])
	assert.Nil(t, report["ai_summary"])
	assert.Contains(t, report, "ai_summary")
	runs, ok := report["failed_runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)
	first, ok := runs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "compile error", first["error_message"])

	w = env.do(t, http.MethodGet, base+"&run_id=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, domain.StatusAllSuccessful, report["status"])

	w = env.do(t, http.MethodGet, base+"&run_id=99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Run 99 not found", errorBody(t, w))

	w = env.do(t, http.MethodGet, base+"&run_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpstreamStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"provider 404", &infraerrors.HTTPError{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"provider 401", &infraerrors.HTTPError{StatusCode: http.StatusUnauthorized}, http.StatusForbidden},
		{"provider 403", &infraerrors.HTTPError{StatusCode: http.StatusForbidden}, http.StatusForbidden},
		{"provider 500", &infraerrors.HTTPError{StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			sid := env.connect(t)
			env.src.runsErr = tt.err

			w := env.do(t, http.MethodGet, "/api/projects/web/pipelines/3/runs?session_id="+sid, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestJWTProtectsAPI(t *testing.T) {
	env := newTestEnv(t, "operator-secret")

	w := env.do(t, http.MethodPost, "/api/connect", map[string]string{"organization": "contoso", "pat": "secret-pat"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, env.registry.Len())
}
