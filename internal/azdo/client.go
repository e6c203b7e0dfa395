// Package azdo is a read-only client for the Azure DevOps REST API.
package azdo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	infraerrors "github.com/sivakumaru2002/devops-ease-access/infrastructure/errors"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://dev.azure.com"
	DefaultTimeout   = 20 * time.Second
	DefaultRunsTop   = 50
	DefaultBuildsTop = 100

	apiProjects  = "7.1-preview.4"
	apiPipelines = "7.1-preview.1"
	apiBuilds    = "7.1"

	maxResponseBody = 16 << 20
)

// Observer is told about every completed API call.
type Observer func(op string, elapsed time.Duration, err error)

// Config addresses one organization with one personal access token.
type Config struct {
	BaseURL      string
	Organization string
	PAT          string
	// Timeout bounds each call, independent of the caller's context.
	Timeout   time.Duration
	RunsTop   int
	BuildsTop int
	Observer  Observer
	// Limiter, when set, paces calls. Share one across clients to bound the
	// service's total request rate against the provider.
	Limiter *rate.Limiter
}

// Client calls the projects, pipelines, runs, builds and timeline endpoints.
type Client struct {
	http      *http.Client
	orgURL    string
	auth      string
	timeout   time.Duration
	runsTop   int
	buildsTop int
	observe   Observer
	limiter   *rate.Limiter
}

// NewClient returns a client for cfg.Organization using httpClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RunsTop <= 0 {
		cfg.RunsTop = DefaultRunsTop
	}
	if cfg.BuildsTop <= 0 {
		cfg.BuildsTop = DefaultBuildsTop
	}
	if cfg.Observer == nil {
		cfg.Observer = func(string, time.Duration, error) {}
	}

	return &Client{
		http:      httpClient,
		orgURL:    strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(cfg.Organization),
		auth:      "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+cfg.PAT)),
		timeout:   cfg.Timeout,
		runsTop:   cfg.RunsTop,
		buildsTop: cfg.BuildsTop,
		observe:   cfg.Observer,
		limiter:   cfg.Limiter,
	}
}

type listResponse[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// ListProjects returns the organization's projects.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var resp listResponse[domain.Project]
	err := c.get(ctx, "list_projects", "_apis/projects", url.Values{"api-version": {apiProjects}}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// ListPipelines returns the pipelines of project.
func (c *Client) ListPipelines(ctx context.Context, project string) ([]domain.Pipeline, error) {
	var resp listResponse[domain.Pipeline]
	path := url.PathEscape(project) + "/_apis/pipelines"
	if err := c.get(ctx, "list_pipelines", path, url.Values{"api-version": {apiPipelines}}, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// ListPipelineRuns returns up to RunsTop runs of a pipeline, newest first.
func (c *Client) ListPipelineRuns(ctx context.Context, project string, pipelineID int) ([]domain.Run, error) {
	var resp listResponse[domain.Run]
	path := url.PathEscape(project) + "/_apis/pipelines/" + strconv.Itoa(pipelineID) + "/runs"
	query := url.Values{
		"api-version": {apiPipelines},
		"$top":        {strconv.Itoa(c.runsTop)},
	}
	if err := c.get(ctx, "list_runs", path, query, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// ListBuilds returns up to BuildsTop builds of project by queue time, newest first.
func (c *Client) ListBuilds(ctx context.Context, project string) ([]domain.Build, error) {
	var resp listResponse[domain.Build]
	path := url.PathEscape(project) + "/_apis/build/builds"
	query := url.Values{
		"api-version": {apiBuilds},
		"$top":        {strconv.Itoa(c.buildsTop)},
		"queryOrder":  {"queueTimeDescending"},
	}
	if err := c.get(ctx, "list_builds", path, query, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// GetTimeline returns the timeline records of a build (run).
func (c *Client) GetTimeline(ctx context.Context, project string, buildID int) (*domain.Timeline, error) {
	var timeline domain.Timeline
	path := url.PathEscape(project) + "/_apis/build/builds/" + strconv.Itoa(buildID) + "/timeline"
	if err := c.get(ctx, "get_timeline", path, url.Values{"api-version": {apiBuilds}}, &timeline); err != nil {
		return nil, err
	}
	return &timeline, nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) (err error) {
	started := time.Now()
	defer func() { c.observe(op, time.Since(started), err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err = c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limit: %w", op, err)
		}
	}

	endpoint := c.orgURL + "/" + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return fmt.Errorf("%s: %w", op, httpErr)
	}

	// A rejected token is answered with 203 and an HTML sign-in page.
	if resp.StatusCode == http.StatusNonAuthoritativeInfo {
		return fmt.Errorf("%s: %w", op, &infraerrors.HTTPError{
			StatusCode: http.StatusUnauthorized,
			Status:     resp.Status,
			Message:    "personal access token rejected",
		})
	}

	if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); decodeErr != nil {
		return fmt.Errorf("%s: decode response: %w", op, decodeErr)
	}
	return nil
}
