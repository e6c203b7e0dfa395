package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/summarizer"
)

var errUnexpectedCall = errors.New("unexpected call")

// fakeSource implements service.Source with overridable funcs.
type fakeSource struct {
	listProjectsFunc  func(ctx context.Context) ([]domain.Project, error)
	listPipelinesFunc func(ctx context.Context, project string) ([]domain.Pipeline, error)
	listRunsFunc      func(ctx context.Context, project string, pipelineID int) ([]domain.Run, error)
	listBuildsFunc    func(ctx context.Context, project string) ([]domain.Build, error)
	getTimelineFunc   func(ctx context.Context, project string, buildID int) (*domain.Timeline, error)

	buildCalls    atomic.Int32
	timelineCalls atomic.Int32
}

func (f *fakeSource) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if f.listProjectsFunc == nil {
		return nil, errUnexpectedCall
	}
	return f.listProjectsFunc(ctx)
}

func (f *fakeSource) ListPipelines(ctx context.Context, project string) ([]domain.Pipeline, error) {
	if f.listPipelinesFunc == nil {
		return nil, errUnexpectedCall
	}
	return f.listPipelinesFunc(ctx, project)
}

func (f *fakeSource) ListPipelineRuns(ctx context.Context, project string, pipelineID int) ([]domain.Run, error) {
	if f.listRunsFunc == nil {
		return nil, errUnexpectedCall
	}
	return f.listRunsFunc(ctx, project, pipelineID)
}

func (f *fakeSource) ListBuilds(ctx context.Context, project string) ([]domain.Build, error) {
	f.buildCalls.Add(1)
	if f.listBuildsFunc == nil {
		return nil, errUnexpectedCall
	}
	return f.listBuildsFunc(ctx, project)
}

func (f *fakeSource) GetTimeline(ctx context.Context, project string, buildID int) (*domain.Timeline, error) {
	f.timelineCalls.Add(1)
	if f.getTimelineFunc == nil {
		return nil, errUnexpectedCall
	}
	return f.getTimelineFunc(ctx, project, buildID)
}

// recordingSummarizer returns a fixed result and records its input.
type recordingSummarizer struct {
	mu       sync.Mutex
	result   summarizer.Result
	messages []string
	calls    int
}

func (r *recordingSummarizer) Summarize(_ context.Context, messages []string) summarizer.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.messages = append([]string(nil), messages...)
	return r.result
}

func (r *recordingSummarizer) Name() string { return "recording" }

func run(id int, result string) domain.Run {
	return domain.Run{
		ID:          id,
		Result:      result,
		State:       "completed",
		CreatedDate: "2026-03-01T10:00:00Z",
		Pipeline:    &domain.PipelineRef{ID: 3, Name: "web-ci"},
	}
}

func runsFunc(runs ...domain.Run) func(context.Context, string, int) ([]domain.Run, error) {
	return func(context.Context, string, int) ([]domain.Run, error) { return runs, nil }
}
