package service

import (
	"context"

	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	unknownState       = "unknown"
	catalogConcurrency = 8
)

// CatalogService lists projects, pipelines and runs.
type CatalogService struct{}

func NewCatalogService() *CatalogService { return &CatalogService{} }

func (s *CatalogService) Projects(ctx context.Context, src Source) ([]domain.Project, error) {
	projects, err := src.ListProjects(ctx)
	if err != nil {
		return nil, domain.NewUpstreamError("list projects", err)
	}
	return projects, nil
}

// Pipelines lists a project's pipelines with the state and result of each
// one's latest run ("unknown" when it has never run). Any failing listing
// fails the whole call.
func (s *CatalogService) Pipelines(ctx context.Context, src Source, project string) ([]domain.PipelineSummary, error) {
	pipelines, err := src.ListPipelines(ctx, project)
	if err != nil {
		return nil, domain.NewUpstreamError("list pipelines", err)
	}

	summaries := make([]domain.PipelineSummary, len(pipelines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogConcurrency)

	for i, p := range pipelines {
		g.Go(func() error {
			runs, listErr := src.ListPipelineRuns(gctx, project, p.ID)
			if listErr != nil {
				return domain.NewUpstreamError("list pipeline runs", listErr)
			}

			summary := domain.PipelineSummary{
				ID:           p.ID,
				Name:         p.Name,
				Folder:       p.Folder,
				LatestStatus: unknownState,
				LatestResult: unknownState,
			}
			if len(runs) > 0 {
				summary.LatestStatus = orUnknown(runs[0].State)
				summary.LatestResult = orUnknown(runs[0].Result)
			}
			summaries[i] = summary
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return nil, waitErr
	}
	return summaries, nil
}

func (s *CatalogService) Runs(ctx context.Context, src Source, project string, pipelineID int) ([]domain.Run, error) {
	runs, err := src.ListPipelineRuns(ctx, project, pipelineID)
	if err != nil {
		return nil, domain.NewUpstreamError("list pipeline runs", err)
	}
	return runs, nil
}

func orUnknown(v string) string {
	if v == "" {
		return unknownState
	}
	return v
}
