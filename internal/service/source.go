// Package service composes the provider client, triage, analytics, cache and
// summarizer into the operations served by the API.
package service

import (
	"context"

	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
)

// Source is the CI/CD provider as seen by the services. *azdo.Client
// implements it.
type Source interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListPipelines(ctx context.Context, project string) ([]domain.Pipeline, error)
	ListPipelineRuns(ctx context.Context, project string, pipelineID int) ([]domain.Run, error)
	ListBuilds(ctx context.Context, project string) ([]domain.Build, error)
	GetTimeline(ctx context.Context, project string, buildID int) (*domain.Timeline, error)
}

// SourceFactory builds a Source for an organization and access token.
type SourceFactory func(organization, pat string) Source
