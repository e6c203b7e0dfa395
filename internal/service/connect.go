package service

import (
	"context"

	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/session"
)

// Connection is the result of a successful connect.
type Connection struct {
	Session      *session.Session
	ProjectCount int
}

// SessionService opens sessions after proving the credential works, and
// turns a session id back into a provider Source.
type SessionService struct {
	registry *session.Registry
	factory  SourceFactory
	log      infralogger.Logger
}

func NewSessionService(registry *session.Registry, factory SourceFactory, log infralogger.Logger) *SessionService {
	return &SessionService{registry: registry, factory: factory, log: log}
}

// Connect lists the organization's projects with pat and, on success,
// creates a session. A failed listing is returned as *domain.UpstreamError.
func (s *SessionService) Connect(ctx context.Context, organization, pat string) (*Connection, error) {
	projects, err := s.factory(organization, pat).ListProjects(ctx)
	if err != nil {
		return nil, domain.NewUpstreamError("list projects", err)
	}

	sess, err := s.registry.Create(organization, pat)
	if err != nil {
		return nil, err
	}

	s.log.Info("Session created",
		infralogger.String("organization", organization),
		infralogger.Int("project_count", len(projects)),
	)
	return &Connection{Session: sess, ProjectCount: len(projects)}, nil
}

// Source resolves sessionID and returns a provider client bound to it.
// Errors are domain.ErrUnauthorized or domain.ErrSessionExpired.
func (s *SessionService) Source(sessionID string) (Source, *session.Session, error) {
	sess, err := s.registry.Resolve(sessionID)
	if err != nil {
		return nil, nil, err
	}

	pat, err := s.registry.Reveal(sess)
	if err != nil {
		return nil, nil, err
	}
	return s.factory(sess.Organization, pat), sess, nil
}

// Revoke ends a session. It reports whether one existed.
func (s *SessionService) Revoke(sessionID string) bool {
	return s.registry.Revoke(sessionID)
}
