package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
)

// ErrNotRunning is returned by Session.Logs when no container is running.
var ErrNotRunning = errors.New("code-server dev service is not running")

// RequestSource produces the request for the next pass, usually by reloading
// configuration.
type RequestSource func() (Request, error)

// Session binds a Controller to a configuration source. It implements
// ports.DevService.
type Session struct {
	controller *Controller
	source     RequestSource
	engine     ports.ContainerEngine
}

var _ ports.DevService = (*Session)(nil)

func NewSession(controller *Controller, engine ports.ContainerEngine, source RequestSource) *Session {
	return &Session{controller: controller, source: source, engine: engine}
}

func (s *Session) Reconcile(ctx context.Context) (*domain.ServiceResult, error) {
	req, err := s.source()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return s.controller.Reconcile(ctx, req)
}

func (s *Session) Current() *domain.ServiceResult {
	return s.controller.Current()
}

func (s *Session) Stop(ctx context.Context) {
	s.controller.Stop(ctx)
}

func (s *Session) Logs(ctx context.Context) (io.ReadCloser, error) {
	current := s.controller.Current()
	if !current.Running() {
		return nil, ErrNotRunning
	}
	return s.engine.GetContainerLogs(ctx, current.ContainerID)
}
