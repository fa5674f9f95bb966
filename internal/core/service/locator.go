package service

import (
	"context"
	"fmt"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
)

// Locator finds a running container started by another process that can be
// shared instead of launching a new one.
type Locator struct {
	engine ports.ContainerEngine
	label  string
	port   int
}

func NewLocator(engine ports.ContainerEngine, label string, port int) *Locator {
	return &Locator{engine: engine, label: label, port: port}
}

// Locate returns the first container labelled with serviceName that exposes
// the service port. Sharing only happens in development mode; otherwise, and
// when nothing matches, it returns nil.
func (l *Locator) Locate(ctx context.Context, serviceName string, shared bool, mode domain.LaunchMode) (*domain.ContainerAddress, error) {
	if !shared || !mode.IsDevelopment() {
		return nil, nil
	}

	found, err := l.engine.FindByLabel(ctx, l.label, serviceName, l.port)
	if err != nil {
		return nil, fmt.Errorf("failed to look up containers labelled %s=%s: %w", l.label, serviceName, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	addr := found[0]
	return &addr, nil
}
