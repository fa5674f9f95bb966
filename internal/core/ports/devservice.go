package ports

import (
	"context"
	"io"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
)

// ShutdownRegistry collects tasks to run when the process goes away.
type ShutdownRegistry interface {
	// AddCloseTask registers task. Tasks marked last run after all others.
	AddCloseTask(task func(), last bool)
}

// DevService is what the dev UI and CLI drive.
type DevService interface {
	// Reconcile runs one reconciliation pass against the current configuration.
	Reconcile(ctx context.Context) (*domain.ServiceResult, error)
	// Current returns the state left by the last pass.
	Current() *domain.ServiceResult
	// Stop releases the running service, if any.
	Stop(ctx context.Context)
	// Logs streams the logs of the running container.
	Logs(ctx context.Context) (io.ReadCloser, error)
}
