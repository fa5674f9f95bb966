package ports

import (
	"context"
	"io"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
)

// ContainerEngine is the part of a Docker-compatible runtime the dev service
// needs. Swapping Docker for Podman only means another implementation.
type ContainerEngine interface {
	// Ping returns domain.ErrEngineUnavailable (wrapped) when the daemon
	// cannot be reached.
	Ping(ctx context.Context) error
	// ListContainers returns running containers carrying label=value. An
	// empty value matches any value of label.
	ListContainers(ctx context.Context, label, value string) ([]domain.Container, error)
	// FindByLabel returns running containers carrying label=value that
	// publish privatePort on the host.
	FindByLabel(ctx context.Context, label, value string, privatePort int) ([]domain.ContainerAddress, error)
	// NewContainer prepares, but does not create, a container.
	NewContainer(spec domain.ContainerSpec) Container
	GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error)
}

// Container is a single container driven through its lifecycle.
type Container interface {
	// ConfigureNetwork makes sure the network named in the ContainerSpec exists.
	ConfigureNetwork(ctx context.Context) error
	// Start pulls the image if needed, creates and starts the container and
	// waits until the service port accepts connections.
	Start(ctx context.Context) error
	// Stop stops and removes the container. A container that is already gone
	// is not an error.
	Stop(ctx context.Context) error
	// Address returns the host-reachable address of the service port.
	Address(ctx context.Context) (domain.ContainerAddress, error)
	ID() string
}
