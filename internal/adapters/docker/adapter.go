package docker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
)

// ManagedLabel marks every container and network created by this adapter.
const ManagedLabel = "io.quarkiverse.code-server.managed"

const pingTimeout = 5 * time.Second

// Adapter implements ports.ContainerEngine using Docker SDK
type Adapter struct {
	cli  *client.Client
	host string
}

var _ ports.ContainerEngine = (*Adapter)(nil)

// NewAdapter creates a new Docker adapter instance
func NewAdapter() (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli, host: hostFromDaemon(cli.DaemonHost())}, nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.cli.Close()
}

// Ping checks that the daemon answers.
func (a *Adapter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := a.cli.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEngineUnavailable, err)
	}
	return nil
}

// ListContainers returns running containers carrying the label.
func (a *Adapter) ListContainers(ctx context.Context, label, value string) ([]domain.Container, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{Filters: labelFilter(label, value)})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]domain.Container, 0, len(containers))
	for _, c := range containers {
		result = append(result, domain.Container{
			ID:     shortID(c.ID),
			Name:   containerName(c.Names),
			Image:  c.Image,
			Status: c.Status,
			State:  c.State,
			Labels: c.Labels,
		})
	}
	return result, nil
}

// FindByLabel returns the host addresses of running labelled containers that
// publish privatePort.
func (a *Adapter) FindByLabel(ctx context.Context, label, value string, privatePort int) ([]domain.ContainerAddress, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{Filters: labelFilter(label, value)})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var result []domain.ContainerAddress
	for _, c := range containers {
		for _, p := range c.Ports {
			if int(p.PrivatePort) != privatePort || p.PublicPort == 0 {
				continue
			}
			result = append(result, domain.ContainerAddress{
				ID:   c.ID,
				Host: a.hostFor(p.IP),
				Port: int(p.PublicPort),
			})
			break
		}
	}
	return result, nil
}

// NewContainer prepares a container; nothing is created until Start.
func (a *Adapter) NewContainer(spec domain.ContainerSpec) ports.Container {
	return &Container{cli: a.cli, spec: spec, host: a.host}
}

// GetContainerLogs returns a demultiplexed stream of container logs
func (a *Adapter) GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     false,
		Timestamps: true,
	}
	raw, err := a.cli.ContainerLogs(ctx, id, options)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs of container %s: %w", shortID(id), err)
	}

	pr, pw := io.Pipe()
	go func() {
		defer raw.Close()
		_, err := stdcopy.StdCopy(pw, pw, raw)
		pw.CloseWithError(err)
	}()
	return pr, nil
}

// containerName returns the first name without the leading slash the API adds.
func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func labelFilter(label, value string) filters.Args {
	if value == "" {
		return filters.NewArgs(filters.Arg("label", label))
	}
	return filters.NewArgs(filters.Arg("label", label+"="+value))
}

// hostFor picks the host to dial for a published port bound to ip.
func (a *Adapter) hostFor(ip string) string {
	switch ip {
	case "", "0.0.0.0", "::":
		return a.host
	default:
		return ip
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
