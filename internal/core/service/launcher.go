package service

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
	"github.com/quarkiverse/code-server-devservice/pkg/logging"
)

// LaunchRequest carries what a fresh container start depends on.
type LaunchRequest struct {
	Snapshot         domain.Snapshot
	LaunchMode       domain.LaunchMode
	UseSharedNetwork bool
	StartupTimeout   time.Duration
	Progress         io.Writer
}

// Launcher starts new code-server containers.
type Launcher struct {
	engine  ports.ContainerEngine
	builder ports.BuilderService

	userName func() string
	newAlias func() string
}

// NewLauncher returns a launcher. builder may be nil, in which case image
// repositories are not supported.
func NewLauncher(engine ports.ContainerEngine, builder ports.BuilderService) *Launcher {
	return &Launcher{
		engine:   engine,
		builder:  builder,
		userName: currentUserName,
		newAlias: func() string {
			return hostAliasPrefix + "-" + uuid.NewString()[:8]
		},
	}
}

// Launch starts a container for req and returns a handle whose release stops
// it. Failures are returned as *domain.StartError and not retried.
func (l *Launcher) Launch(ctx context.Context, req LaunchRequest) (*domain.ServiceHandle, error) {
	snap := req.Snapshot

	if snap.ImageRepo != "" {
		if l.builder == nil {
			return nil, &domain.StartError{Image: snap.ImageName, Err: fmt.Errorf("no image builder configured for %s", snap.ImageRepo)}
		}
		logging.Info(subsystem, "Building %s from %s", snap.ImageName, snap.ImageRepo)
		if _, err := l.builder.BuildImage(ctx, snap.ImageRepo, snap.ImageName, req.Progress); err != nil {
			return nil, &domain.StartError{Image: snap.ImageName, Err: err}
		}
	}

	spec := l.containerSpec(req)
	container := l.engine.NewContainer(spec)

	logging.Info(subsystem, "Starting a Code Server container using %s", spec.Image)

	if err := container.ConfigureNetwork(ctx); err != nil {
		return nil, &domain.StartError{Image: spec.Image, Err: err}
	}
	if err := container.Start(ctx); err != nil {
		l.discard(container)
		return nil, &domain.StartError{Image: spec.Image, Err: err}
	}

	var addr domain.ContainerAddress
	if spec.Network != "" {
		addr = domain.ContainerAddress{ID: container.ID(), Host: spec.NetworkAliases[0], Port: ServicePort}
	} else {
		var err error
		addr, err = container.Address(ctx)
		if err != nil {
			l.discard(container)
			return nil, &domain.StartError{Image: spec.Image, Err: err}
		}
	}

	release := func(ctx context.Context) error {
		return container.Stop(ctx)
	}
	return domain.NewServiceHandle(Feature, container.ID(), release, urlConfig("http://"+addr.HostPort())), nil
}

// containerSpec assembles env, ports, network, mounts and labels for req.
func (l *Launcher) containerSpec(req LaunchRequest) domain.ContainerSpec {
	snap := req.Snapshot

	env := map[string]string{
		"DOCKER_USER": l.userName(),
		"TZ":          "Etc/UTC",
	}
	maps.Copy(env, snap.ContainerEnv)

	spec := domain.ContainerSpec{
		Image:          snap.ImageName,
		Env:            env,
		Labels:         map[string]string{},
		ServicePort:    ServicePort,
		StartupTimeout: req.StartupTimeout,
		Progress:       req.Progress,
	}

	switch {
	case req.UseSharedNetwork:
		spec.Network = SharedNetwork
		spec.NetworkAliases = []string{l.newAlias()}
	case snap.FixedPort > 0:
		spec.HostPort = snap.FixedPort
	}

	if snap.WorkspaceDir != "" {
		spec.Binds = append(spec.Binds, domain.Bind{Source: snap.WorkspaceDir, Target: ProjectFolder})
	}

	// One-shot runs must not be found by later shared lookups.
	if req.LaunchMode.IsDevelopment() {
		spec.Labels[DevServiceLabel] = snap.ServiceName
	}

	return spec
}

// discard removes a container whose start did not complete.
func (l *Launcher) discard(container ports.Container) {
	if container.ID() == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.Stop(ctx); err != nil {
		logging.Warn(subsystem, "Could not remove partially started container %s: %v", container.ID(), err)
	}
}

func currentUserName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
