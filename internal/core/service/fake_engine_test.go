package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
)

// fakeEngine records every call the core makes against the engine.
type fakeEngine struct {
	mu sync.Mutex

	unavailable bool
	startErr    error
	addressErr  error
	stopErr     error
	shared      map[string][]domain.ContainerAddress // by label value
	findErr     error

	// When set, Start signals startBegan and blocks until startGate closes
	// or its context is done.
	startGate  chan struct{}
	startBegan chan struct{}

	pings      int
	finds      int
	containers []*fakeContainer
}

func (e *fakeEngine) Ping(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pings++
	if e.unavailable {
		return fmt.Errorf("%w: connection refused", domain.ErrEngineUnavailable)
	}
	return nil
}

func (e *fakeEngine) ListContainers(context.Context, string, string) ([]domain.Container, error) {
	return nil, nil
}

func (e *fakeEngine) FindByLabel(_ context.Context, label, value string, port int) ([]domain.ContainerAddress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finds++
	if e.findErr != nil {
		return nil, e.findErr
	}
	if label != DevServiceLabel || port != ServicePort {
		return nil, nil
	}
	return e.shared[value], nil
}

func (e *fakeEngine) NewContainer(spec domain.ContainerSpec) ports.Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := &fakeContainer{engine: e, spec: spec, id: fmt.Sprintf("container-%d", len(e.containers)+1)}
	e.containers = append(e.containers, c)
	return c
}

func (e *fakeEngine) GetContainerLogs(_ context.Context, id string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("logs of " + id)), nil
}

func (e *fakeEngine) started() []*fakeContainer {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*fakeContainer
	for _, c := range e.containers {
		if c.starts > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (e *fakeEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pings + e.finds + len(e.containers)
}

type fakeContainer struct {
	engine *fakeEngine
	spec   domain.ContainerSpec
	id     string

	networkConfigured bool
	starts            int
	stops             int
}

func (c *fakeContainer) ConfigureNetwork(context.Context) error {
	c.networkConfigured = true
	return nil
}

func (c *fakeContainer) Start(ctx context.Context) error {
	c.starts++
	if c.engine.startGate != nil {
		if c.engine.startBegan != nil {
			close(c.engine.startBegan)
		}
		select {
		case <-c.engine.startGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.engine.startErr
}

func (c *fakeContainer) Stop(context.Context) error {
	c.stops++
	if c.stops > 1 {
		return nil
	}
	return c.engine.stopErr
}

func (c *fakeContainer) Address(context.Context) (domain.ContainerAddress, error) {
	if c.engine.addressErr != nil {
		return domain.ContainerAddress{}, c.engine.addressErr
	}
	return domain.ContainerAddress{ID: c.id, Host: "localhost", Port: 49153}, nil
}

func (c *fakeContainer) ID() string { return c.id }

// mockBuilder is a testify mock of ports.BuilderService.
type mockBuilder struct {
	mock.Mock
}

func (m *mockBuilder) BuildImage(ctx context.Context, repoURL, imageName string, progress io.Writer) (string, error) {
	args := m.Called(ctx, repoURL, imageName, progress)
	return args.String(0), args.Error(1)
}

// mockShutdown is a testify mock of ports.ShutdownRegistry that keeps the
// registered tasks so tests can fire them.
type mockShutdown struct {
	mock.Mock
	tasks []func()
}

func (m *mockShutdown) AddCloseTask(task func(), last bool) {
	m.Called(last)
	m.tasks = append(m.tasks, task)
}

func (m *mockShutdown) fire() {
	tasks := m.tasks
	m.tasks = nil
	for _, t := range tasks {
		t()
	}
}

var errPull = errors.New("pull access denied for img:latest")
