package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/quarkiverse/code-server-devservice/internal/config"
	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
	"github.com/quarkiverse/code-server-devservice/pkg/logging"
)

const subsystem = "CodeServer"

const defaultReleaseTimeout = 30 * time.Second

// Request is the input of one reconciliation pass.
type Request struct {
	Config         config.DevServices
	WorkspaceDir   string
	LaunchMode     domain.LaunchMode
	SharedNetwork  bool
	StartupTimeout time.Duration
}

// RequestFromConfig turns a loaded configuration into a Request.
func RequestFromConfig(cfg config.Config) (Request, error) {
	mode, err := domain.ParseLaunchMode(cfg.LaunchMode)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Config:         cfg.DevServices,
		WorkspaceDir:   cfg.WorkspaceDir,
		LaunchMode:     mode,
		SharedNetwork:  cfg.UseSharedNetwork(),
		StartupTimeout: cfg.DevServices.Timeout,
	}, nil
}

// reconcileState is the process-wide record of the running service. handle
// and snapshot are set and cleared together.
type reconcileState struct {
	mu             sync.Mutex
	handle         *domain.ServiceHandle
	snapshot       *domain.Snapshot
	hookRegistered bool
}

// Controller owns the single dev service instance of a process. Construct one
// per process and call Reconcile on every build trigger.
type Controller struct {
	engine   ports.ContainerEngine
	locator  *Locator
	launcher *Launcher
	shutdown ports.ShutdownRegistry

	state  reconcileState
	last   atomic.Pointer[domain.ServiceResult]
	flight singleflight.Group

	releaseTimeout time.Duration
	newCompressor  func(title string) *logging.StartupCompressor
}

// NewController wires the core. builder and shutdown may be nil.
func NewController(engine ports.ContainerEngine, builder ports.BuilderService, shutdown ports.ShutdownRegistry) *Controller {
	return &Controller{
		engine:         engine,
		locator:        NewLocator(engine, DevServiceLabel, ServicePort),
		launcher:       NewLauncher(engine, builder),
		shutdown:       shutdown,
		releaseTimeout: defaultReleaseTimeout,
		newCompressor:  logging.NewStartupCompressor,
	}
}

// Reconcile makes sure the service described by req is running and returns
// its connection info. An unchanged configuration returns the current handle
// without touching the engine. Disabled and unavailable are reported through
// the result status; only a failed start returns an error.
func (c *Controller) Reconcile(ctx context.Context, req Request) (*domain.ServiceResult, error) {
	snap := BuildSnapshot(req.Config, req.WorkspaceDir)
	key := fmt.Sprintf("%s/%s/%t/%s", snap.Fingerprint(), req.LaunchMode, req.SharedNetwork, req.StartupTimeout)

	// The pass is shared by every caller on key, so no single caller may
	// cancel it. Starts are bounded by the startup timeout instead.
	passCtx := context.WithoutCancel(ctx)
	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.reconcile(passCtx, req, snap)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ServiceResult), nil
}

func (c *Controller) reconcile(ctx context.Context, req Request, snap domain.Snapshot) (*domain.ServiceResult, error) {
	s := &c.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if !snap.Enabled || req.LaunchMode == domain.LaunchModeNormal {
		c.releaseLocked(ctx)
		logging.Debug(subsystem, "Not starting dev services for Code Server, as it has been disabled in the config.")
		return c.publish(&domain.ServiceResult{Feature: Feature, Status: domain.StatusDisabled}), nil
	}

	if s.handle != nil && s.snapshot != nil && s.snapshot.Equal(snap) {
		return c.publish(s.handle.Result()), nil
	}

	if err := c.engine.Ping(ctx); err != nil {
		logging.Warn(subsystem, "Docker isn't working, please run Code Server yourself: %v", err)
		unavailable := &domain.ServiceResult{Feature: Feature, Status: domain.StatusUnavailable}
		if s.handle == nil {
			return c.publish(unavailable), nil
		}
		// The previous container is still ours and still reachable.
		logging.Warn(subsystem, "Keeping Code Server container %s from the previous configuration", s.handle.ContainerID())
		c.publish(s.handle.Result())
		return unavailable, nil
	}

	c.releaseLocked(ctx)

	logging.Info(subsystem, "Starting Code Server Dev Services %s", snap.WorkspaceDir)
	compressor := c.newCompressor("Code Server Dev Services Starting:")

	handle, err := c.start(ctx, req, snap, compressor)
	if err != nil {
		compressor.CloseAndDump()
		logging.Error(subsystem, err, "Failed to start Code Server")
		c.publish(&domain.ServiceResult{Feature: Feature, Status: domain.StatusStopped})
		return nil, err
	}
	compressor.Close()

	s.handle = handle
	s.snapshot = &snap

	url := handle.Config()[URLConfigKey]
	if handle.Owned() {
		logging.Info(subsystem, "Dev Services for Code Server started. Code Server is available at %s", url)
	} else {
		logging.Info(subsystem, "Reusing shared Code Server container %s at %s", handle.ContainerID(), url)
	}

	if !s.hookRegistered && c.shutdown != nil {
		s.hookRegistered = true
		c.shutdown.AddCloseTask(c.closeTask, true)
	}

	return c.publish(handle.Result()), nil
}

func (c *Controller) start(ctx context.Context, req Request, snap domain.Snapshot, progress *logging.StartupCompressor) (*domain.ServiceHandle, error) {
	addr, err := c.locator.Locate(ctx, snap.ServiceName, snap.Shared, req.LaunchMode)
	if err != nil {
		logging.Warn(subsystem, "Shared container lookup failed, starting a new one: %v", err)
	}
	if addr != nil {
		// The address carries no scheme.
		return domain.NewServiceHandle(Feature, addr.ID, nil, urlConfig("http://"+addr.HostPort())), nil
	}

	return c.launcher.Launch(ctx, LaunchRequest{
		Snapshot:         snap,
		LaunchMode:       req.LaunchMode,
		UseSharedNetwork: req.SharedNetwork,
		StartupTimeout:   req.StartupTimeout,
		Progress:         progress,
	})
}

// releaseLocked stops the current handle, if any, and clears handle and
// snapshot even when the release fails.
func (c *Controller) releaseLocked(ctx context.Context) {
	s := &c.state
	if s.handle == nil {
		s.snapshot = nil
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.releaseTimeout)
	defer cancel()
	if err := s.handle.Release(ctx); err != nil {
		logging.Error(subsystem, err, "Failed to stop Code Server")
	}
	s.handle = nil
	s.snapshot = nil
}

// closeTask is registered once per process lifetime and resets everything so
// that a reused process registers again.
func (c *Controller) closeTask() {
	s := &c.state
	s.mu.Lock()
	defer s.mu.Unlock()

	c.releaseLocked(context.Background())
	s.hookRegistered = false
	c.publish(&domain.ServiceResult{Feature: Feature, Status: domain.StatusStopped})
}

// Stop releases the running service outside of a reconciliation pass.
func (c *Controller) Stop(ctx context.Context) {
	s := &c.state
	s.mu.Lock()
	defer s.mu.Unlock()

	c.releaseLocked(ctx)
	c.publish(&domain.ServiceResult{Feature: Feature, Status: domain.StatusStopped})
}

// Current returns the result of the last pass without waiting for a running
// one.
func (c *Controller) Current() *domain.ServiceResult {
	if r := c.last.Load(); r != nil {
		return r
	}
	return &domain.ServiceResult{Feature: Feature, Status: domain.StatusStopped}
}

func (c *Controller) publish(r *domain.ServiceResult) *domain.ServiceResult {
	c.last.Store(r)
	return r
}
