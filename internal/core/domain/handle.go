package domain

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// ServiceStatus is the outcome of a reconciliation pass.
type ServiceStatus string

const (
	StatusRunning     ServiceStatus = "running"
	StatusDisabled    ServiceStatus = "disabled"
	StatusUnavailable ServiceStatus = "unavailable"
	StatusStopped     ServiceStatus = "stopped"
)

// ServiceResult is what a reconciliation pass hands back to its caller.
type ServiceResult struct {
	Feature     string            `json:"feature"`
	Status      ServiceStatus     `json:"status"`
	ContainerID string            `json:"containerId,omitempty"`
	Owned       bool              `json:"owned"`
	Config      map[string]string `json:"config,omitempty"`
}

// Running reports whether the result carries a usable service.
func (r *ServiceResult) Running() bool {
	return r != nil && r.Status == StatusRunning
}

// ReleaseFunc tears a container down.
type ReleaseFunc func(ctx context.Context) error

// ServiceHandle is one running dev service instance, either started by us or
// discovered. A handle without a release func is not ours to stop.
type ServiceHandle struct {
	feature     string
	containerID string
	config      map[string]string
	release     ReleaseFunc

	once       sync.Once
	releaseErr error
}

// NewServiceHandle wraps a running container. release may be nil.
func NewServiceHandle(feature, containerID string, release ReleaseFunc, config map[string]string) *ServiceHandle {
	return &ServiceHandle{
		feature:     feature,
		containerID: containerID,
		config:      maps.Clone(config),
		release:     release,
	}
}

func (h *ServiceHandle) Feature() string     { return h.feature }
func (h *ServiceHandle) ContainerID() string { return h.containerID }

// Owned reports whether releasing this handle stops a container.
func (h *ServiceHandle) Owned() bool { return h.release != nil }

// Config returns a copy of the exposed configuration.
func (h *ServiceHandle) Config() map[string]string { return maps.Clone(h.config) }

// Release runs the release func at most once. Later calls return the first
// call's error.
func (h *ServiceHandle) Release(ctx context.Context) error {
	h.once.Do(func() {
		if h.release == nil {
			return
		}
		if err := h.release(ctx); err != nil {
			h.releaseErr = fmt.Errorf("%w: container %s: %w", ErrReleaseFailure, h.containerID, err)
		}
	})
	return h.releaseErr
}

// Result renders the handle as a running ServiceResult.
func (h *ServiceHandle) Result() *ServiceResult {
	return &ServiceResult{
		Feature:     h.feature,
		Status:      StatusRunning,
		ContainerID: h.containerID,
		Owned:       h.Owned(),
		Config:      h.Config(),
	}
}
