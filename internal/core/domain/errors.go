package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineUnavailable means the container engine could not be reached.
	ErrEngineUnavailable = errors.New("container engine unavailable")
	// ErrDisabled means the dev service was switched off in configuration.
	ErrDisabled = errors.New("dev service disabled")
	// ErrStartFailure is matched by every *StartError.
	ErrStartFailure = errors.New("container start failed")
	// ErrReleaseFailure wraps errors returned while stopping a container.
	ErrReleaseFailure = errors.New("container release failed")
)

// StartError is returned when a new container could not be started.
type StartError struct {
	Image string
	Err   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start container from %s: %v", e.Image, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

func (e *StartError) Is(target error) bool {
	return target == ErrStartFailure
}
