package domain

import (
	"io"
	"net"
	"strconv"
	"time"
)

// Container represents a container known to the engine.
type Container struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Image  string            `json:"image"`
	Status string            `json:"status"`
	State  string            `json:"state"` // running, exited, etc.
	Labels map[string]string `json:"labels,omitempty"`
}

// ContainerAddress is where a running container can be reached from the host.
type ContainerAddress struct {
	ID   string `json:"id"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// HostPort renders the address as host:port, without a scheme.
func (a ContainerAddress) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Bind is a host path mounted into the container.
type Bind struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ContainerSpec is everything an engine needs to create one container.
type ContainerSpec struct {
	Image  string
	Env    map[string]string
	Labels map[string]string
	Binds  []Bind

	// ServicePort is the port the service listens on inside the container.
	ServicePort int
	// HostPort binds ServicePort to a fixed host port. Zero asks the engine
	// for a dynamically assigned one.
	HostPort int

	// Network, when set, attaches the container to that network under
	// NetworkAliases instead of publishing ServicePort.
	Network        string
	NetworkAliases []string

	// StartupTimeout bounds Start. Zero means the engine default.
	StartupTimeout time.Duration

	// Progress receives pull and startup output. May be nil.
	Progress io.Writer
}
