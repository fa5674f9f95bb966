package config

import "time"

// Config is the top-level configuration of the dev service runner.
type Config struct {
	DevServices   DevServices `yaml:"devservices"`
	LaunchMode    string      `yaml:"launchMode,omitempty"`    // development, test or normal
	SharedNetwork *bool       `yaml:"sharedNetwork,omitempty"` // join the shared dev services network
	WorkspaceDir  string      `yaml:"workspaceDir,omitempty"`  // mounted at /home/coder/project; default: cwd
	UI            UIConfig    `yaml:"ui"`
	Log           LogConfig   `yaml:"log"`
}

// DevServices holds the code-server dev service options. Pointer fields are
// nil when unset so that layered files only override what they name.
type DevServices struct {
	// Enabled defaults to true when unset.
	Enabled *bool `yaml:"enabled,omitempty"`
	// Port is a fixed host port. Unset or 0 means a random port.
	Port *int `yaml:"port,omitempty"`
	// ImageName is the code-server image to use.
	ImageName string `yaml:"imageName,omitempty"`
	// Shared enables label-based discovery of an already running container.
	// Only used in development mode.
	Shared *bool `yaml:"shared,omitempty"`
	// ServiceName is the value of the discovery label.
	ServiceName string `yaml:"serviceName,omitempty"`
	// ContainerEnv is passed to the container, on top of the defaults.
	ContainerEnv map[string]string `yaml:"containerEnv,omitempty"`
	// ImageRepo is an optional git repository to build ImageName from.
	ImageRepo string `yaml:"imageRepo,omitempty"`
	// Timeout bounds container startup. Zero keeps the engine default.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// IsEnabled resolves the unset state to true.
func (d DevServices) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// FixedPort resolves the unset state to 0.
func (d DevServices) FixedPort() int {
	if d.Port == nil {
		return 0
	}
	return *d.Port
}

func (d DevServices) IsShared() bool {
	return d.Shared != nil && *d.Shared
}

// UIConfig configures the dev UI HTTP server.
type UIConfig struct {
	Listen   string `yaml:"listen,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// UseSharedNetwork resolves the unset state to false.
func (c Config) UseSharedNetwork() bool {
	return c.SharedNetwork != nil && *c.SharedNetwork
}
