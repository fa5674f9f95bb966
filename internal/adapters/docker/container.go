package docker

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-connections/nat"

	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
)

const (
	defaultStartupTimeout = 60 * time.Second
	stopTimeoutSeconds    = 10
	pollInterval          = 500 * time.Millisecond
)

// Container drives one container through create, start, stop and remove.
type Container struct {
	cli  *client.Client
	spec domain.ContainerSpec
	host string
	id   string
}

var _ ports.Container = (*Container)(nil)

func (c *Container) ID() string { return c.id }

// ConfigureNetwork creates the shared network named in the ContainerSpec.
func (c *Container) ConfigureNetwork(ctx context.Context) error {
	if c.spec.Network == "" {
		return nil
	}
	return ensureNetwork(ctx, c.cli, c.spec.Network)
}

// Start pulls the image when it is missing, then creates and starts the
// container and waits for the service port. The startup timeout does not
// cover the pull.
func (c *Container) Start(ctx context.Context) error {
	if err := c.pullIfMissing(ctx); err != nil {
		return err
	}

	timeout := c.spec.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, hostCfg, netCfg, err := createConfig(c.spec)
	if err != nil {
		return err
	}

	resp, err := c.cli.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, "")
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	c.id = resp.ID

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}

	return c.waitUntilReady(ctx)
}

func (c *Container) pullIfMissing(ctx context.Context) error {
	_, _, err := c.cli.ImageInspectWithRaw(ctx, c.spec.Image)
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to inspect image %s: %w", c.spec.Image, err)
	}

	reader, err := c.cli.ImagePull(ctx, c.spec.Image, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	out := c.spec.Progress
	if out == nil {
		out = io.Discard
	}
	// The stream reports pull errors in-band.
	if err := jsonmessage.DisplayJSONMessagesStream(reader, out, 0, false, nil); err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	return nil
}

// waitUntilReady polls until the container runs and, unless it lives on a
// shared network, its published service port accepts TCP connections.
func (c *Container) waitUntilReady(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ready, err := c.ready(ctx)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for container %s: %w", shortID(c.id), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Container) ready(ctx context.Context) (bool, error) {
	info, err := c.cli.ContainerInspect(ctx, c.id)
	if err != nil {
		return false, fmt.Errorf("failed to inspect container: %w", err)
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		return false, nil
	}
	if info.State.Status == "exited" || info.State.Status == "dead" {
		return false, fmt.Errorf("container %s exited with code %d", shortID(c.id), info.State.ExitCode)
	}
	if !info.State.Running {
		return false, nil
	}
	if c.spec.Network != "" {
		return true, nil
	}

	var ports nat.PortMap
	if info.NetworkSettings != nil {
		ports = info.NetworkSettings.Ports
	}
	hostPort, ok := publishedPort(ports, c.spec.ServicePort)
	if !ok {
		return false, nil
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(c.host, strconv.Itoa(hostPort)), time.Second)
	if err != nil {
		return false, nil
	}
	conn.Close()
	return true, nil
}

// Address returns the host and published port of the service port.
func (c *Container) Address(ctx context.Context) (domain.ContainerAddress, error) {
	info, err := c.cli.ContainerInspect(ctx, c.id)
	if err != nil {
		return domain.ContainerAddress{}, fmt.Errorf("failed to inspect container: %w", err)
	}
	var ports nat.PortMap
	if info.NetworkSettings != nil {
		ports = info.NetworkSettings.Ports
	}
	hostPort, ok := publishedPort(ports, c.spec.ServicePort)
	if !ok {
		return domain.ContainerAddress{}, fmt.Errorf("container %s does not publish port %d", shortID(c.id), c.spec.ServicePort)
	}
	return domain.ContainerAddress{ID: c.id, Host: c.host, Port: hostPort}, nil
}

// Stop stops and removes the container. A container that is already gone, or
// whose removal is already in progress, counts as stopped.
func (c *Container) Stop(ctx context.Context) error {
	if c.id == "" {
		return nil
	}
	timeout := stopTimeoutSeconds
	err := c.cli.ContainerStop(ctx, c.id, container.StopOptions{Timeout: &timeout})
	if err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	err = c.cli.ContainerRemove(ctx, c.id, container.RemoveOptions{Force: true, RemoveVolumes: true})
	if err != nil && !errdefs.IsNotFound(err) && !errdefs.IsConflict(err) {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// createConfig translates a spec into the Docker create request.
func createConfig(spec domain.ContainerSpec) (*container.Config, *container.HostConfig, *network.NetworkingConfig, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(spec.ServicePort))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid service port %d: %w", spec.ServicePort, err)
	}

	labels := map[string]string{ManagedLabel: "true"}
	for k, v := range spec.Labels {
		labels[k] = v
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          envList(spec.Env),
		Labels:       labels,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}

	hostCfg := &container.HostConfig{}
	for _, b := range spec.Binds {
		hostCfg.Mounts = append(hostCfg.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   b.Source,
			Target:   b.Target,
			ReadOnly: b.ReadOnly,
		})
	}

	var netCfg *network.NetworkingConfig
	if spec.Network != "" {
		hostCfg.NetworkMode = container.NetworkMode(spec.Network)
		netCfg = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				spec.Network: {Aliases: spec.NetworkAliases},
			},
		}
		return cfg, hostCfg, netCfg, nil
	}

	binding := nat.PortBinding{}
	if spec.HostPort > 0 {
		binding.HostPort = strconv.Itoa(spec.HostPort)
	}
	hostCfg.PortBindings = nat.PortMap{port: []nat.PortBinding{binding}}
	return cfg, hostCfg, netCfg, nil
}

// publishedPort returns the first host port bound to the tcp service port.
func publishedPort(ports nat.PortMap, servicePort int) (int, bool) {
	bindings := ports[nat.Port(strconv.Itoa(servicePort)+"/tcp")]
	for _, b := range bindings {
		if p, err := strconv.Atoi(b.HostPort); err == nil && p > 0 {
			return p, true
		}
	}
	return 0, false
}

// envList renders env as sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
