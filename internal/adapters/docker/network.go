package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
)

// ensureNetwork creates the bridge network name unless it already exists.
func ensureNetwork(ctx context.Context, cli *client.Client, name string) error {
	networks, err := cli.NetworkList(ctx, types.NetworkListOptions{
		Filters: filters.NewArgs(filters.Arg("name", name)),
	})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}
	// The name filter matches substrings.
	for _, n := range networks {
		if n.Name == name {
			return nil
		}
	}

	_, err = cli.NetworkCreate(ctx, name, types.NetworkCreate{
		Driver: "bridge",
		Labels: map[string]string{ManagedLabel: "true"},
	})
	if err != nil && !errdefs.IsConflict(err) {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}
	return nil
}
