// Package service holds the code-server dev service core: deciding whether a
// container can be reused, finding shared ones, launching new ones and
// tracking the single running instance of the process.
package service

import (
	"maps"

	"github.com/quarkiverse/code-server-devservice/internal/config"
	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
)

const (
	// Feature tags every handle and result produced here.
	Feature = "code-server"
	// ServicePort is the port code-server listens on inside the container.
	ServicePort = 8443
	// URLConfigKey is the key of the connection URL in results.
	URLConfigKey = "quarkus.code-server.devservices.url"
	// DevServiceLabel lets other processes discover a shared container.
	DevServiceLabel = "quarkus-dev-service-code-server-registry"
	// ProjectFolder is where the workspace is mounted and what the IDE opens.
	ProjectFolder = "/home/coder/project"
	// SharedNetwork is joined when the shared network mode is requested.
	SharedNetwork = "quarkus-devservices"

	hostAliasPrefix = "code-server"
)

// BuildSnapshot resolves raw options into a comparable snapshot. Unset
// enabled means true; unset port means 0 (dynamic).
func BuildSnapshot(cfg config.DevServices, workspaceDir string) domain.Snapshot {
	return domain.Snapshot{
		Enabled:      cfg.IsEnabled(),
		ImageName:    cfg.ImageName,
		FixedPort:    cfg.FixedPort(),
		Shared:       cfg.IsShared(),
		ServiceName:  cfg.ServiceName,
		ContainerEnv: maps.Clone(cfg.ContainerEnv),
		WorkspaceDir: workspaceDir,
		ImageRepo:    cfg.ImageRepo,
	}
}

func urlConfig(baseURL string) map[string]string {
	return map[string]string{
		URLConfigKey: baseURL + "?folder=" + ProjectFolder,
	}
}
