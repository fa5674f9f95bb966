package builder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/go-git/go-git/v5"

	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
	"github.com/quarkiverse/code-server-devservice/pkg/logging"
)

const subsystem = "ImageBuilder"

// Adapter builds IDE images from git repositories carrying a Dockerfile.
type Adapter struct {
	cli *client.Client
}

var _ ports.BuilderService = (*Adapter)(nil)

func NewBuilderAdapter() (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli}, nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.cli.Close()
}

// BuildImage clones repoURL and builds imageName from its Dockerfile.
func (a *Adapter) BuildImage(ctx context.Context, repoURL string, imageName string, progress io.Writer) (string, error) {
	if progress == nil {
		progress = io.Discard
	}

	tmpDir, err := os.MkdirTemp("", "code-server-build-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	logging.Info(subsystem, "Cloning %s", repoURL)
	if err := clone(ctx, repoURL, tmpDir, 1, progress); err != nil {
		return "", err
	}

	tar, err := archive.TarWithOptions(tmpDir, &archive.TarOptions{
		ExcludePatterns: []string{".git"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create build context: %w", err)
	}
	defer tar.Close()

	logging.Info(subsystem, "Building image %s", imageName)
	resp, err := a.cli.ImageBuild(ctx, tar, types.ImageBuildOptions{
		Tags:       []string{imageName},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	// Build failures arrive in the stream, not as an API error.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, progress, 0, false, nil); err != nil {
		return "", fmt.Errorf("failed to build image %s: %w", imageName, err)
	}

	return imageName, nil
}

// clone checks repoURL out into dir. depth 0 fetches the full history.
func clone(ctx context.Context, repoURL, dir string, depth int, progress io.Writer) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      repoURL,
		Progress: progress,
		Depth:    depth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", repoURL, err)
	}
	return nil
}
