package ports

import (
	"context"
	"io"
)

// BuilderService defines operations for building container images from source code.
type BuilderService interface {
	// BuildImage clones a repository and builds a Docker image from it.
	// Build output goes to progress when it is not nil.
	// It returns the tag of the built image or an error.
	BuildImage(ctx context.Context, repoURL string, imageName string, progress io.Writer) (string, error)
}
