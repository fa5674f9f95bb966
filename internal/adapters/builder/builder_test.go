package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	src := t.TempDir()
	repo, err := git.PlainInit(src, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(src, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("Dockerfile")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com"},
	})
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, clone(context.Background(), src, dst, 0, nil))

	data, err := os.ReadFile(filepath.Join(dst, "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, "FROM scratch\n", string(data))
}

func TestCloneMissingRepository(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "checkout")
	err := clone(context.Background(), filepath.Join(t.TempDir(), "missing"), dst, 0, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clone")
}

func TestBuildImageCloneFailure(t *testing.T) {
	a, err := NewBuilderAdapter()
	require.NoError(t, err)
	defer a.Close()

	_, err = a.BuildImage(context.Background(), filepath.Join(t.TempDir(), "missing"), "ide:dev", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clone")
}
