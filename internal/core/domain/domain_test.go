package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		Enabled:      true,
		ImageName:    "img:latest",
		ServiceName:  "code-server",
		ContainerEnv: map[string]string{"A": "1"},
		WorkspaceDir: "/ws",
	}
}

func TestSnapshotEqual(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		equal  bool
	}{
		{name: "identical", mutate: func(*Snapshot) {}, equal: true},
		{name: "enabled", mutate: func(s *Snapshot) { s.Enabled = false }},
		{name: "image", mutate: func(s *Snapshot) { s.ImageName = "img:other" }},
		{name: "port", mutate: func(s *Snapshot) { s.FixedPort = 8080 }},
		{name: "shared", mutate: func(s *Snapshot) { s.Shared = true }},
		{name: "service name", mutate: func(s *Snapshot) { s.ServiceName = "other" }},
		{name: "env value", mutate: func(s *Snapshot) { s.ContainerEnv = map[string]string{"A": "2"} }},
		{name: "env key", mutate: func(s *Snapshot) { s.ContainerEnv = map[string]string{"A": "1", "B": "2"} }},
		{name: "workspace", mutate: func(s *Snapshot) { s.WorkspaceDir = "/other" }},
		{name: "image repo", mutate: func(s *Snapshot) { s.ImageRepo = "https://example.com/ide.git" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := baseSnapshot()
			b := baseSnapshot()
			tt.mutate(&b)

			assert.Equal(t, tt.equal, a.Equal(b))
			assert.Equal(t, tt.equal, b.Equal(a))
			assert.Equal(t, tt.equal, a.Fingerprint() == b.Fingerprint())
		})
	}
}

func TestSnapshotNilAndEmptyEnvAreEqual(t *testing.T) {
	a := baseSnapshot()
	a.ContainerEnv = nil
	b := baseSnapshot()
	b.ContainerEnv = map[string]string{}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestServiceHandleReleaseOnce(t *testing.T) {
	calls := 0
	h := NewServiceHandle("code-server", "abc", func(context.Context) error {
		calls++
		return errors.New("already gone")
	}, map[string]string{"url": "http://localhost:1"})

	err := h.Release(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReleaseFailure)

	err2 := h.Release(context.Background())
	assert.Equal(t, err, err2)
	assert.Equal(t, 1, calls)
	assert.True(t, h.Owned())
}

func TestServiceHandleWithoutReleaseIsNotOwned(t *testing.T) {
	h := NewServiceHandle("code-server", "ext", nil, map[string]string{"url": "http://h:1"})

	assert.False(t, h.Owned())
	assert.NoError(t, h.Release(context.Background()))

	res := h.Result()
	assert.True(t, res.Running())
	assert.False(t, res.Owned)
	assert.Equal(t, "ext", res.ContainerID)

	res.Config["url"] = "changed"
	assert.Equal(t, "http://h:1", h.Config()["url"])
}

func TestStartErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("pull access denied")
	var err error = &StartError{Image: "img:latest", Err: cause}

	assert.ErrorIs(t, err, ErrStartFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "img:latest")
}

func TestParseLaunchMode(t *testing.T) {
	m, err := ParseLaunchMode("")
	require.NoError(t, err)
	assert.True(t, m.IsDevelopment())

	m, err = ParseLaunchMode("test")
	require.NoError(t, err)
	assert.Equal(t, LaunchModeTest, m)

	_, err = ParseLaunchMode("prod")
	assert.Error(t, err)
}

func TestContainerAddressHostPort(t *testing.T) {
	assert.Equal(t, "localhost:49153", ContainerAddress{Host: "localhost", Port: 49153}.HostPort())
	assert.Equal(t, "[::1]:8443", ContainerAddress{Host: "::1", Port: 8443}.HostPort())
}
