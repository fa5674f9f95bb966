package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarkiverse/code-server-devservice/internal/config"
	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/service"
)

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "devservice", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	for _, name := range []string{"config", "log-level", "launch-mode", "workspace"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s", name)
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{Use: "test", Version: "1.0.0"}
	testCmd.SetVersionTemplate(`{{printf "devservice version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())

	assert.Equal(t, "devservice version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		found[cmd.Name()] = true
	}
	assert.True(t, found["up"])
	assert.True(t, found["ps"])

	assert.NotNil(t, upCmd.Flags().Lookup("copy-url"))
	assert.NotNil(t, upCmd.Flags().Lookup("no-ui"))
}

func TestApplyFlags(t *testing.T) {
	t.Cleanup(func() {
		logLevel, launchMode, workspaceDir = "", "", ""
	})

	base := config.GetDefaultConfig()
	base.WorkspaceDir = "/from/file"

	got := applyFlags(base)
	assert.Equal(t, base, got, "no flags leave the configuration alone")

	logLevel = "debug"
	launchMode = "test"
	workspaceDir = "project"
	got = applyFlags(base)

	assert.Equal(t, "debug", got.Log.Level)
	assert.Equal(t, "test", got.LaunchMode)
	assert.True(t, filepath.IsAbs(got.WorkspaceDir))
	assert.Equal(t, "project", filepath.Base(got.WorkspaceDir))

	req, err := service.RequestFromConfig(got)
	require.NoError(t, err)
	assert.Equal(t, domain.LaunchModeTest, req.LaunchMode)
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name   string
		result *domain.ServiceResult
		want   []string
	}{
		{
			name: "started",
			result: &domain.ServiceResult{
				Status:      domain.StatusRunning,
				ContainerID: "0123456789abcdef",
				Owned:       true,
				Config:      map[string]string{service.URLConfigKey: "http://localhost:49153?folder=/home/coder/project"},
			},
			want: []string{"running (started, container 0123456789ab)", "http://localhost:49153?folder=/home/coder/project"},
		},
		{
			name:   "shared",
			result: &domain.ServiceResult{Status: domain.StatusRunning, ContainerID: "abc"},
			want:   []string{"running (shared, container abc)"},
		},
		{name: "disabled", result: &domain.ServiceResult{Status: domain.StatusDisabled}, want: []string{"disabled"}},
		{name: "unavailable", result: &domain.ServiceResult{Status: domain.StatusUnavailable}, want: []string{"No container engine"}},
		{name: "stopped", result: &domain.ServiceResult{Status: domain.StatusStopped}, want: []string{"not running"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printResult(&buf, tt.result)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestWriteContainers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeContainers(&buf, nil))
	assert.Contains(t, buf.String(), "No code-server dev service containers found")

	buf.Reset()
	require.NoError(t, writeContainers(&buf, []domain.Container{{
		ID:     "0123456789ab",
		Name:   "eager_turing",
		Image:  "lscr.io/linuxserver/code-server:latest",
		Status: "Up 2 minutes",
		Labels: map[string]string{service.DevServiceLabel: "code-server"},
	}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "CONTAINER ID"))
	assert.Contains(t, lines[1], "0123456789ab")
	assert.Contains(t, lines[1], "code-server")
	assert.Contains(t, lines[1], "eager_turing")
	assert.Contains(t, lines[1], "Up 2 minutes")
}
