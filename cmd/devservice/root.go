package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quarkiverse/code-server-devservice/internal/config"
	"github.com/quarkiverse/code-server-devservice/pkg/logging"
)

// Persistent flags shared by every subcommand. Empty means "use the
// configuration files".
var (
	configPath   string
	logLevel     string
	launchMode   string
	workspaceDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devservice",
	Short: "Run a code-server IDE next to your project",
	Long: `devservice starts a code-server container with the current project mounted
at /home/coder/project, keeps it in line with the configuration across
restarts of the dev loop, and serves a small dev UI that links to the IDE.

Configuration is read from ~/.config/code-server-devservice/config.yaml and
./.devservice/config.yaml, in that order; flags override both.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "devservice version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "additional config file layered over the user and project files")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&launchMode, "launch-mode", "", "launch mode: development, test or normal")
	flags.StringVar(&workspaceDir, "workspace", "", "directory mounted into the IDE (default: current directory)")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(psCmd)
}

// loadConfig reads the layered configuration and applies flag overrides. It is
// called again on every reconciliation trigger.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, err
	}
	return applyFlags(cfg), nil
}

func applyFlags(cfg config.Config) config.Config {
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if launchMode != "" {
		cfg.LaunchMode = launchMode
	}
	if workspaceDir != "" {
		cfg.WorkspaceDir = workspaceDir
		if abs, err := filepath.Abs(workspaceDir); err == nil {
			cfg.WorkspaceDir = abs
		}
	}
	return cfg
}

// initLogging configures the global logger from cfg.
func initLogging(cmd *cobra.Command, cfg config.Config) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, cmd.ErrOrStderr())
	return nil
}
