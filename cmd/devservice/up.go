package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/quarkiverse/code-server-devservice/internal/adapters/builder"
	"github.com/quarkiverse/code-server-devservice/internal/adapters/docker"
	httpadapter "github.com/quarkiverse/code-server-devservice/internal/adapters/http"
	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/ports"
	"github.com/quarkiverse/code-server-devservice/internal/core/service"
	"github.com/quarkiverse/code-server-devservice/internal/shutdown"
	"github.com/quarkiverse/code-server-devservice/pkg/logging"
)

const (
	subsystem       = "CLI"
	uiShutdownGrace = 5 * time.Second
)

var (
	upCopyURL bool
	upNoUI    bool
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start or reuse the code-server dev service and keep it reconciled",
	Long: `Runs one reconciliation pass, then serves the dev UI until interrupted.

Send SIGHUP (or POST /api/v1/devservice/reconcile) to re-read the
configuration and reconcile again: an unchanged configuration keeps the
running container, a changed one replaces it. On SIGINT or SIGTERM the
container started by this process is stopped and removed.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func init() {
	upCmd.Flags().BoolVar(&upCopyURL, "copy-url", false, "copy the IDE URL to the clipboard once it is running")
	upCmd.Flags().BoolVar(&upNoUI, "no-ui", false, "do not serve the dev UI")
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cmd, cfg); err != nil {
		return err
	}

	engine, err := docker.NewAdapter()
	if err != nil {
		return err
	}
	defer engine.Close()

	var imageBuilder ports.BuilderService
	if b, err := builder.NewBuilderAdapter(); err != nil {
		logging.Warn(subsystem, "Image builds are unavailable: %v", err)
	} else {
		defer b.Close()
		imageBuilder = b
	}

	registry := shutdown.NewRegistry()
	controller := service.NewController(engine, imageBuilder, registry)
	session := service.NewSession(controller, engine, func() (service.Request, error) {
		cfg, err := loadConfig()
		if err != nil {
			return service.Request{}, err
		}
		return service.RequestFromConfig(cfg)
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	reconcile := func() {
		result, err := session.Reconcile(ctx)
		if err != nil {
			logging.Error(subsystem, err, "Reconciliation failed")
			return
		}
		printResult(out, result)
		if upCopyURL && result.Running() {
			copyURL(httpadapter.IDEURL(result))
		}
	}
	reconcile()

	var app *fiber.App
	serveErr := make(chan error, 1)
	if !upNoUI && !cfg.UI.Disabled {
		app = httpadapter.NewApp(session)
		go func() {
			serveErr <- app.Listen(cfg.UI.Listen)
		}()
		fmt.Fprintf(out, "Dev UI listening on http://%s\n", cfg.UI.Listen)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-hup:
			logging.Info(subsystem, "Reloading configuration")
			reconcile()
		case err := <-serveErr:
			runErr = fmt.Errorf("dev UI stopped: %w", err)
			break loop
		}
	}

	if app != nil {
		if err := app.ShutdownWithTimeout(uiShutdownGrace); err != nil {
			logging.Warn(subsystem, "Dev UI shutdown: %v", err)
		}
	}
	registry.Close()
	return runErr
}

// printResult reports the outcome of a pass on the command output.
func printResult(w io.Writer, result *domain.ServiceResult) {
	switch result.Status {
	case domain.StatusRunning:
		owner := "started"
		if !result.Owned {
			owner = "shared"
		}
		fmt.Fprintf(w, "code-server is running (%s, container %s)\n", owner, shortID(result.ContainerID))
		fmt.Fprintf(w, "  %s\n", httpadapter.IDEURL(result))
	case domain.StatusDisabled:
		fmt.Fprintln(w, "code-server dev service is disabled")
	case domain.StatusUnavailable:
		fmt.Fprintln(w, "No container engine available; code-server was not started")
	default:
		fmt.Fprintln(w, "code-server is not running")
	}
}

func copyURL(url string) {
	if err := clipboard.WriteAll(url); err != nil {
		logging.Warn(subsystem, "Could not copy the IDE URL: %v", err)
		return
	}
	logging.Info(subsystem, "Copied %s to the clipboard", url)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
