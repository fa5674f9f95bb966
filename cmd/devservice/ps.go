package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quarkiverse/code-server-devservice/internal/adapters/docker"
	"github.com/quarkiverse/code-server-devservice/internal/core/domain"
	"github.com/quarkiverse/code-server-devservice/internal/core/service"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List code-server containers that other processes can share",
	Long: `Lists running containers carrying the code-server discovery label, with the
service name each one was started for.`,
	Args: cobra.NoArgs,
	RunE: runPs,
}

func runPs(cmd *cobra.Command, args []string) error {
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

	if err := engine.Ping(cmd.Context()); err != nil {
		return err
	}
	containers, err := engine.ListContainers(cmd.Context(), service.DevServiceLabel, "")
	if err != nil {
		return err
	}
	return writeContainers(cmd.OutOrStdout(), containers)
}

func writeContainers(out io.Writer, containers []domain.Container) error {
	if len(containers) == 0 {
		_, err := fmt.Fprintln(out, "No code-server dev service containers found")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONTAINER ID\tSERVICE\tNAME\tIMAGE\tSTATUS")
	for _, c := range containers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Labels[service.DevServiceLabel], c.Name, c.Image, c.Status)
	}
	return w.Flush()
}
