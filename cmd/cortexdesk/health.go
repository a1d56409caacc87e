package main

import (
	"fmt"
	"strings"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	state := e.healthMonitor().Check(cmd.Context())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend:  %s (%s dialect)\n", e.caps.BaseURL, e.caps.Dialect)
	fmt.Fprintf(out, "Probed:   %s\n", strings.Join(e.caps.HealthPaths, ", "))
	fmt.Fprintf(out, "Status:   %s\n", state)

	if state != models.ConnectivityUp {
		return fmt.Errorf("backend unreachable")
	}
	return nil
}
