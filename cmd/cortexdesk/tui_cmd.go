package main

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

var startMock bool

func init() {
	tuiCmd.Flags().BoolVar(&startMock, "start-mock", false, "Start a local mock backend if the configured one is unreachable")
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	monitor := e.healthMonitor()
	if startMock && monitor.Check(cmd.Context()) != models.ConnectivityUp {
		fmt.Println("⚡ Backend not reachable. Starting local mock backend...")
		if err := startMockBackend(e.caps.BaseURL, func() bool {
			return monitor.Check(cmd.Context()) == models.ConnectivityUp
		}); err != nil {
			return fmt.Errorf("failed to start mock backend: %w", err)
		}
	}

	app := tui.New(tui.Deps{
		Tasks:         e.taskStore(),
		Confirmations: e.poller(),
		Health:        monitor,
		Ingest:        e.coordinator(),
		Research:      e.client,
		Credential:    e.credential(),
		Username:      e.session.Username(),
	})
	if err := app.Run(cmd.Context()); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// startMockBackend launches "cortexdesk mock-backend" detached on the host
// of baseURL and waits until ready reports true.
func startMockBackend(baseURL string, ready func() bool) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}

	c := exec.Command(exe, "mock-backend", "--listen", net.JoinHostPort(host, port))
	configureDetached(c)
	c.Stdin = nil
	c.Stdout = nil
	c.Stderr = nil
	if err := c.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for backend...")
	for i := 0; i < 20; i++ {
		if ready() {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("mock backend started but not reachable at %s", baseURL)
}
