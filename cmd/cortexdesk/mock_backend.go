package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/cortexdesk/internal/fakebackend"
	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	seedDemo   bool
)

var mockBackendCmd = &cobra.Command{
	Use:   "mock-backend",
	Short: "Run an in-memory backend for local development",
	Long: `Serves both backend dialects from memory. Point the client at it with
--api http://<listen>/api --auth http://<listen> (modern) or
--dialect legacy --api http://<listen> (legacy).`,
	RunE: runMockBackend,
}

func init() {
	mockBackendCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8000", "Listen address")
	mockBackendCmd.Flags().BoolVar(&seedDemo, "seed", true, "Seed demo tasks and confirmations")
}

func runMockBackend(cmd *cobra.Command, args []string) error {
	log.Printf("Starting mock backend on %s...", listenAddr)

	backend := fakebackend.New()
	if seedDemo {
		seed(backend)
	}

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           logRequests(backend),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("Shutdown complete")
	return nil
}

func seed(b *fakebackend.Backend) {
	b.AddTask("Send the signed contract to Acme", models.TaskStatusDetected)
	b.AddTask("Book the offsite venue", models.TaskStatusDetected)
	b.AddTask("Review Q3 budget draft", models.TaskStatusApproved)
	b.AddConfirmation("Email the venue to confirm the booking", 0.87)
	b.AddConfirmation("Schedule a follow-up with the design team", 0.64)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
