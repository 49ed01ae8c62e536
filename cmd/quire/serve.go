package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/quire/pkg/adapters/http"
	"github.com/aretw0/quire/pkg/adapters/process"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/aretw0/quire/pkg/observability"
	"github.com/aretw0/quire/pkg/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notebook HTTP server",
	Long:  `Starts the workspace in server mode, exposing documents and kernels over a JSON API with Prometheus metrics on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		kernelsPath, _ := cmd.Flags().GetString("kernels")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		snapshotInterval, _ := cmd.Flags().GetDuration("snapshot-interval")

		logger, err := newLogger(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		registry, err := kernel.LoadRegistry(kernelsPath)
		if err != nil {
			fmt.Printf("Error loading kernel registry: %v\n", err)
			os.Exit(1)
		}

		store, err := newSnapshotStore(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		wsOpts := []workspace.Option{
			workspace.WithLogger(logger),
			workspace.WithSnapshotStore(store),
		}
		if timeout > 0 {
			wsOpts = append(wsOpts, workspace.WithKernelOptions(kernel.WithTimeout(timeout)))
		}
		ws := workspace.New(process.NewTransport(process.WithLogger(logger)), registry, wsOpts...)

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)
		handler := httpAdapter.NewHandler(ws,
			httpAdapter.WithMetrics(metrics, reg),
			httpAdapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Quire Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Periodic snapshot sweep of open documents.
		sweepDone := make(chan struct{})
		if snapshotInterval > 0 {
			ticker := time.NewTicker(snapshotInterval)
			go func() {
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if err := ws.SnapshotAll(context.Background()); err != nil {
							logger.Warn("snapshot sweep failed", "err", err)
						} else {
							metrics.SnapshotsTotal.Inc()
						}
					case <-sweepDone:
						return
					}
				}
			}()
		}

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)
			close(sweepDone)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}

			// Final snapshot sweep before kernels go down.
			if err := ws.SnapshotAll(context.Background()); err != nil {
				logger.Warn("final snapshot sweep failed", "err", err)
			}
			ws.Shutdown(context.Background())
			fmt.Println("Quire Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Duration("timeout", 2*time.Minute, "Per-cell execution timeout (0 disables)")
	serveCmd.Flags().Duration("snapshot-interval", 0, "Interval between snapshot sweeps of open documents (0 disables)")
	addStoreFlags(serveCmd)
}
