package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	mcpAdapter "github.com/aretw0/quire/pkg/adapters/mcp"
	"github.com/aretw0/quire/pkg/adapters/process"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/aretw0/quire/pkg/workspace"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the workspace as an MCP Server.
This allows AI agents (like Claude Desktop) to open notebooks and run cells as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		kernelsPath, _ := cmd.Flags().GetString("kernels")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		logger, err := newLogger(cmd)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		slog.SetDefault(logger)

		registry, err := kernel.LoadRegistry(kernelsPath)
		if err != nil {
			log.Fatalf("Error loading kernel registry: %v", err)
		}

		wsOpts := []workspace.Option{workspace.WithLogger(logger)}
		if timeout > 0 {
			wsOpts = append(wsOpts, workspace.WithKernelOptions(kernel.WithTimeout(timeout)))
		}
		ws := workspace.New(process.NewTransport(process.WithLogger(logger)), registry, wsOpts...)
		defer ws.Shutdown(context.Background())

		srv := mcpAdapter.NewServer(ws, mcpAdapter.WithLogger(logger))

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			slog.Info("Starting Quire MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP Server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting Quire MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP Server execution failed", "err", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Duration("timeout", 2*time.Minute, "Per-cell execution timeout (0 disables)")
}
