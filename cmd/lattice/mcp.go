package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes the blocks that need no context variables as MCP tools, plus describe_block and run_chain.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			// Stdout carries JSON-RPC, so logs always go to stderr.
			logger := logging.NewTo(os.Stderr, cfg.Level(), cfg.Log.Format)
			log.SetOutput(os.Stderr)

			rt, err := lattice.New(lattice.WithConfig(cfg), lattice.WithLogger(logger))
			if err != nil {
				return err
			}
			defer rt.Close()

			srv := mcp.NewServer(rt.Registry(), lattice.Version,
				mcp.WithHooks(rt.Hooks()),
				mcp.WithLogger(logger),
				mcp.WithTimeout(cfg.HTTP.Timeout),
			)

			switch transport {
			case "stdio":
				logger.Info("starting MCP server (stdio)", "tools", len(srv.Tools()))
				return srv.ServeStdio()
			case "sse":
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				if err := srv.ServeSSE(ctx, addr, "http://localhost"+addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				logger.Info("MCP server stopped gracefully")
				return nil
			default:
				return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().StringVar(&addr, "addr", ":8081", "Address to listen on (only for SSE)")
	return cmd
}
