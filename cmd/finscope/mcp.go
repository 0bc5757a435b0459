package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the market data tools over the Model Context Protocol",
	Long: `Serve every data operation and the analysis workflow as MCP tools.
Uses stdio unless --http is given or mcp.transport is "http".`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, cfg, log, err := newApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	server, err := a.MCPServer(Version)
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := mcpHTTPAddr
	if addr == "" && cfg.MCP.Transport == "http" {
		addr = cfg.MCP.Addr
	}
	if addr != "" {
		log.Info("starting mcp server", zap.String("transport", "http"), zap.String("addr", addr))
		return server.ServeHTTP(ctx, addr)
	}
	return server.ServeStdioProcess(ctx)
}

