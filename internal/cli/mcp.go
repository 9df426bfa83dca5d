package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ksyq12/hostcheck/internal/logger"
	hostmcp "github.com/ksyq12/hostcheck/internal/mcp"
	"github.com/ksyq12/hostcheck/internal/runner"
	"github.com/spf13/cobra"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve hostcheck tools over the Model Context Protocol",
	Long: `Start an MCP server exposing suite listing and case execution as tools.

The server speaks stdio by default; --http serves the streamable HTTP
transport instead. Relative suite paths are resolved against the
current directory.

Examples:
  hostcheck mcp
  hostcheck mcp --http 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve streamable HTTP on this address instead of stdio")

	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpHTTPAddr != "" {
		return serveHTTP(ctx, server, mcpHTTPAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func newMCPServer() (*mcpsdk.Server, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	launcher, err := deps.LauncherFactory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create launcher: %w", err)
	}
	workdir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	return hostmcp.NewServer(cfg, runner.New(launcher, cfg), workdir, version), nil
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	logger.Info("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
