package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyoasearch/cyoasearch/internal/adapters/driving/mcp"
	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose game search to AI assistants",
	Long:  `Run cyoasearch as a Model Context Protocol (MCP) server.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search games.

Tools:
  search_games   semantic search by synopsis and body text
  similar_games  games closest to a given game

Resources:
  cyoa://games                  every game, ordered by title
  cyoa://stats                  store statistics
  cyoa://games/{gameId}/similar neighbours of one game

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  cyoasearch mcp serve
  cyoasearch mcp serve --port 8080`,
	RunE: runMCPServe,
}

var mcpPort int

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve streamable HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidInput, mcpPort)
	}
	if err := loadServices(); err != nil {
		return err
	}
	// Stdout carries the protocol in stdio mode, so problems go to the log.
	if err := loadSnapshot(cmd.Context()); err != nil {
		logger.Warn("mcp: index not loaded, searches will fail until it is built: %v", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Search: searchService, Status: statusService})
	if err != nil {
		return err
	}
	if mcpPort == 0 {
		return server.Run(cmd.Context())
	}

	addr := fmt.Sprintf(":%d", mcpPort)
	cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
