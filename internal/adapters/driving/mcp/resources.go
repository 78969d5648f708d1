package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for game resources.
	uriScheme = "cyoa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "games",
		Name:        "games",
		Description: "Every game in the store, ordered by title",
		MIMEType:    "application/json",
	}, s.handleGamesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Game store statistics",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "games/{gameId}/similar",
		Name:        "similar-games",
		Description: "Games most similar to a specific game",
		MIMEType:    "application/json",
	}, s.handleSimilarResource)
}

// handleGamesResource returns the game listing.
func (s *Server) handleGamesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Status == nil {
		return jsonResource(req.Params.URI, []struct{}{})
	}

	games, err := s.ports.Status.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return jsonResource(req.Params.URI, games)
}

// handleStatsResource returns store statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Status == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Status.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

// handleSimilarResource returns the neighbours of one game.
func (s *Server) handleSimilarResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	gameID := extractGameID(req.Params.URI)
	if gameID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	results, err := s.ports.Search.Similar(ctx, gameID, defaultToolLimit)
	if err != nil {
		return nil, fmt.Errorf("finding similar games: %w", err)
	}
	return jsonResource(req.Params.URI, results)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractGameID extracts the game ID from a URI like cyoa://games/{gameId}/similar.
func extractGameID(uri string) string {
	const prefix = uriScheme + "games/"
	const suffix = "/similar"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
