package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// defaultToolLimit caps tool results; assistants rarely need the full page.
const defaultToolLimit = 10

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"what the game should be about, in plain words"`
	Mode      string   `json:"mode,omitempty" jsonschema:"mixed (default), summary or text"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum chunk similarity between 0 and 1 (default 0.40)"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum number of games to return (default 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results  []domain.SearchResult `json:"results"`
	ModeUsed string                `json:"mode_used"`
	Count    int                   `json:"count"`
}

// SimilarInput is the input schema for the similar tool.
type SimilarInput struct {
	GameID string `json:"game_id" jsonschema:"id of the game to find neighbours for"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of games to return (default 10)"`
}

// SimilarOutput is the output schema for the similar tool.
type SimilarOutput struct {
	Results []domain.SimilarResult `json:"results"`
	Count   int                    `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_games",
		Description: "Semantic search over CYOA games by synopsis and body text",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "similar_games",
		Description: "Find games similar to a given game id",
	}, s.handleSimilar)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}

	mode := domain.SearchMode(input.Mode)
	if mode == "" {
		mode = domain.SearchModeMixed
	}
	if !mode.IsValid() {
		return nil, SearchOutput{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, input.Mode)
	}

	opts := domain.SearchOptions{Mode: mode, Threshold: input.Threshold, Limit: limit}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	return nil, SearchOutput{
		Results:  results,
		ModeUsed: mode.String(),
		Count:    len(results),
	}, nil
}

// handleSimilar handles the similar tool invocation.
func (s *Server) handleSimilar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SimilarInput,
) (*mcp.CallToolResult, SimilarOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultToolLimit
	}

	results, err := s.ports.Search.Similar(ctx, input.GameID, limit)
	if err != nil {
		return nil, SimilarOutput{}, err
	}
	if results == nil {
		results = []domain.SimilarResult{}
	}
	return nil, SimilarOutput{Results: results, Count: len(results)}, nil
}
