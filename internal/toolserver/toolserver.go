// Package toolserver exposes job search and user memory as MCP tools so
// desktop agents can call them over stdio.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jimezsa/careermatch/internal/agent"
	"github.com/jimezsa/careermatch/internal/jobsearch"
	"github.com/jimezsa/careermatch/internal/memory"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/yosuke-furukawa/json5"
)

const (
	ServerName = "careermatch"

	ToolSearchJobs = "search_jobs"
	ToolLoadMemory = "load_memory"
	ToolSaveMemory = "save_memory"
)

type Options struct {
	Tool    agent.SearchTool
	Memory  memory.Store
	Version string
	Logger  zerolog.Logger
}

// Tools holds the handlers. Memory tools are registered only when a store
// is configured.
type Tools struct {
	tool   agent.SearchTool
	memory memory.Store
	logger zerolog.Logger
}

func NewTools(opts Options) *Tools {
	return &Tools{tool: opts.Tool, memory: opts.Memory, logger: opts.Logger}
}

func New(opts Options) *server.MCPServer {
	srv := server.NewMCPServer(ServerName, opts.Version, server.WithToolCapabilities(false))
	NewTools(opts).Register(srv)
	return srv
}

func (t *Tools) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(ToolSearchJobs,
		mcp.WithDescription("Search Google Jobs listings and return a compact JSON summary."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Job title or keywords, e.g. data analyst")),
		mcp.WithString("location", mcp.Description("City, region or Remote")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of jobs (1-10, default 10)")),
		mcp.WithString("next_page_token", mcp.Description("Token from a previous result to fetch the next page")),
	), t.SearchJobs)

	if t.memory == nil {
		return
	}
	srv.AddTool(mcp.NewTool(ToolLoadMemory,
		mcp.WithDescription("Load the JSON memory stored for a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
	), t.LoadMemory)
	srv.AddTool(mcp.NewTool(ToolSaveMemory,
		mcp.WithDescription("Replace the JSON memory stored for a user."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("User identifier")),
		mcp.WithString("data", mcp.Required(), mcp.Description("JSON object to store")),
	), t.SaveMemory)
}

func (t *Tools) SearchJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	query := stringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	search := models.SearchRequest{
		Query:         query,
		Location:      stringArg(args, "location"),
		NextPageToken: stringArg(args, "next_page_token"),
	}
	if limit, ok := args["limit"].(float64); ok {
		search.Limit = int(limit)
	}

	result, err := t.tool.Run(ctx, search)
	if err != nil {
		t.logger.Error().Err(err).Str("query", query).Msg("mcp search failed")
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(jobsearch.Summarize(result))
}

func (t *Tools) LoadMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := stringArg(req.Params.Arguments, "user_id")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	data, err := t.memory.Load(ctx, userID)
	if errors.Is(err, memory.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("No memory stored for %s.", userID)), nil
	}
	if err != nil {
		t.logger.Error().Err(err).Str("user_id", userID).Msg("mcp memory load failed")
		return mcp.NewToolResultError(fmt.Sprintf("load memory: %v", err)), nil
	}
	return jsonResult(data)
}

func (t *Tools) SaveMemory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	userID := stringArg(args, "user_id")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	var data memory.Data
	switch raw := args["data"].(type) {
	case map[string]any:
		data = raw
	case string:
		if err := json5.Unmarshal([]byte(raw), &data); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("data must be a JSON object: %v", err)), nil
		}
	}
	if data == nil {
		return mcp.NewToolResultError("data must be a JSON object"), nil
	}

	if err := t.memory.Save(ctx, userID, data); err != nil {
		t.logger.Error().Err(err).Str("user_id", userID).Msg("mcp memory save failed")
		return mcp.NewToolResultError(fmt.Sprintf("save memory: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved memory for %s (%d keys).", userID, len(data))), nil
}

// ServeStdio answers MCP requests on in and out until ctx is done or in
// closes.
func ServeStdio(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(srv).Listen(ctx, in, out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	value, _ := args[key].(string)
	return strings.TrimSpace(value)
}
