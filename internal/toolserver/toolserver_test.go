package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jimezsa/careermatch/internal/memory"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

type fakeTool struct {
	req models.SearchRequest
	err error
}

func (f *fakeTool) Run(_ context.Context, req models.SearchRequest) (models.SearchResult, error) {
	f.req = req
	if f.err != nil {
		return models.SearchResult{}, f.err
	}
	return models.SearchResult{
		Query:    req.Query,
		Location: req.Location,
		Results:  []models.JobRecord{{Title: "Go Dev", Company: "Acme", Link: "https://a"}},
	}, nil
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %#v, want text", result.Content[0])
	}
	return text.Text
}

func newTools(t *testing.T, tool *fakeTool) *Tools {
	t.Helper()
	store, err := memory.NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewTools(Options{Tool: tool, Memory: store, Logger: zerolog.Nop()})
}

func TestSearchJobs(t *testing.T) {
	tool := &fakeTool{}
	tools := newTools(t, tool)

	result, err := tools.SearchJobs(context.Background(), call(map[string]any{
		"query":    " go developer ",
		"location": "Remote",
		"limit":    float64(3),
	}))
	if err != nil {
		t.Fatalf("SearchJobs() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("SearchJobs() returned tool error: %s", resultText(t, result))
	}
	if tool.req.Query != "go developer" || tool.req.Location != "Remote" || tool.req.Limit != 3 {
		t.Fatalf("request = %+v", tool.req)
	}
	var summary struct {
		Count int `json:"count"`
		Jobs  []struct {
			Title string `json:"title"`
		} `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Count != 1 || summary.Jobs[0].Title != "Go Dev" {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSearchJobsErrors(t *testing.T) {
	tools := newTools(t, &fakeTool{err: errors.New("quota exceeded")})

	result, _ := tools.SearchJobs(context.Background(), call(map[string]any{}))
	if !result.IsError || resultText(t, result) != "query is required" {
		t.Fatalf("missing query result = %+v", result)
	}

	result, _ = tools.SearchJobs(context.Background(), call(map[string]any{"query": "nurse"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "quota exceeded") {
		t.Fatalf("failed search result = %+v", result)
	}
}

func TestMemoryTools(t *testing.T) {
	tools := newTools(t, &fakeTool{})
	ctx := context.Background()

	result, _ := tools.LoadMemory(ctx, call(map[string]any{"user_id": "u1"}))
	if result.IsError || resultText(t, result) != "No memory stored for u1." {
		t.Fatalf("empty load = %q", resultText(t, result))
	}

	result, _ = tools.SaveMemory(ctx, call(map[string]any{"user_id": "u1", "data": "{skills: ['go'], goal: 'backend'}"}))
	if result.IsError || resultText(t, result) != "Saved memory for u1 (2 keys)." {
		t.Fatalf("save = %q", resultText(t, result))
	}

	result, _ = tools.LoadMemory(ctx, call(map[string]any{"user_id": "u1"}))
	var data map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &data); err != nil {
		t.Fatalf("decode memory: %v", err)
	}
	if data["goal"] != "backend" {
		t.Fatalf("memory = %v", data)
	}

	result, _ = tools.SaveMemory(ctx, call(map[string]any{"user_id": "u1", "data": map[string]any{"goal": "sre"}}))
	if result.IsError {
		t.Fatalf("save object = %q", resultText(t, result))
	}

	for _, args := range []map[string]any{
		{"data": "{}"},
		{"user_id": "u1", "data": "[1, 2]"},
		{"user_id": "u1"},
	} {
		if result, _ := tools.SaveMemory(ctx, call(args)); !result.IsError {
			t.Fatalf("SaveMemory(%v) succeeded, want tool error", args)
		}
	}
}

func TestNewRegistersTools(t *testing.T) {
	srv := New(Options{Tool: &fakeTool{}, Version: "test", Logger: zerolog.Nop()})
	resp := srv.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, ToolSearchJobs) {
		t.Fatalf("tools/list = %s", out)
	}
	if strings.Contains(out, ToolSaveMemory) {
		t.Fatalf("memory tools registered without a store: %s", out)
	}
}
