package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jimezsa/careermatch/internal/agent"
	"github.com/jimezsa/careermatch/internal/memory"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

type fakeTool struct {
	got models.SearchRequest
	err error
}

func (f *fakeTool) Run(_ context.Context, req models.SearchRequest) (models.SearchResult, error) {
	f.got = req
	return models.SearchResult{Query: req.Query, Results: []models.JobRecord{{Title: "Gopher"}}}, f.err
}

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, message string) (agent.Answer, error) {
	return agent.Answer{Text: "echo: " + message}, nil
}

type mapStore map[string]memory.Data

func (m mapStore) Save(_ context.Context, user string, data memory.Data) error {
	m[user] = data
	return nil
}

func (m mapStore) Load(_ context.Context, user string) (memory.Data, error) {
	data, ok := m[user]
	if !ok {
		return nil, memory.ErrNotFound
	}
	return data, nil
}

func newTestServer(tool *fakeTool) http.Handler {
	return New(Options{
		Tool:      tool,
		Responder: echoResponder{},
		Memory:    mapStore{},
		Mode:      "local",
		Logger:    zerolog.Nop(),
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestStatusEndpoint(t *testing.T) {
	rr := do(t, newTestServer(&fakeTool{}), http.MethodGet, "/api/status", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
}

func TestSearchEndpoint(t *testing.T) {
	tool := &fakeTool{}
	h := newTestServer(tool)

	rr := do(t, h, http.MethodPost, "/api/search", `{"query":"nurse","location":"Austin"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if tool.got.Limit != 10 || tool.got.Location != "Austin" {
		t.Fatalf("request = %+v", tool.got)
	}
	var result models.SearchResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil || len(result.Results) != 1 {
		t.Fatalf("body = %s (%v)", rr.Body.String(), err)
	}

	if rr := do(t, h, http.MethodPost, "/api/search", `{"location":"Austin"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing query = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/search", `{`); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/search", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET search = %d", rr.Code)
	}

	failing := newTestServer(&fakeTool{err: errors.New("quota exceeded")})
	rr = do(t, failing, http.MethodPost, "/api/search", `{"query":"go"}`)
	if rr.Code != http.StatusInternalServerError || !strings.Contains(rr.Body.String(), "quota exceeded") {
		t.Fatalf("failure = %d %s", rr.Code, rr.Body.String())
	}
}

func TestAgentEndpoint(t *testing.T) {
	rr := do(t, newTestServer(&fakeTool{}), http.MethodPost, "/api/agent", `{"message":"find jobs"}`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"results":{"text":"echo: find jobs"}`) {
		t.Fatalf("agent = %d %s", rr.Code, rr.Body.String())
	}
}

func TestMemoryEndpoints(t *testing.T) {
	h := newTestServer(&fakeTool{})

	if rr := do(t, h, http.MethodGet, "/api/memory/u1", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing memory = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPut, "/api/memory/u1", `{"major":"CS"}`); rr.Code != http.StatusOK {
		t.Fatalf("put = %d %s", rr.Code, rr.Body.String())
	}
	rr := do(t, h, http.MethodGet, "/api/memory/u1", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"major":"CS"`) {
		t.Fatalf("get = %d %s", rr.Code, rr.Body.String())
	}
}
