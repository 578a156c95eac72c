// Package server exposes job search, the chat agent and user memory over a
// small local JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jimezsa/careermatch/internal/agent"
	"github.com/jimezsa/careermatch/internal/jobsearch"
	"github.com/jimezsa/careermatch/internal/memory"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type Server struct {
	tool      agent.SearchTool
	responder agent.Responder
	memory    memory.Store
	mode      string
	logger    zerolog.Logger
	startedAt time.Time
}

type Options struct {
	Tool      agent.SearchTool
	Responder agent.Responder
	Memory    memory.Store
	Mode      string
	Logger    zerolog.Logger
}

func New(opts Options) *Server {
	return &Server{
		tool:      opts.Tool,
		responder: opts.Responder,
		memory:    opts.Memory,
		mode:      opts.Mode,
		logger:    opts.Logger,
		startedAt: time.Now().UTC(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/agent", s.handleAgent)
	mux.HandleFunc("GET /api/memory/{user}", s.handleMemoryGet)
	mux.HandleFunc("PUT /api/memory/{user}", s.handleMemoryPut)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", addr).Msg("api listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"mode":       s.mode,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

type searchRequest struct {
	Query         string `json:"query"`
	Location      string `json:"location"`
	Limit         *int   `json:"limit"`
	NextPageToken string `json:"next_page_token"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "query required"})
		return
	}
	limit := jobsearch.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	result, err := s.tool.Run(r.Context(), models.SearchRequest{
		Query:         req.Query,
		Location:      req.Location,
		Limit:         limit,
		NextPageToken: req.NextPageToken,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("query", req.Query).Msg("search failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type agentRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "message required"})
		return
	}
	answer, err := s.responder.Respond(r.Context(), req.Message)
	if err != nil {
		s.logger.Error().Err(err).Msg("agent failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": answer})
}

func (s *Server) handleMemoryGet(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	data, err := s.memory.Load(r.Context(), user)
	switch {
	case errors.Is(err, memory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "memory not found"})
	case err != nil:
		s.logger.Error().Err(err).Str("user", user).Msg("memory load failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
	default:
		writeJSON(w, http.StatusOK, data)
	}
}

func (s *Server) handleMemoryPut(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	var data memory.Data
	if !decodeBody(w, r, &data) {
		return
	}
	if err := s.memory.Save(r.Context(), user, data); err != nil {
		s.logger.Error().Err(err).Str("user", user).Msg("memory save failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
