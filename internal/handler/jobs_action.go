package handler

import (
	"context"
	"math/rand"
	"time"

	"github.com/jimezsa/careermatch/internal/jobsearch"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	jobsActionGroup = "JobSearchActionGroup"
	jobsAPIPath     = "/search"
	jobsHTTPMethod  = "POST"
	jobsReturned    = 5
)

// JobsAction serves the job search action group of the career agent.
type JobsAction struct {
	Tool            SearchTool
	Throttle        *jobsearch.Throttle
	DefaultLocation string
	Logger          zerolog.Logger

	// Jitter is waited before every call; nil means 100-300ms.
	Jitter func() time.Duration
}

type jobsActionResult struct {
	Query         string                 `json:"query"`
	Location      string                 `json:"location"`
	Count         int                    `json:"count"`
	Jobs          []jobsearch.JobSummary `json:"jobs"`
	NextPageToken *string                `json:"next_page_token"`
}

func (h *JobsAction) Handle(ctx context.Context, event ActionEvent) (APIResponse, error) {
	if err := h.wait(ctx); err != nil {
		return h.respond(500, errorBody(err.Error())), nil
	}

	body := event.BodyMap()
	query := firstNonEmpty(event.Query, firstString(body, "query"), event.InputText)
	location := firstNonEmpty(event.Location, firstString(body, "location"), h.DefaultLocation)
	if query == "" {
		h.Logger.Warn().Msg("missing query")
		return h.respond(400, errorBody("Missing query parameter")), nil
	}

	if h.Throttle != nil && h.Throttle.Seen(event.SessionID, query) {
		h.Logger.Warn().Str("session", event.SessionID).Str("query", query).Msg("duplicate invocation ignored")
		return h.respond(429, map[string]string{"warning": "duplicate invocation ignored"}), nil
	}

	start := time.Now()
	result, err := h.Tool.Run(ctx, models.SearchRequest{Query: query, Location: location, Limit: jobsearch.DefaultLimit})
	if err != nil {
		h.Logger.Error().Err(err).Str("query", query).Msg("job search failed")
		return h.respond(500, errorBody(err.Error())), nil
	}

	summary := jobsearch.Summarize(result)
	jobs := summary.Jobs
	if len(jobs) > jobsReturned {
		jobs = jobs[:jobsReturned]
	}
	out := jobsActionResult{
		Query:    query,
		Location: location,
		Count:    len(jobs),
		Jobs:     jobs,
	}
	if result.NextPageToken != "" {
		out.NextPageToken = &result.NextPageToken
	}
	h.Logger.Info().
		Str("query", query).
		Int("jobs", len(jobs)).
		Dur("took", time.Since(start)).
		Msg("returning jobs to agent")
	return h.respond(200, out), nil
}

func (h *JobsAction) respond(status int, body any) APIResponse {
	return apiResponse(jobsActionGroup, jobsAPIPath, jobsHTTPMethod, status, marshal(body))
}

func (h *JobsAction) wait(ctx context.Context) error {
	jitter := h.Jitter
	if jitter == nil {
		jitter = defaultJitter
	}
	timer := time.NewTimer(jitter())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func defaultJitter() time.Duration {
	return 100*time.Millisecond + time.Duration(rand.Int63n(int64(200*time.Millisecond)))
}
