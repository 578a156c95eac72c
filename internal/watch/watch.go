// Package watch reruns saved searches on a cron schedule and reports the
// listings that no earlier pass reported.
package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jimezsa/careermatch/internal/models"
	"github.com/jimezsa/careermatch/internal/seen"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const DefaultSchedule = "@every 1h"

type Searcher interface {
	Run(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
}

// Plan is the set of searches every pass runs.
type Plan struct {
	Queries  []string
	Location string
	Limit    int
}

type Report struct {
	At       time.Time
	Searched int
	Failed   []string
	Jobs     []models.JobRecord
}

// Watcher runs a Plan against a Searcher and records what it reported in
// History. Notify sees each pass's new jobs before they are recorded, so a
// failed notification leaves them unseen for the next pass.
type Watcher struct {
	Tool    Searcher
	History *seen.History
	Plan    Plan
	Notify  func(Report) error
	Logger  zerolog.Logger

	now func() time.Time
}

// ParseSchedule accepts five-field cron expressions and descriptors such
// as "@hourly" or "@every 30m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// RunOnce runs every planned search, reports the unseen jobs and records
// them. It fails only when no search succeeded.
func (w *Watcher) RunOnce(ctx context.Context) (Report, error) {
	if w.History == nil {
		return Report{}, errors.New("watch: history is required")
	}
	report := Report{At: w.clock()}

	var found []models.JobRecord
	for _, query := range w.Plan.Queries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := w.Tool.Run(ctx, models.SearchRequest{
			Query:    query,
			Location: w.Plan.Location,
			Limit:    w.Plan.Limit,
		})
		if err != nil {
			w.Logger.Warn().Err(err).Str("query", query).Msg("watch search failed")
			report.Failed = append(report.Failed, query)
			continue
		}
		report.Searched++
		found = seen.Dedupe(found, result.Results)
	}
	if report.Searched == 0 && len(report.Failed) > 0 {
		return report, fmt.Errorf("all %d searches failed", len(report.Failed))
	}

	report.Jobs = w.History.Unseen(found)
	if w.Notify != nil {
		if err := w.Notify(report); err != nil {
			return report, fmt.Errorf("notify: %w", err)
		}
	}
	if w.History.Add(report.Jobs) > 0 {
		if err := w.History.Save(); err != nil {
			return report, fmt.Errorf("save history: %w", err)
		}
	}
	return report, nil
}

// Run schedules RunOnce until ctx is done. A pass still running when the
// next one is due makes the scheduler skip that tick.
func (w *Watcher) Run(ctx context.Context, spec string) error {
	if _, err := ParseSchedule(spec); err != nil {
		return err
	}
	if strings.TrimSpace(spec) == "" {
		spec = DefaultSchedule
	}

	logger := cronLogger{logger: w.Logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule watch: %w", err)
	}

	c.Start()
	w.Logger.Info().Str("schedule", spec).Int("queries", len(w.Plan.Queries)).Msg("watch started")
	<-ctx.Done()
	<-c.Stop().Done()
	w.Logger.Info().Msg("watch stopped")
	return nil
}

func (w *Watcher) tick(ctx context.Context) {
	report, err := w.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.Logger.Error().Err(err).Msg("watch pass failed")
		}
		return
	}
	w.Logger.Info().
		Int("searched", report.Searched).
		Int("failed", len(report.Failed)).
		Int("new", len(report.Jobs)).
		Msg("watch pass done")
}

func (w *Watcher) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

// cronLogger routes scheduler messages to zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
