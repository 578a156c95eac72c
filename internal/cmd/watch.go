package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jimezsa/careermatch/internal/export"
	"github.com/jimezsa/careermatch/internal/seen"
	"github.com/jimezsa/careermatch/internal/watch"
)

const defaultSeenFile = "seen.json"

type WatchCmd struct {
	Query     string `arg:"" optional:"" help:"Search query (comma-separated). Optional when --query-file is provided."`
	QueryFile string `help:"Path to a JSON or YAML file with queries."`
	Location  string `help:"Job location."`
	Limit     int    `help:"Maximum results per query." env:"CAREERMATCH_DEFAULT_LIMIT"`
	Mode      string `help:"Where searches run: local or lambda." enum:",local,lambda" default:""`
	Schedule  string `help:"Cron expression or descriptor such as @every 30m." default:"@every 1h" env:"CAREERMATCH_WATCH_SCHEDULE"`
	Seen      string `help:"History file (default: seen.json in the config directory)."`
	Format    string `help:"Output format: table, csv, tsv, json, md." enum:",table,csv,tsv,json,md" default:""`
	Once      bool   `help:"Run a single pass and exit."`
}

func (w *WatchCmd) Run(ctx *Context) error {
	queries, err := resolveQueries(w.Query, w.QueryFile)
	if err != nil {
		return err
	}
	if _, err := watch.ParseSchedule(w.Schedule); err != nil {
		return err
	}
	format, err := resolveFormat(ctx, w.Format, "")
	if err != nil {
		return err
	}

	history, err := seen.Open(firstNonEmpty(w.Seen, filepath.Join(ctx.ConfigDir, defaultSeenFile)))
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return err
	}
	tool, err := svc.searchTool(toolOptions{Mode: w.Mode})
	if err != nil {
		return err
	}

	watcher := &watch.Watcher{
		Tool:    tool,
		History: history,
		Plan: watch.Plan{
			Queries:  queries,
			Location: w.Location,
			Limit:    defaultInt(w.Limit, ctx.Config.DefaultLimit),
		},
		Notify: func(report watch.Report) error { return writeWatchReport(ctx, report, format) },
		Logger: ctx.Logger,
	}

	if _, err := watcher.RunOnce(runCtx); err != nil {
		return err
	}
	if w.Once {
		return nil
	}
	return watcher.Run(runCtx, w.Schedule)
}

func writeWatchReport(ctx *Context, report watch.Report, format export.Format) error {
	if len(report.Failed) > 0 && ctx.UI != nil {
		ctx.UI.Warnf("%d searches failed: %s", len(report.Failed), strings.Join(report.Failed, ", "))
	}
	if ctx.Err != nil {
		_, _ = fmt.Fprintf(ctx.Err, "%s watch: new=%d searched=%d\n", report.At.Format(time.RFC3339), len(report.Jobs), report.Searched)
	}
	if len(report.Jobs) == 0 && format != export.FormatJSON {
		return nil
	}
	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	return export.WriteJobs(ctx.Out, report.Jobs, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   colorEnabled && isTTY(ctx.Out),
		LinkStyle:    export.LinkStyleShort,
	})
}
