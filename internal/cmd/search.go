package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jimezsa/careermatch/internal/export"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/jimezsa/careermatch/internal/seen"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

type SearchCmd struct {
	Query     string `arg:"" optional:"" help:"Search query (comma-separated). Optional when --query-file is provided."`
	Location  string `help:"Job location."`
	Limit     int    `help:"Maximum results per query." env:"CAREERMATCH_DEFAULT_LIMIT"`
	PageToken string `name:"page-token" help:"Continue a previous search (single query only)."`
	Mode      string `help:"Where the search runs: local or lambda." enum:",local,lambda" default:""`
	Format    string `help:"Output format: table, csv, tsv, json, md." enum:",table,csv,tsv,json,md" default:""`
	Links     string `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Output    string `name:"output" short:"o" help:"Write output to a file."`
	Proxies   string `help:"Comma-separated proxy URLs." env:"CAREERMATCH_PROXIES"`
	QueryFile string `help:"Path to a JSON or YAML file with queries (top-level string array or object with job_titles array)."`
	Raw       bool   `help:"Include the provider response in JSON output."`
	Seen      string `help:"Path to a JSON history of jobs already reported."`
	NewOnly   bool   `help:"Output only jobs missing from --seen."`
	SeenAdd   bool   `name:"seen-update" help:"Add the new jobs to --seen after output."`
}

const maxQueries = 10

func (s *SearchCmd) Run(ctx *Context) error {
	if strings.TrimSpace(s.Seen) == "" && (s.NewOnly || s.SeenAdd) {
		return fmt.Errorf("--new-only and --seen-update require --seen")
	}
	queries, err := resolveQueries(s.Query, s.QueryFile)
	if err != nil {
		return err
	}
	if s.PageToken != "" && len(queries) > 1 {
		return fmt.Errorf("--page-token needs a single query")
	}

	runCtx := context.Background()
	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return err
	}
	tool, err := svc.searchTool(toolOptions{Mode: s.Mode, Proxies: s.Proxies, Raw: s.Raw})
	if err != nil {
		return err
	}

	stopIndicator := startSearchIndicator(ctx)
	results := make([]models.SearchResult, 0, len(queries))
	for _, query := range queries {
		result, err := tool.Run(runCtx, models.SearchRequest{
			Query:         query,
			Location:      s.Location,
			Limit:         defaultInt(s.Limit, ctx.Config.DefaultLimit),
			NextPageToken: s.PageToken,
		})
		if err != nil {
			if stopIndicator != nil {
				stopIndicator()
			}
			return fmt.Errorf("search %q: %w", query, err)
		}
		results = append(results, result)
	}
	if stopIndicator != nil {
		stopIndicator()
	}

	format, err := resolveFormat(ctx, s.Format, s.Output)
	if err != nil {
		return err
	}

	writer := ctx.Out
	if s.Output != "" {
		file, err := os.Create(s.Output)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	opts := export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   colorEnabled && isTTY(writer),
		LinkStyle:    export.LinkStyleShort,
	}
	if strings.EqualFold(s.Links, string(export.LinkStyleFull)) {
		opts.LinkStyle = export.LinkStyleFull
	}

	var all []models.JobRecord
	for _, result := range results {
		all = seen.Dedupe(all, result.Results)
	}

	reported := all
	var history *seen.History
	if strings.TrimSpace(s.Seen) != "" {
		history, err = seen.Open(s.Seen)
		if err != nil {
			return err
		}
		reported = history.Unseen(all)
	}

	output := all
	if s.NewOnly {
		output = reported
	}
	if len(results) == 1 {
		result := results[0]
		if s.NewOnly {
			result.Results = output
		}
		err = export.WriteResult(writer, result, format, opts)
	} else {
		err = export.WriteJobs(writer, output, format, opts)
	}
	if err != nil {
		return err
	}

	if history != nil && s.SeenAdd {
		added := history.Add(reported)
		if err := history.Save(); err != nil {
			return fmt.Errorf("update --seen: %w", err)
		}
		ctx.Logger.Debug().Int("added", added).Int("total", history.Len()).Msg("seen history updated")
	}

	printSearchSummary(ctx, reported, results)
	return nil
}

func printSearchSummary(ctx *Context, jobs []models.JobRecord, results []models.SearchResult) {
	if ctx == nil || ctx.Err == nil {
		return
	}
	_, _ = fmt.Fprintf(ctx.Err, "%s\n", formatSearchSummary(jobs))
	if len(results) == 1 && results[0].NextPageToken != "" {
		_, _ = fmt.Fprintf(ctx.Err, "next page: --page-token %s\n", results[0].NextPageToken)
	}
}

func formatSearchSummary(jobs []models.JobRecord) string {
	counts := countJobsBySource(jobs)
	if len(counts) == 0 {
		return "summary: jobs=0 by_source=none"
	}

	parts := make([]string, 0, len(counts))
	for _, count := range counts {
		parts = append(parts, fmt.Sprintf("%s:%d", count.source, count.total))
	}
	return fmt.Sprintf("summary: jobs=%d by_source=%s", len(jobs), strings.Join(parts, ", "))
}

type sourceCount struct {
	source string
	total  int
}

func countJobsBySource(jobs []models.JobRecord) []sourceCount {
	totals := make(map[string]int, len(jobs))
	for _, job := range jobs {
		source := strings.TrimSpace(job.Source)
		if source == "" {
			source = "unknown"
		}
		totals[source]++
	}

	counts := make([]sourceCount, 0, len(totals))
	for source, total := range totals {
		counts = append(counts, sourceCount{source: source, total: total})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return strings.ToLower(counts[i].source) < strings.ToLower(counts[j].source)
	})
	return counts
}

func resolveQueries(raw string, queryFile string) ([]string, error) {
	positional := splitQueries(raw)
	var fromFile []string
	if strings.TrimSpace(queryFile) != "" {
		var err error
		fromFile, err = loadQueryFile(queryFile)
		if err != nil {
			return nil, err
		}
	}
	return mergeAndNormalizeQueries(positional, fromFile)
}

func splitQueries(raw string) []string {
	parts := strings.Split(raw, ",")
	queries := make([]string, 0, len(parts))
	for _, part := range parts {
		if query := strings.TrimSpace(part); query != "" {
			queries = append(queries, query)
		}
	}
	return queries
}

func mergeAndNormalizeQueries(primary []string, secondary []string) ([]string, error) {
	queries := make([]string, 0, len(primary)+len(secondary))
	known := make(map[string]struct{}, len(primary)+len(secondary))

	for _, raw := range append(append([]string{}, primary...), secondary...) {
		query := strings.TrimSpace(raw)
		if query == "" {
			continue
		}
		key := strings.ToLower(query)
		if _, exists := known[key]; exists {
			continue
		}
		known[key] = struct{}{}
		queries = append(queries, query)
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one non-empty query is required")
	}
	if len(queries) > maxQueries {
		return nil, fmt.Errorf("too many queries: max %d", maxQueries)
	}
	return queries, nil
}

// loadQueryFile reads YAML when the extension says so and JSON otherwise.
func loadQueryFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read --query-file %q: %w", path, err)
	}

	var decoded any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &decoded)
	default:
		err = json.Unmarshal(data, &decoded)
	}
	if err != nil {
		return nil, fmt.Errorf("parse --query-file %q: %w", path, err)
	}

	switch value := decoded.(type) {
	case []any:
		return parseStringArray(value, path, "root array")
	case map[string]any:
		titles, ok := value["job_titles"].([]any)
		if !ok {
			return nil, fmt.Errorf("invalid --query-file %q: field \"job_titles\" must be an array of strings", path)
		}
		return parseStringArray(titles, path, "job_titles")
	default:
		return nil, fmt.Errorf("invalid --query-file %q: expected top-level string array or object with \"job_titles\" string array", path)
	}
}

func parseStringArray(values []any, path string, field string) ([]string, error) {
	queries := make([]string, 0, len(values))
	for idx, raw := range values {
		query, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("invalid --query-file %q: %s[%d] must be a string", path, field, idx)
		}
		if query = strings.TrimSpace(query); query != "" {
			queries = append(queries, query)
		}
	}
	return queries, nil
}

func resolveFormat(ctx *Context, flag string, outputPath string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if outputPath != "" {
		return export.FormatCSV, nil
	}
	if isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startSearchIndicator(ctx *Context) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()

		for index := 0; ; index++ {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				fmt.Fprintf(ctx.Err, "\r\033[2KSearching... %ds %s", seconds, frames[index%len(frames)])
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
