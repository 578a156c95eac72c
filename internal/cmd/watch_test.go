package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jimezsa/careermatch/internal/export"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/jimezsa/careermatch/internal/ui"
	"github.com/jimezsa/careermatch/internal/watch"
)

func TestWriteWatchReport(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	newCtx := func() (*Context, *bytes.Buffer, *bytes.Buffer) {
		var out, errOut bytes.Buffer
		return &Context{
			Out: &out,
			Err: &errOut,
			UI:  ui.New(&out, &errOut, ui.ColorNever, true),
		}, &out, &errOut
	}

	ctx, out, errOut := newCtx()
	report := watch.Report{
		At:       at,
		Searched: 1,
		Failed:   []string{"rust"},
		Jobs:     []models.JobRecord{{Title: "Go Dev", Company: "Acme", Link: "https://a"}},
	}
	if err := writeWatchReport(ctx, report, export.FormatCSV); err != nil {
		t.Fatalf("writeWatchReport() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "title,company") || !strings.Contains(out.String(), "Go Dev,Acme") {
		t.Fatalf("stdout = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "1 searches failed: rust") || !strings.Contains(errOut.String(), "2024-05-01T09:00:00Z watch: new=1 searched=1") {
		t.Fatalf("stderr = %q", errOut.String())
	}

	ctx, out, _ = newCtx()
	if err := writeWatchReport(ctx, watch.Report{At: at, Searched: 1}, export.FormatCSV); err != nil {
		t.Fatalf("writeWatchReport(empty) error = %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("empty csv pass wrote %q", out.String())
	}

	ctx, out, _ = newCtx()
	if err := writeWatchReport(ctx, watch.Report{At: at, Searched: 1}, export.FormatJSON); err != nil {
		t.Fatalf("writeWatchReport(json) error = %v", err)
	}
	var jobs []models.JobRecord
	if err := json.Unmarshal(out.Bytes(), &jobs); err != nil || len(jobs) != 0 {
		t.Fatalf("json output = %q, err %v", out.String(), err)
	}
}
