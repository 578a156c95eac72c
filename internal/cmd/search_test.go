package cmd

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jimezsa/careermatch/internal/export"
	"github.com/jimezsa/careermatch/internal/models"
)

func TestResolveFormat(t *testing.T) {
	cases := []struct {
		name   string
		ctx    *Context
		flag   string
		output string
		want   export.Format
	}{
		{name: "json flag wins", ctx: &Context{Out: io.Discard, JSONOutput: true}, flag: "md", want: export.FormatJSON},
		{name: "plain flag", ctx: &Context{Out: io.Discard, PlainText: true}, output: "jobs.tsv", want: export.FormatTSV},
		{name: "explicit format", ctx: &Context{Out: io.Discard}, flag: "md", want: export.FormatMarkdown},
		{name: "file defaults to csv", ctx: &Context{Out: io.Discard}, output: "jobs.csv", want: export.FormatCSV},
		{name: "pipe defaults to csv", ctx: &Context{Out: io.Discard}, want: export.FormatCSV},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveFormat(tc.ctx, tc.flag, tc.output)
			if err != nil {
				t.Fatalf("resolveFormat() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("resolveFormat() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveQueries(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    []string
		wantErr string
	}{
		{name: "single query", raw: "software engineer", want: []string{"software engineer"}},
		{name: "multi query with spaces", raw: "software engineer, hardware engineer", want: []string{"software engineer", "hardware engineer"}},
		{name: "empty tokens removed", raw: "software engineer, , Data Scientist", want: []string{"software engineer", "Data Scientist"}},
		{name: "case-insensitive dedupe keeps first", raw: "Backend,backend, BACKEND", want: []string{"Backend"}},
		{name: "too many", raw: "q1,q2,q3,q4,q5,q6,q7,q8,q9,q10,q11", wantErr: "too many queries: max 10"},
		{name: "empty input", raw: " ,  , ", wantErr: "at least one non-empty query is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveQueries(tc.raw, "")
			if tc.wantErr != "" {
				if err == nil || err.Error() != tc.wantErr {
					t.Fatalf("resolveQueries() error = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveQueries() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("resolveQueries() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	return writeNamedQueryFile(t, "queries.json", content)
}

func writeNamedQueryFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadQueryFile(t *testing.T) {
	t.Run("top-level string array", func(t *testing.T) {
		path := writeQueryFile(t, `["software engineer","  Data Scientist  ",""]`)
		got, err := loadQueryFile(path)
		if err != nil {
			t.Fatalf("loadQueryFile() error = %v", err)
		}
		want := []string{"software engineer", "Data Scientist"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("loadQueryFile() = %#v, want %#v", got, want)
		}
	})

	t.Run("object with job_titles", func(t *testing.T) {
		path := writeQueryFile(t, `{"job_titles":["Backend Engineer","SRE"]}`)
		got, err := loadQueryFile(path)
		if err != nil {
			t.Fatalf("loadQueryFile() error = %v", err)
		}
		want := []string{"Backend Engineer", "SRE"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("loadQueryFile() = %#v, want %#v", got, want)
		}
	})

	t.Run("yaml job_titles", func(t *testing.T) {
		path := writeNamedQueryFile(t, "queries.yaml", "job_titles:\n  - Platform Engineer\n  - \"  SRE  \"\n")
		got, err := loadQueryFile(path)
		if err != nil {
			t.Fatalf("loadQueryFile() error = %v", err)
		}
		want := []string{"Platform Engineer", "SRE"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("loadQueryFile() = %#v, want %#v", got, want)
		}
	})

	t.Run("yaml list", func(t *testing.T) {
		path := writeNamedQueryFile(t, "queries.yml", "- data analyst\n- nurse\n")
		got, err := loadQueryFile(path)
		if err != nil || !reflect.DeepEqual(got, []string{"data analyst", "nurse"}) {
			t.Fatalf("loadQueryFile() = %#v, %v", got, err)
		}
	})

	t.Run("merged with positional queries", func(t *testing.T) {
		path := writeQueryFile(t, `["sre","Data Analyst"]`)
		got, err := resolveQueries("SRE", path)
		if err != nil {
			t.Fatalf("resolveQueries() error = %v", err)
		}
		want := []string{"SRE", "Data Analyst"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("resolveQueries() = %#v, want %#v", got, want)
		}
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for _, content := range []string{`{"job_titles":[`, `{"titles":[]}`, `[1, 2]`, `"sre"`} {
			if _, err := loadQueryFile(writeQueryFile(t, content)); err == nil {
				t.Fatalf("loadQueryFile(%s) error = nil, want error", content)
			}
		}
	})
}

func TestFormatSearchSummary(t *testing.T) {
	if got := formatSearchSummary(nil); got != "summary: jobs=0 by_source=none" {
		t.Fatalf("formatSearchSummary(nil) = %q", got)
	}

	jobs := []models.JobRecord{
		{Source: "via LinkedIn"},
		{Source: "via Indeed"},
		{Source: "via LinkedIn"},
		{},
	}
	got := formatSearchSummary(jobs)
	want := "summary: jobs=4 by_source=unknown:1, via Indeed:1, via LinkedIn:2"
	if got != want {
		t.Fatalf("formatSearchSummary() = %q, want %q", got, want)
	}
}
