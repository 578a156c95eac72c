package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jimezsa/careermatch/internal/models"
)

var sampleJobs = []models.JobRecord{
	{Title: "Go Engineer", Company: "Acme", Location: "Austin, TX", PostedAt: "2 days ago", Source: "LinkedIn", Link: "https://www.example.com/jobs/1?x=1", Snippet: "Build APIs"},
	{Title: "Intern"},
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatTable, "CSV": FormatCSV, "markdown": FormatMarkdown, "tsv": FormatTSV, "json": FormatJSON}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJobs(&buf, sampleJobs, FormatCSV, WriteOptions{}); err != nil {
		t.Fatalf("WriteJobs() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "title" || rows[1][2] != "Austin, TX" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestWriteTableAndMarkdown(t *testing.T) {
	var table bytes.Buffer
	if err := WriteJobs(&table, sampleJobs, FormatTable, WriteOptions{}); err != nil {
		t.Fatalf("table error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(table.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "title") || !strings.Contains(lines[2], "-") {
		t.Fatalf("table = %q", table.String())
	}

	var md bytes.Buffer
	if err := WriteJobs(&md, sampleJobs, FormatMarkdown, WriteOptions{}); err != nil {
		t.Fatalf("markdown error = %v", err)
	}
	if !strings.Contains(md.String(), "- **Go Engineer** (Acme)") || !strings.Contains(md.String(), "  URL: -") || !strings.Contains(md.String(), "  Via: LinkedIn") {
		t.Fatalf("markdown = %q", md.String())
	}

	md.Reset()
	_ = WriteJobs(&md, nil, FormatMarkdown, WriteOptions{})
	if md.String() != "No results.\n" {
		t.Fatalf("empty markdown = %q", md.String())
	}
}

func TestWriteResultJSONKeepsEnvelope(t *testing.T) {
	var buf bytes.Buffer
	result := models.SearchResult{
		Query:         "go",
		Results:       []models.JobRecord{{Title: "Go", Link: "https://a.example/?x=1&y=2"}},
		NextPageToken: "tok",
	}
	if err := WriteResult(&buf, result, FormatJSON, WriteOptions{}); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}
	var decoded models.SearchResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.NextPageToken != "tok" || len(decoded.Results) != 1 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if strings.Contains(buf.String(), `\u0026`) {
		t.Fatalf("html escaped output: %s", buf.String())
	}
}

func TestWriteResultMarkdown(t *testing.T) {
	var buf bytes.Buffer
	result := models.SearchResult{
		Query:         "go developer",
		Location:      "Austin, TX",
		Results:       sampleJobs[:1],
		NextPageToken: "tok",
	}
	if err := WriteResult(&buf, result, FormatMarkdown, WriteOptions{}); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "## go developer in Austin, TX (1 jobs)\n\n- **Go Engineer** (Acme)") {
		t.Fatalf("markdown = %q", out)
	}
	if !strings.HasSuffix(out, "\nNext page: `tok`\n") {
		t.Fatalf("markdown missing next page: %q", out)
	}
}

func TestSourceLabel(t *testing.T) {
	tests := map[string]string{
		"via LinkedIn": "LinkedIn",
		"Via  Indeed":  "Indeed",
		"Glassdoor":    "Glassdoor",
		"  ":           "",
	}
	for in, want := range tests {
		if got := sourceLabel(in); got != want {
			t.Fatalf("sourceLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShortURLLabel(t *testing.T) {
	if got := shortURLLabel("https://www.example.com/jobs/1?x=1"); got != "example.com/jobs/1" {
		t.Fatalf("shortURLLabel() = %q", got)
	}
}
