package jobsearch

import (
	"fmt"
	"strings"

	"github.com/jimezsa/careermatch/internal/models"
)

const snippetPreview = 180

// JobSummary is the trimmed job shape handed to agents.
type JobSummary struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	PostedAt string `json:"posted_at"`
	Snippet  string `json:"snippet,omitempty"`
	Link     string `json:"link"`
}

// Summary is a compact view of a search result.
type Summary struct {
	Query         string       `json:"query"`
	Location      string       `json:"location"`
	Count         int          `json:"count"`
	NextPageToken string       `json:"next_page_token,omitempty"`
	Jobs          []JobSummary `json:"jobs"`
}

func Summarize(result models.SearchResult) Summary {
	jobs := make([]JobSummary, 0, len(result.Results))
	for _, job := range result.Results {
		jobs = append(jobs, summarizeJob(job))
	}
	return Summary{
		Query:         result.Query,
		Location:      result.Location,
		Count:         len(jobs),
		NextPageToken: result.NextPageToken,
		Jobs:          jobs,
	}
}

func summarizeJob(job models.JobRecord) JobSummary {
	summary := JobSummary{
		Title:    job.Title,
		Company:  job.Company,
		Location: job.Location,
		PostedAt: job.PostedAt,
		Link:     job.Link,
	}
	if job.Snippet != "" {
		runes := []rune(job.Snippet)
		if len(runes) > snippetPreview {
			runes = runes[:snippetPreview]
		}
		summary.Snippet = string(runes) + "…"
	}
	return summary
}

// FormatMarkdown renders the first n jobs for chat replies.
func FormatMarkdown(result models.SearchResult, n int) string {
	if len(result.Results) == 0 {
		return "No jobs found."
	}
	jobs := result.Results
	if n > 0 && len(jobs) > n {
		jobs = jobs[:n]
	}
	blocks := make([]string, 0, len(jobs))
	for _, job := range jobs {
		blocks = append(blocks, fmt.Sprintf("**%s** — %s (%s)\n%s",
			orDefault(job.Title, "Untitled"),
			orDefault(job.Company, "Unknown"),
			orDefault(job.Location, "N/A"),
			job.Link,
		))
	}
	return strings.Join(blocks, "\n\n")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
