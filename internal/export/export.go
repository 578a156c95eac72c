package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/careermatch/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatTSV:
		return FormatTSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: table, csv, tsv, json, md)", value)
	}
}

// WriteResult writes a whole search result. JSON keeps the envelope and
// Markdown gets a query heading. The other formats list the jobs only.
func WriteResult(w io.Writer, result models.SearchResult, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(result)
	case FormatMarkdown:
		if _, err := fmt.Fprintf(w, "## %s\n\n", resultHeading(result)); err != nil {
			return err
		}
		if err := writeMarkdown(w, result.Results); err != nil {
			return err
		}
		if token := safe(result.NextPageToken); token != "" {
			_, err := fmt.Fprintf(w, "\nNext page: `%s`\n", token)
			return err
		}
		return nil
	}
	return WriteJobs(w, result.Results, format, opts)
}

func resultHeading(result models.SearchResult) string {
	heading := orDash(result.Query)
	if location := safe(result.Location); location != "" {
		heading += " in " + location
	}
	return fmt.Sprintf("%s (%d jobs)", heading, len(result.Results))
}

func WriteJobs(w io.Writer, jobs []models.JobRecord, format Format, opts WriteOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, jobs)
	case FormatCSV:
		return writeCSV(w, jobs, ',')
	case FormatTSV:
		return writeCSV(w, jobs, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, jobs)
	default:
		return writeTable(w, jobs, opts)
	}
}

func writeJSON(w io.Writer, jobs []models.JobRecord) error {
	if jobs == nil {
		jobs = []models.JobRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jobs)
}

func writeCSV(w io.Writer, jobs []models.JobRecord, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := writer.Write(csvRow(job)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, jobs []models.JobRecord, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, job := range jobs {
		fmt.Fprintln(tw, strings.Join(tableRow(job, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, jobs []models.JobRecord) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, job := range jobs {
		urlLine := "  URL: -"
		if link := safe(job.Link); link != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", link)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", orDash(job.Title), orDash(job.Company)),
			fmt.Sprintf("  Location: %s", orDash(job.Location)),
			urlLine,
		}
		if via := sourceLabel(job.Source); via != "" {
			lines = append(lines, fmt.Sprintf("  Via: %s", via))
		}
		if job.PostedAt != "" {
			lines = append(lines, fmt.Sprintf("  Posted: %s", safe(job.PostedAt)))
		}
		if job.Snippet != "" {
			lines = append(lines, fmt.Sprintf("  Summary: %s", safe(job.Snippet)))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"title",
		"company",
		"location",
		"posted_at",
		"source",
		"link",
		"job_id",
		"snippet",
	}
}

func csvRow(job models.JobRecord) []string {
	return []string{
		job.Title,
		job.Company,
		job.Location,
		job.PostedAt,
		job.Source,
		job.Link,
		job.JobID,
		job.Snippet,
	}
}

// sourceLabel drops the provider's "via " prefix.
func sourceLabel(source string) string {
	source = safe(source)
	if len(source) > 4 && strings.EqualFold(source[:4], "via ") {
		return strings.TrimSpace(source[4:])
	}
	return source
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func orDash(value string) string {
	if value = safe(value); value == "" {
		return "-"
	}
	return value
}

func tableHeader() []string {
	return []string{
		"title",
		"company",
		"location",
		"via",
		"posted",
		"link",
	}
}

func tableRow(job models.JobRecord, output *termenv.Output, opts WriteOptions) []string {
	const linkColor = "#87CEEB"

	link := safe(job.Link)
	displayURL := "-"
	if link != "" {
		displayURL = link
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(link)
		}
		if opts.ColorEnabled {
			displayURL = output.String(displayURL).Foreground(output.Color(linkColor)).String()
		}
		if opts.Hyperlinks {
			displayURL = hyperlink(link, displayURL)
		}
	}
	return []string{
		orDash(job.Title),
		orDash(job.Company),
		orDash(job.Location),
		orDash(sourceLabel(job.Source)),
		orDash(job.PostedAt),
		displayURL,
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if runes := []rune(label); len(runes) > maxLen {
		label = string(runes[:maxLen-3]) + "..."
	}
	return label
}
