package serp

import (
	"regexp"
	"strings"

	"github.com/jimezsa/careermatch/internal/models"
)

const (
	// MaxResults is the largest page the provider serves.
	MaxResults = 10

	snippetMaxChars = 800
	previewMaxChars = 500
	remoteKeyword   = "remote"
)

// Key tables are tried in order; the first usable entry wins.
var (
	linkKeys    = []string{"share_link", "link", "serpapi_job_link", "serpapi_link", "apply_link", "job_link", "url", "apply_url"}
	wrapperKeys = []string{"serpapi_result", "result", "raw"}
	snippetKeys = []string{"description", "snippet", "raw_description"}
	titleKeys   = []string{"title", "job_title"}
	companyKeys = []string{"company_name", "company", "via", "hiring_organization"}
	sourceKeys  = []string{"via", "source", "site", "provider"}
	listKeys    = []string{"jobs_results", "jobs", "organic_results", "results"}
)

var urlPattern = regexp.MustCompile(`https?://[^\s'"<>]+`)

// ClampLimit bounds limit to [1, MaxResults].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxResults {
		return MaxResults
	}
	return limit
}

// NormalizeRequest returns the request as it will be sent upstream. An
// empty or "remote" location is dropped, and the query then gets " remote"
// appended unless it already mentions it. Applying it twice is a no-op.
func NormalizeRequest(req models.SearchRequest) models.SearchRequest {
	out := req
	out.Query = strings.TrimSpace(req.Query)
	out.Location = strings.TrimSpace(req.Location)
	if out.Location == "" || strings.EqualFold(out.Location, remoteKeyword) {
		out.Location = ""
		if !strings.Contains(strings.ToLower(out.Query), remoteKeyword) {
			out.Query = strings.TrimSpace(out.Query + " " + remoteKeyword)
		}
	}
	out.Limit = ClampLimit(req.Limit)
	return out
}

// ExtractJobFields maps one raw provider record onto a JobRecord. Missing
// data leaves fields empty; it never fails.
func ExtractJobFields(item Value) models.JobRecord {
	link := extractLink(item)
	record := models.JobRecord{
		Title:    firstText(item, titleKeys...),
		Company:  firstText(item, companyKeys...),
		Link:     link,
		Snippet:  extractSnippet(item),
		Location: item.Field("location").Text(),
		PostedAt: extractPostedAt(item),
		JobID:    item.Field("job_id").Text(),
		Source:   firstText(item, sourceKeys...),
	}
	if link == "" {
		record.RawPreview = rawPreview(item)
	}
	return record
}

// BuildSearchResult turns a decoded provider response into a SearchResult.
// Error responses fail with *ProviderError before any extraction.
func BuildSearchResult(raw Value, req models.SearchRequest) (models.SearchResult, error) {
	if err := checkResponse(raw); err != nil {
		return models.SearchResult{}, err
	}

	req = NormalizeRequest(req)
	result := models.SearchResult{
		Query:    req.Query,
		Location: req.Location,
		Results:  []models.JobRecord{},
	}

	for _, key := range listKeys {
		items := raw.Field(key)
		if items.Kind() != KindList {
			continue
		}
		for _, item := range items.Items() {
			if len(result.Results) >= req.Limit {
				break
			}
			result.Results = append(result.Results, ExtractJobFields(item))
		}
		if len(result.Results) > 0 {
			break
		}
	}

	result.NextPageToken = nextPageToken(raw)
	return result, nil
}

func checkResponse(raw Value) error {
	if raw.Kind() != KindMap {
		return &ProviderError{Detail: raw}
	}
	if errValue := raw.Field("error"); errValue.Truthy() {
		return &ProviderError{Detail: errValue}
	}
	metadata := raw.Field("search_metadata")
	status := metadata.Field("status")
	if status.Truthy() && !strings.EqualFold(status.Text(), "success") {
		if metadata.Truthy() {
			return &ProviderError{Detail: metadata}
		}
		return &ProviderError{Detail: raw}
	}
	return nil
}

func nextPageToken(raw Value) string {
	if token := raw.Field("serpapi_pagination").Field("next_page_token").Text(); token != "" {
		return token
	}
	return raw.Field("search_metadata").Field("serpapi_pagination").Field("next_page_token").Text()
}

func extractLink(item Value) string {
	if link := linkFromKeys(item); link != "" {
		return link
	}
	for _, key := range wrapperKeys {
		nested := item.Field(key)
		if !nested.Truthy() {
			continue
		}
		if nested.Kind() == KindMap {
			if link := linkFromKeys(nested); link != "" {
				return link
			}
		}
		break
	}
	return findFirstURL(item)
}

func linkFromKeys(v Value) string {
	for _, key := range linkKeys {
		if s, ok := v.Field(key).Str(); ok {
			if link := urlPattern.FindString(s); link != "" {
				return link
			}
		}
	}
	return ""
}

// findFirstURL walks v depth-first, mapping keys in document order, and
// returns the first URL found in any string.
func findFirstURL(v Value) string {
	switch v.Kind() {
	case KindString:
		s, _ := v.Str()
		return urlPattern.FindString(s)
	case KindMap:
		if link := linkFromKeys(v); link != "" {
			return link
		}
		for _, m := range v.Members() {
			if link := findFirstURL(m.Value); link != "" {
				return link
			}
		}
	case KindList:
		for _, item := range v.Items() {
			if link := findFirstURL(item); link != "" {
				return link
			}
		}
	}
	return ""
}

func extractSnippet(item Value) string {
	snippet := strings.TrimSpace(firstText(item, snippetKeys...))
	snippet = cleanText(snippet)
	return truncateAtSpace(snippet, snippetMaxChars)
}

func extractPostedAt(item Value) string {
	if posted := firstText(item, "posted_at"); posted != "" {
		return posted
	}

	extensions := item.Field("extensions")
	switch extensions.Kind() {
	case KindMap:
		if posted := firstText(extensions, "posted_at", "posted"); posted != "" {
			return posted
		}
	case KindList:
		if posted := postedFromList(extensions.Items()); posted != "" {
			return posted
		}
	case KindString:
		if posted, _ := extensions.Str(); posted != "" {
			return posted
		}
	}

	return item.Field("detected_extensions").Field("posted_at").Text()
}

// postedFromList returns the value of the first posted key found in a list
// of extension mappings, even when that value is empty.
func postedFromList(items []Value) string {
	for _, ext := range items {
		if ext.Kind() != KindMap {
			continue
		}
		if posted, ok := ext.Get("posted_at"); ok {
			return posted.Text()
		}
		if posted, ok := ext.Get("posted"); ok {
			return posted.Text()
		}
		if posted, ok := ext.Field("detected_extensions").Get("posted_at"); ok {
			return posted.Text()
		}
	}
	return ""
}

func rawPreview(item Value) string {
	text, ok := item.Str()
	if !ok {
		text = item.Preview()
	}
	return truncateAtSpace(text, previewMaxChars)
}

func firstText(item Value, keys ...string) string {
	for _, key := range keys {
		value := item.Field(key)
		if !value.Truthy() {
			continue
		}
		if text := value.Text(); text != "" {
			return text
		}
	}
	return ""
}
