package models

import "encoding/json"

// SearchRequest captures the inputs of a single job search.
type SearchRequest struct {
	Query         string `json:"query"`
	Location      string `json:"location,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

// SearchResult is the normalized answer to a SearchRequest.
// Query is the text actually sent upstream, which may differ from the
// caller's input.
type SearchResult struct {
	Query         string          `json:"query"`
	Location      string          `json:"location,omitempty"`
	Results       []JobRecord     `json:"results"`
	NextPageToken string          `json:"next_page_token,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}
