package models

// JobRecord is one provider listing mapped onto fixed field names.
// Every field is best-effort and may be empty.
type JobRecord struct {
	Title      string `json:"title,omitempty"`
	Company    string `json:"company,omitempty"`
	Link       string `json:"link,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
	Location   string `json:"location,omitempty"`
	PostedAt   string `json:"posted_at,omitempty"`
	JobID      string `json:"job_id,omitempty"`
	Source     string `json:"source,omitempty"`
	RawPreview string `json:"raw_preview,omitempty"`
}
