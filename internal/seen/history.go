// Package seen remembers listings already shown so repeated searches can
// report only new jobs.
package seen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jimezsa/careermatch/internal/models"
)

const keySeparator = "::"

// Normalize lower-cases value and collapses whitespace.
func Normalize(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// Key identifies a listing across searches. Title and company are preferred
// because provider ids and links change between queries; listings missing
// either fall back to the job id, then the link.
func Key(job models.JobRecord) (string, bool) {
	title := Normalize(job.Title)
	company := Normalize(job.Company)
	if title != "" && company != "" {
		return title + keySeparator + company, true
	}
	if id := strings.TrimSpace(job.JobID); id != "" {
		return "id" + keySeparator + id, true
	}
	if link := strings.TrimSpace(job.Link); link != "" {
		return "link" + keySeparator + link, true
	}
	return "", false
}

// Dedupe appends the listings of incoming not already in existing.
// Listings without a key are always kept.
func Dedupe(existing []models.JobRecord, incoming []models.JobRecord) []models.JobRecord {
	if len(incoming) == 0 {
		return existing
	}

	keys := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]models.JobRecord, 0, len(existing)+len(incoming))
	for _, job := range existing {
		out = append(out, job)
		if key, ok := Key(job); ok {
			keys[key] = struct{}{}
		}
	}
	for _, job := range incoming {
		key, ok := Key(job)
		if !ok {
			out = append(out, job)
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, job)
	}
	return out
}

// History is a JSON file of listings already reported.
type History struct {
	path string
	jobs []models.JobRecord
	keys map[string]struct{}
}

// Open reads the history at path. A missing or empty file is an empty
// history.
func Open(path string) (*History, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	h := &History{path: path, keys: map[string]struct{}{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return h, nil
	}

	var jobs []models.JobRecord
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	h.Add(jobs)
	return h, nil
}

func (h *History) Len() int {
	return len(h.jobs)
}

// Unseen returns the listings of jobs not in the history, without
// duplicates. Listings without a key are dropped.
func (h *History) Unseen(jobs []models.JobRecord) []models.JobRecord {
	batch := make(map[string]struct{}, len(jobs))
	out := make([]models.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		key, ok := Key(job)
		if !ok {
			continue
		}
		if _, exists := h.keys[key]; exists {
			continue
		}
		if _, exists := batch[key]; exists {
			continue
		}
		batch[key] = struct{}{}
		out = append(out, job)
	}
	return out
}

// Add records jobs and returns how many were new. Existing entries win.
func (h *History) Add(jobs []models.JobRecord) int {
	added := 0
	for _, job := range jobs {
		key, ok := Key(job)
		if !ok {
			continue
		}
		if _, exists := h.keys[key]; exists {
			continue
		}
		h.keys[key] = struct{}{}
		h.jobs = append(h.jobs, job)
		added++
	}
	return added
}

// Save writes the history through a temporary file in the same directory.
func (h *History) Save() error {
	jobs := h.jobs
	if jobs == nil {
		jobs = []models.JobRecord{}
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".seen-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), h.path)
}
