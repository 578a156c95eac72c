// Package intent routes free-form career questions to a specialist agent.
package intent

import (
	"fmt"
	"strings"
)

type Intent string

const (
	Job     Intent = "job"
	Course  Intent = "course"
	Project Intent = "project"
	Resume  Intent = "resume"
)

// All lists every intent in routing priority order.
var All = []Intent{Resume, Project, Course, Job}

var keywords = map[Intent][]string{
	Resume:  {"resume", "cv", "linkedin", "cover letter"},
	Project: {"project", "portfolio", "build", "create", "make", "ideas", "coding", "develop"},
	Course:  {"course", "class", "take", "learn", "study", "subject", "degree"},
	Job:     {"job", "internship", "career", "position", "opening", "hire", "work"},
}

// Detect picks the first intent whose keywords appear in text. Anything
// unmatched is treated as a job question.
func Detect(text string) Intent {
	lower := strings.ToLower(text)
	for _, in := range All {
		for _, keyword := range keywords[in] {
			if strings.Contains(lower, keyword) {
				return in
			}
		}
	}
	return Job
}

// Prompt phrases the user's input for the specialist agent.
func Prompt(in Intent, text string) string {
	switch in {
	case Job:
		return fmt.Sprintf("Find current job or internship opportunities related to %s.", text)
	case Course:
		return fmt.Sprintf("Suggest UTD courses that would help someone interested in %s.", text)
	case Project:
		return fmt.Sprintf("Generate creative and practical project ideas related to %s.", text)
	case Resume:
		return fmt.Sprintf("Provide feedback and suggestions to improve my resume for %s.", text)
	default:
		return fmt.Sprintf("Help me explore opportunities related to %s.", text)
	}
}

// WantsJobSearch is the keyword check of the simple agent.
func WantsJobSearch(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "job") || strings.Contains(lower, "intern")
}

// Parse maps a name back to an Intent.
func Parse(name string) (Intent, bool) {
	for _, in := range All {
		if string(in) == strings.ToLower(strings.TrimSpace(name)) {
			return in, true
		}
	}
	return "", false
}
