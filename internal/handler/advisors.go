package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const (
	projectsActionGroup = "ProjectAdvisorGroup"
	projectsFunction    = "advise_projects"
	coursesActionGroup  = "CourseCatalogGroup"
	coursesFunction     = "find_courses"
)

// Projects answers project advice requests with canned suggestions.
type Projects struct {
	Logger zerolog.Logger
}

func (h *Projects) Handle(_ context.Context, event ActionEvent) (FunctionResponse, error) {
	group := firstNonEmpty(event.ActionGroup, projectsActionGroup)
	function := firstNonEmpty(event.Function, projectsFunction)

	params := event.Params()
	goal := firstNonEmpty(firstString(params, "goal", "Goal"), event.Query, "unknown goal")
	skills := gapSkills(params)

	missing := "none"
	if len(skills) > 0 {
		missing = strings.Join(skills, ", ")
	}
	text := fmt.Sprintf("Goal: %s\nMissing skills: %s\nSuggested: Example Project A, Project B", goal, missing)
	h.Logger.Debug().Str("goal", goal).Int("gaps", len(skills)).Msg("project advice")
	return textResponse(group, function, text), nil
}

// gapSkills accepts a list or a comma separated string.
func gapSkills(params map[string]any) []string {
	raw, ok := params["gap_skills"]
	if !ok || raw == nil {
		raw = params["gaps"]
	}
	var skills []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(stringValue(item)); s != "" {
				skills = append(skills, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				skills = append(skills, s)
			}
		}
	}
	return skills
}

type course struct {
	Name   string
	Skills []string
}

var courseCatalog = []course{
	{Name: "CS 4375 - Machine Learning", Skills: []string{"ML algorithms", "Python", "data processing"}},
	{Name: "CS 4391 - Introduction to AI", Skills: []string{"neural networks", "probability", "search algorithms"}},
	{Name: "STAT 4355 - Data Analysis for Machine Learning", Skills: []string{"statistics", "pandas", "model evaluation"}},
}

// Courses answers course lookups from a fixed catalog.
type Courses struct {
	Logger zerolog.Logger
}

func (h *Courses) Handle(_ context.Context, event ActionEvent) (FunctionResponse, error) {
	group := firstNonEmpty(event.ActionGroup, coursesActionGroup)
	function := firstNonEmpty(event.Function, coursesFunction)

	params := event.Params()
	topic := firstNonEmpty(firstString(params, "topic", "skill"), "unspecified")

	var text strings.Builder
	fmt.Fprintf(&text, "Courses at UTD related to '%s':\n", topic)
	for _, c := range courseCatalog {
		fmt.Fprintf(&text, "- %s (skills: %s)\n", c.Name, strings.Join(c.Skills, ", "))
	}
	h.Logger.Debug().Str("topic", topic).Msg("course lookup")
	return textResponse(group, function, text.String()), nil
}
