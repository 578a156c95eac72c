// Package agent answers chat messages with job searches.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jimezsa/careermatch/internal/bedrock"
	"github.com/jimezsa/careermatch/internal/intent"
	"github.com/jimezsa/careermatch/internal/jobsearch"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	searchLimit = 3
	shownJobs   = 5

	keywordHelp   = "I'm here to help with job searches. Try asking: find software engineer internships."
	extractorHelp = "I'm here to help with job searches. Try asking for a role or city."
)

// SearchTool runs job searches. *jobsearch.Tool satisfies it.
type SearchTool interface {
	Run(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
}

// Answer is a chat reply. Exactly one field is set.
type Answer struct {
	Text    string               `json:"text,omitempty"`
	Message string               `json:"message,omitempty"`
	Error   string               `json:"error,omitempty"`
	Search  *models.SearchResult `json:"search,omitempty"`
}

// Responder answers one chat message.
type Responder interface {
	Respond(ctx context.Context, message string) (Answer, error)
}

// Keyword searches with the raw message whenever it mentions jobs or
// internships and renders the hits as markdown.
type Keyword struct {
	Tool   SearchTool
	Logger zerolog.Logger
}

func (k *Keyword) Respond(ctx context.Context, message string) (Answer, error) {
	if !intent.WantsJobSearch(message) {
		return Answer{Text: keywordHelp}, nil
	}
	result, err := k.Tool.Run(ctx, models.SearchRequest{Query: message, Limit: searchLimit})
	if err != nil {
		return Answer{}, err
	}
	k.Logger.Debug().Str("query", result.Query).Int("results", len(result.Results)).Msg("keyword agent search")
	return Answer{Text: jobsearch.FormatMarkdown(result, shownJobs)}, nil
}

// Extracting lets a model pull the role and location out of the message
// before searching.
type Extracting struct {
	Extractor bedrock.Extractor
	Tool      SearchTool
	Logger    zerolog.Logger
}

func (e *Extracting) Respond(ctx context.Context, message string) (Answer, error) {
	args, err := e.Extractor.ExtractQuery(ctx, message)
	if errors.Is(err, bedrock.ErrNonJSON) {
		e.Logger.Warn().Err(err).Msg("model output was not JSON")
		return Answer{Error: capitalize(err.Error())}, nil
	}
	if err != nil {
		return Answer{}, fmt.Errorf("extract query: %w", err)
	}
	if args.Query == "" {
		return Answer{Message: extractorHelp}, nil
	}

	result, err := e.Tool.Run(ctx, models.SearchRequest{Query: args.Query, Location: args.Location, Limit: searchLimit})
	if err != nil {
		return Answer{}, err
	}
	e.Logger.Debug().Str("query", args.Query).Str("location", args.Location).Int("results", len(result.Results)).Msg("extracting agent search")
	return Answer{Search: &result}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
