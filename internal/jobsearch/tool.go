package jobsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	DefaultLimit      = 10
	DefaultLambdaName = "serpapi-google-jobs"

	ModeLocal  = "local"
	ModeLambda = "lambda"
)

var ErrUnknownMode = errors.New("unknown job tool mode")

// Searcher runs one normalized job search. *serp.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
}

// Tool is the single entry point the agents, handlers and CLI use to search.
type Tool struct {
	searcher Searcher
	mode     string
	logger   zerolog.Logger
}

func NewTool(mode string, searcher Searcher, logger zerolog.Logger) *Tool {
	return &Tool{searcher: searcher, mode: mode, logger: logger}
}

func (t *Tool) Mode() string {
	return t.mode
}

// Run searches with the configured backend. A zero limit means DefaultLimit.
func (t *Tool) Run(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return models.SearchResult{}, errors.New("query is required")
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	t.logger.Debug().
		Str("mode", t.mode).
		Str("query", req.Query).
		Str("location", req.Location).
		Int("limit", req.Limit).
		Msg("job search")
	return t.searcher.Search(ctx, req)
}

// ParseMode validates a mode name. Empty means local.
func ParseMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeLocal:
		return ModeLocal, nil
	case ModeLambda:
		return ModeLambda, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: local, lambda)", ErrUnknownMode, mode)
	}
}

// LambdaInvoker is the part of the Lambda client LambdaSearcher uses.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaSearcher delegates searches to the deployed search function.
type LambdaSearcher struct {
	Client       LambdaInvoker
	FunctionName string
}

type lambdaPayload struct {
	Query         string  `json:"query"`
	Location      *string `json:"location"`
	Limit         int     `json:"limit"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

type lambdaEnvelope struct {
	StatusCode *int            `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

func (s *LambdaSearcher) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	payload := lambdaPayload{Query: req.Query, Limit: req.Limit, NextPageToken: req.NextPageToken}
	if req.Location != "" {
		payload.Location = aws.String(req.Location)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return models.SearchResult{}, err
	}

	name := s.FunctionName
	if name == "" {
		name = DefaultLambdaName
	}
	out, err := s.Client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(name),
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
		Payload:        data,
	})
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("invoke %s: %w", name, err)
	}
	if out.FunctionError != nil {
		return models.SearchResult{}, fmt.Errorf("invoke %s: function error %s: %s", name, aws.ToString(out.FunctionError), preview(out.Payload))
	}
	if len(out.Payload) == 0 {
		return models.SearchResult{}, fmt.Errorf("invoke %s: empty payload", name)
	}
	return decodeLambdaResult(out.Payload)
}

func decodeLambdaResult(payload []byte) (models.SearchResult, error) {
	body := json.RawMessage(payload)
	status := 0

	var envelope lambdaEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return models.SearchResult{}, fmt.Errorf("decode lambda payload: %w (raw: %s)", err, preview(payload))
	}
	if envelope.StatusCode != nil && len(envelope.Body) > 0 {
		status = *envelope.StatusCode
		body = envelope.Body
		var text string
		if err := json.Unmarshal(body, &text); err == nil {
			body = json.RawMessage(text)
		}
	}

	if status >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &failure); err == nil && failure.Error != "" {
			return models.SearchResult{}, fmt.Errorf("search function returned %d: %s", status, failure.Error)
		}
		return models.SearchResult{}, fmt.Errorf("search function returned %d: %s", status, preview(body))
	}

	var result models.SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return models.SearchResult{}, fmt.Errorf("decode search result: %w", err)
	}
	return result, nil
}

func preview(data []byte) string {
	const max = 400
	if len(data) > max {
		data = data[:max]
	}
	return string(data)
}
