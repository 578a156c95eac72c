package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://serpapi.com/search.json"
	DefaultTimeout = 20 * time.Second

	engineGoogleJobs = "google_jobs"
	maxErrorBody     = 400
)

// KeyProvider resolves the provider API key for each call.
type KeyProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// Doer sends a prepared request. *network.Client satisfies it.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Client queries the Google Jobs engine and normalizes its answers.
type Client struct {
	http       Doer
	keys       KeyProvider
	baseURL    string
	timeout    time.Duration
	includeRaw bool
	logger     zerolog.Logger
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithRaw keeps the undecoded provider response on every result.
func WithRaw(include bool) Option {
	return func(c *Client) { c.includeRaw = include }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(doer Doer, keys KeyProvider, opts ...Option) *Client {
	c := &Client{
		http:    doer,
		keys:    keys,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one provider query.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	req = NormalizeRequest(req)

	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("resolve api key: %w", err)
	}
	target, err := c.buildURL(req, key)
	if err != nil {
		return models.SearchResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return models.SearchResult{}, err
	}
	httpReq.Header.Set("accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("read provider response: %w", err)
	}

	raw, err := Decode(body)
	if err != nil {
		if resp.StatusCode >= 400 {
			return models.SearchResult{}, &HTTPError{StatusCode: resp.StatusCode, Body: errorBody(body)}
		}
		return models.SearchResult{}, fmt.Errorf("decode provider response: %w", err)
	}

	result, err := BuildSearchResult(raw, req)
	if err != nil {
		c.logger.Warn().Err(err).Str("query", req.Query).Msg("provider reported failure")
		return models.SearchResult{}, err
	}
	if c.includeRaw {
		result.Raw = json.RawMessage(body)
	}

	c.logger.Debug().
		Str("query", result.Query).
		Str("location", result.Location).
		Int("results", len(result.Results)).
		Dur("took", time.Since(start)).
		Msg("provider search complete")
	return result, nil
}

func (c *Client) buildURL(req models.SearchRequest, key string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	values := u.Query()
	values.Set("engine", engineGoogleJobs)
	values.Set("q", req.Query)
	values.Set("api_key", key)
	values.Set("num", strconv.Itoa(req.Limit))
	if req.Location != "" {
		values.Set("location", req.Location)
	}
	if req.NextPageToken != "" {
		values.Set("next_page_token", req.NextPageToken)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func errorBody(body []byte) string {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}
