package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jimezsa/careermatch/internal/jobsearch"
	"github.com/jimezsa/careermatch/internal/models"
	"github.com/rs/zerolog"
)

// Search serves the search function, called through API Gateway or
// invoked directly with the request fields at the top level.
type Search struct {
	Tool   SearchTool
	Logger zerolog.Logger
}

func (h *Search) Handle(ctx context.Context, event json.RawMessage) (events.APIGatewayProxyResponse, error) {
	req, err := parseSearchEvent(event)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("rejected search request")
		return proxyResponse(400, errorBody(err.Error())), nil
	}

	h.Logger.Debug().Str("query", req.Query).Str("location", req.Location).Int("limit", req.Limit).Msg("search request")
	result, err := h.Tool.Run(ctx, req)
	if err != nil {
		h.Logger.Error().Err(err).Str("query", req.Query).Msg("search failed")
		return proxyResponse(500, errorBody(err.Error())), nil
	}
	h.Logger.Info().Str("query", result.Query).Int("results", len(result.Results)).Msg("search complete")
	return proxyResponse(200, result), nil
}

func parseSearchEvent(event json.RawMessage) (models.SearchRequest, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(event, &envelope); err != nil {
		return models.SearchRequest{}, fmt.Errorf("invalid event: %w", err)
	}

	payload := map[string]any{}
	if raw, ok := envelope["body"]; ok && string(raw) != "null" {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			raw = json.RawMessage(text)
		}
		if len(strings.TrimSpace(string(raw))) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return models.SearchRequest{}, fmt.Errorf("invalid JSON body: %w", err)
			}
		}
	}
	if len(payload) == 0 {
		if err := json.Unmarshal(event, &payload); err != nil {
			return models.SearchRequest{}, fmt.Errorf("invalid event: %w", err)
		}
	}

	req := models.SearchRequest{
		Query:         firstString(payload, "query", "q"),
		Location:      firstString(payload, "location"),
		NextPageToken: firstString(payload, "next_page_token"),
		Limit:         jobsearch.DefaultLimit,
	}
	if req.Query == "" {
		return models.SearchRequest{}, fmt.Errorf("missing 'query' parameter")
	}
	if raw, ok := payload["limit"]; ok && raw != nil {
		limit, err := intValue(raw)
		if err != nil {
			return models.SearchRequest{}, fmt.Errorf("invalid 'limit' parameter: %w", err)
		}
		req.Limit = limit
	}
	return req, nil
}

func intValue(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}

func proxyResponse(status int, body any) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": jsonContentType},
		Body:       marshal(body),
	}
}
