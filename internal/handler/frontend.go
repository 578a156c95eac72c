package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jimezsa/careermatch/internal/bedrock"
	"github.com/jimezsa/careermatch/internal/resume"
	"github.com/rs/zerolog"
)

const (
	frontendSession = "frontend-session"
	resumeHeader    = "\n\nHere is the text extracted from the attached resume:\n"
	resumeMaxChars  = 6000
	dumpMaxChars    = 6000
)

var (
	errUnsupportedContent = errors.New("unsupported content type")
	errEmptyInput         = errors.New("empty input")
)

// Frontend serves the chat endpoint behind the HTTP API.
type Frontend struct {
	Agent          Agent
	AgentRef       bedrock.AgentRef
	AllowedOrigins []string
	FallbackOrigin string
	Logger         zerolog.Logger
}

func (h *Frontend) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (resp events.APIGatewayV2HTTPResponse, err error) {
	headers := lowerHeaders(req.Headers)
	cors := h.corsHeaders(headers["origin"])

	defer func() {
		if r := recover(); r != nil {
			h.Logger.Error().Interface("panic", r).Msg("unhandled frontend failure")
			resp = httpResponse(500, cors, errorBody(fmt.Sprint(r)))
			err = nil
		}
	}()

	if req.RequestContext.HTTP.Method == "OPTIONS" {
		return httpResponse(200, cors, map[string]string{"message": "CORS preflight OK"}), nil
	}

	input, err := h.readInput(req, headers["content-type"])
	if err != nil {
		h.Logger.Warn().Err(err).Str("content_type", headers["content-type"]).Msg("rejected frontend request")
		switch {
		case errors.Is(err, errUnsupportedContent):
			return httpResponse(400, cors, errorBody("Unsupported content type.")), nil
		case errors.Is(err, errEmptyInput):
			return httpResponse(400, cors, errorBody("Empty input.")), nil
		default:
			return httpResponse(400, cors, errorBody(err.Error())), nil
		}
	}

	h.Logger.Debug().Str("input", truncateRunes(input, 200)).Msg("sending input to agent")
	reply, err := h.Agent.Invoke(ctx, h.AgentRef, frontendSession, input)
	if err != nil {
		h.Logger.Error().Err(err).Msg("agent invocation failed")
		return httpResponse(502, cors, errorBody("Bedrock invocation failed: "+err.Error())), nil
	}

	text := reply.Text
	if text == "" {
		dump, _ := json.MarshalIndent(reply, "", "  ")
		text = truncateRunes(string(dump), dumpMaxChars)
	}
	h.Logger.Info().Int("chars", len(text)).Msg("frontend reply")
	return httpResponse(200, cors, map[string]string{"reply": strings.TrimSpace(text)}), nil
}

func (h *Frontend) readInput(req events.APIGatewayV2HTTPRequest, contentType string) (string, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return "", fmt.Errorf("decode body: %w", err)
		}
		body = decoded
	}

	var message, resumeText string
	switch {
	case strings.Contains(contentType, "application/json"):
		var payload struct {
			Message string `json:"message"`
		}
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return "", fmt.Errorf("invalid JSON body: %w", err)
			}
		}
		message = strings.TrimSpace(payload.Message)
	case strings.Contains(contentType, "multipart/form-data"):
		var err error
		message, resumeText, err = readMultipart(body, contentType)
		if err != nil {
			return "", err
		}
	default:
		return "", errUnsupportedContent
	}

	input := message
	if resumeText != "" {
		input += resumeHeader + truncateRunes(resumeText, resumeMaxChars)
	}
	if strings.TrimSpace(input) == "" {
		return "", errEmptyInput
	}
	return input, nil
}

// readMultipart pulls the message field and the text of the file field.
func readMultipart(body []byte, contentType string) (message, resumeText string, err error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return "", "", fmt.Errorf("invalid multipart content type: %q", contentType)
	}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("read multipart body: %w", err)
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return "", "", fmt.Errorf("read part %q: %w", part.FormName(), err)
		}
		switch part.FormName() {
		case "message":
			message = strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
		case "file":
			resumeText = resume.ExtractText(bytes.TrimSpace(data))
		}
	}
	return message, resumeText, nil
}

func (h *Frontend) corsHeaders(origin string) map[string]string {
	allow := h.FallbackOrigin
	for _, allowed := range h.AllowedOrigins {
		if origin != "" && origin == allowed {
			allow = origin
			break
		}
	}
	return map[string]string{
		"Access-Control-Allow-Origin":      allow,
		"Access-Control-Allow-Headers":     "Content-Type",
		"Access-Control-Allow-Methods":     "POST,OPTIONS",
		"Access-Control-Allow-Credentials": "true",
		"Content-Type":                     jsonContentType,
	}
}

func httpResponse(status int, headers map[string]string, body any) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       marshal(body),
	}
}

func lowerHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[strings.ToLower(key)] = value
	}
	return out
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
