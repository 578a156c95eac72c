package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModelID     = "anthropic.claude-3-sonnet-20240229-v1:0"
	DefaultOpenAIModel = openai.GPT4oMini

	anthropicVersion = "bedrock-2023-05-31"
	extractMaxTokens = 200
)

var ErrNonJSON = errors.New("model returned non-JSON output")

var fencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// Extraction is what the model pulled out of a chat message. An empty
// Query means no job intent was found.
type Extraction struct {
	Query    string `json:"query"`
	Location string `json:"location"`
}

// Extractor turns a chat message into search arguments.
type Extractor interface {
	ExtractQuery(ctx context.Context, message string) (Extraction, error)
}

func extractionPrompt(message string) string {
	return strings.TrimSpace(`
You are an API function caller. Output *only* valid JSON, nothing else.
If the user asks for jobs, extract the job title/role and location.

Rules:
- Return ONLY valid JSON, no prose or explanations.
- The JSON must contain exactly these keys: "query" and "location".
- If no job intent is detected, return: {"query": null, "location": null}.

User message:
` + message)
}

// ParseExtraction decodes the model's JSON answer. A fenced code block
// around the object is accepted.
func ParseExtraction(text string) (Extraction, error) {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	var raw struct {
		Query    *string `json:"query"`
		Location *string `json:"location"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Extraction{}, fmt.Errorf("%w: %s", ErrNonJSON, text)
	}
	return Extraction{
		Query:    strings.TrimSpace(aws.ToString(raw.Query)),
		Location: strings.TrimSpace(aws.ToString(raw.Location)),
	}, nil
}

// ModelAPI is the part of the Bedrock runtime client the extractor uses.
type ModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// ModelExtractor asks a Claude model hosted on Bedrock.
type ModelExtractor struct {
	client  ModelAPI
	modelID string
	logger  zerolog.Logger
}

func NewModelExtractor(client ModelAPI, modelID string, logger zerolog.Logger) *ModelExtractor {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &ModelExtractor{client: client, modelID: modelID, logger: logger}
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Messages         []claudeMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens"`
	AnthropicVersion string          `json:"anthropic_version"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (m *ModelExtractor) ExtractQuery(ctx context.Context, message string) (Extraction, error) {
	body, err := json.Marshal(claudeRequest{
		Messages:         []claudeMessage{{Role: "user", Content: extractionPrompt(message)}},
		MaxTokens:        extractMaxTokens,
		AnthropicVersion: anthropicVersion,
	})
	if err != nil {
		return Extraction{}, err
	}

	out, err := m.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("invoke model %s: %w", m.modelID, err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return Extraction{}, fmt.Errorf("decode model response: %w", err)
	}
	var text strings.Builder
	for _, item := range resp.Content {
		if item.Type == "text" {
			text.WriteString(item.Text)
		}
	}
	m.logger.Debug().Str("model", m.modelID).Str("output", text.String()).Msg("raw model output")
	return ParseExtraction(text.String())
}

// OpenAIExtractor asks any OpenAI-compatible chat endpoint.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIExtractor(cfg OpenAIConfig, logger zerolog.Logger) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (o *OpenAIExtractor) ExtractQuery(ctx context.Context, message string) (Extraction, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: extractionPrompt(message)},
		},
		MaxTokens: extractMaxTokens,
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Extraction{}, fmt.Errorf("%w: empty response", ErrNonJSON)
	}
	text := resp.Choices[0].Message.Content
	o.logger.Debug().Str("model", o.model).Str("output", text).Msg("raw model output")
	return ParseExtraction(text)
}
