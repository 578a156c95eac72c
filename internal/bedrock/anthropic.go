package bedrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/zerolog"
)

const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicExtractor asks Claude through the Anthropic API directly, for
// deployments without Bedrock model access.
type AnthropicExtractor struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewAnthropicExtractor(cfg AnthropicConfig, logger zerolog.Logger) (*AnthropicExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicExtractor{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (a *AnthropicExtractor) ExtractQuery(ctx context.Context, message string) (Extraction, error) {
	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(extractionPrompt(message))},
		MaxTokens: extractMaxTokens,
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("anthropic API error: %w", err)
	}

	var text strings.Builder
	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			text.WriteString(content.GetText())
		}
	}
	a.logger.Debug().Str("model", a.model).Str("output", text.String()).Msg("raw model output")
	return ParseExtraction(text.String())
}
