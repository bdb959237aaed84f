package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
)

// Completer sends one structured-output request to an LLM and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Provider names accepted by NewCompleter.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMConfig holds configuration for the translation model.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultLLMConfig returns defaults suited to short translation calls.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    ProviderOpenAI,
		Model:       openai.GPT4oMini,
		Temperature: 0.2,
		MaxTokens:   4000,
		Timeout:     60 * time.Second,
	}
}

// ErrNoAPIKey is returned by NewCompleter when no key is configured.
var ErrNoAPIKey = errors.New("llm api key not configured")

// NewCompleter builds the completer for cfg.Provider.
func NewCompleter(cfg LLMConfig, logger *slog.Logger) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAICompleter(cfg, logger), nil
	case ProviderAnthropic:
		return NewAnthropicCompleter(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// OpenAICompleter calls the chat completions API in JSON mode.
type OpenAICompleter struct {
	client *openai.Client
	config LLMConfig
	logger *slog.Logger
}

// NewOpenAICompleter creates an OpenAI-backed completer.
func NewOpenAICompleter(cfg LLMConfig, logger *slog.Logger) *OpenAICompleter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAICompleter{
		client: openai.NewClient(cfg.APIKey),
		config: cfg,
		logger: logger,
	}
}

// isReasoningModel detects o1/o3/o4/gpt-5 models, which reject system messages,
// temperature and JSON mode.
func isReasoningModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "o1") ||
		strings.HasPrefix(m, "o3") ||
		strings.HasPrefix(m, "o4") ||
		strings.Contains(m, "gpt-5")
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var request openai.ChatCompletionRequest
	if isReasoningModel(c.config.Model) {
		request = openai.ChatCompletionRequest{
			Model: c.config.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: system + "\n\n" + user},
			},
		}
	} else {
		request = openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: c.config.Temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		}
	}
	if c.config.MaxTokens > 0 {
		request.MaxCompletionTokens = c.config.MaxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("openai api call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned from model %s", c.config.Model)
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("openai completion",
		"model", c.config.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	if content == "" {
		return "", fmt.Errorf("empty response from model %s (finish_reason: %s)", c.config.Model, resp.Choices[0].FinishReason)
	}
	return content, nil
}

// AnthropicCompleter calls the Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	config LLMConfig
	logger *slog.Logger
}

// NewAnthropicCompleter creates an Anthropic-backed completer.
func NewAnthropicCompleter(cfg LLMConfig, logger *slog.Logger) *AnthropicCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &AnthropicCompleter{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		config: cfg,
		logger: logger,
	}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(float64(c.config.Temperature)),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}

	c.logger.Debug("anthropic completion",
		"model", c.config.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens)

	return message.Content[0].Text, nil
}
