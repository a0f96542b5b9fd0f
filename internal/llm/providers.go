package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"cv-status/internal/config"
)

// Model wraps a langchaingo model as a Generator.
type Model struct {
	llm       llms.Model
	modelName string
	jsonMode  bool
}

// NewGenerator builds the completion backend selected by LLM_PROVIDER.
// The returned close func releases provider clients and is never nil.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, func() error, error) {
	noop := func() error { return nil }

	switch Provider(cfg.LLMProvider) {
	case ProviderVertex:
		v, err := NewVertex(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, cfg.LLMModel)
		if err != nil {
			return nil, noop, err
		}
		return v, v.Close, nil
	case ProviderNone:
		return nil, noop, fmt.Errorf("LLM provider not configured")
	}

	m, err := NewModel(cfg)
	if err != nil {
		return nil, noop, err
	}
	return m, noop, nil
}

// NewModel creates a langchaingo model for openai, anthropic or ollama.
func NewModel(cfg *config.Config) (*Model, error) {
	var model llms.Model
	var err error
	jsonMode := true

	switch Provider(cfg.LLMProvider) {
	case ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
			ollama.WithFormat("json"),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		jsonMode = false

	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		// Anthropic has no JSON response mode; the prompt asks for JSON instead.
		jsonMode = false

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{llm: model, modelName: cfg.LLMModel, jsonMode: jsonMode}, nil
}

func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{llms.WithTemperature(0.1), llms.WithMaxTokens(4096)}
	if m.jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	response, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.modelName
}
