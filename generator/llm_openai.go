package generator

import (
	"context"
	"strings"

	"autoblog/apperr"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const llmService = "llm"

// OpenAILLM implements LLMClient over any OpenAI-compatible chat endpoint
// (OpenRouter by default).
type OpenAILLM struct {
	Model     string
	MaxTokens int
	client    openai.Client
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, apperr.Config(llmService, "llm config is nil")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Config(llmService, "api key missing; set llm.api_key or OPENROUTER_API_KEY")
	}
	if cfg.Model == "" {
		return nil, apperr.Config(llmService, "llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	// 重试交给调用方，这里只做单次请求。
	opts = append(opts, option.WithMaxRetries(0))
	return &OpenAILLM{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		client:    openai.NewClient(opts...),
	}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(prompt.Temperature),
	}
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Completion{}, apperr.Service(llmService, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Completion{}, apperr.EmptyOutput(llmService, "model returned no text")
	}
	return Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
