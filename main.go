package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoblog/apperr"
	"autoblog/config"
	"autoblog/generator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// buildLLM picks the generation client from config. A client that cannot be
// configured becomes generator.Unavailable so commands that never generate
// still work and generation fails with a configuration error.
func buildLLM(cfg config.LLMConfig) generator.LLMClient {
	settings := &generator.LLMSettings{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	switch cfg.Provider {
	case "mock":
		return generator.MockLLM{}
	case "openrouter", "openai", "deepseek", "":
		// 均为 OpenAI 兼容接口，通过 base_url 区分。
		llm, err := generator.NewOpenAILLMFromConfig(settings)
		if err != nil {
			return generator.Unavailable{Err: err}
		}
		return llm
	default:
		return generator.Unavailable{Err: apperr.Config("llm", "llm provider %s not supported", cfg.Provider)}
	}
}
