package generator

import (
	"context"
	"time"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (Completion, error)
}

// Completion is the model's text plus token usage.
type Completion struct {
	Text  string
	Usage Usage
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Unavailable fails every call with Err. It stands in for a client that could
// not be configured so the failure surfaces at generation time.
type Unavailable struct {
	Err error
}

func (u Unavailable) Complete(context.Context, Prompt) (Completion, error) {
	return Completion{}, u.Err
}
