package generator

import (
	"context"
	"errors"

	"autoblog/humanizer"
)

// Agent 负责单次尝试：构造提示词、调用模型、后处理。
type Agent struct {
	llm         LLMClient
	transformer Transformer
	step        float64
}

// NewAgent wires an LLM client with a Markdown transformer. A nil transformer
// uses the default humanizer; step is the per-attempt temperature increase.
func NewAgent(llm LLMClient, t Transformer, step float64) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if t == nil {
		t = humanizer.Default()
	}
	return &Agent{llm: llm, transformer: t, step: step}, nil
}

// Generate produces the draft for one attempt. Detection fields are left zero.
func (a *Agent) Generate(ctx context.Context, req Request, attempt int) (Attempt, error) {
	prompt := BuildPrompt(req, attempt, a.step)
	out, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return Attempt{}, err
	}
	draft, err := PostProcess(out.Text, req.Subject, a.transformer)
	if err != nil {
		return Attempt{}, err
	}
	return Attempt{
		Number:      attempt,
		Temperature: prompt.Temperature,
		RawText:     out.Text,
		Draft:       draft,
		Usage:       out.Usage,
	}, nil
}
