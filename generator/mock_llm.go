package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// Subject 为空时标题使用占位文本。
type MockLLM struct {
	Subject string
}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (Completion, error) {
	subject := m.Subject
	if subject == "" {
		subject = "Example Subject"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<!-- Meta Description: What actually happened when I tried %s, with the numbers. -->\n", subject)
	fmt.Fprintf(&sb, "# What I Learned About %s\n\n", subject)
	sb.WriteString("Look, I'm not a doctor. Additionally, this is just what worked for me.\n\n")
	sb.WriteString("## The protocol\n\n")
	sb.WriteString("I tracked everything for eight weeks, logged sleep, energy, mood and focus, and wrote it all down.\n\n")
	fmt.Fprintf(&sb, "Prompt length was %d characters at temperature %.2f.\n", len(prompt.User), prompt.Temperature)
	return Completion{
		Text:  sb.String(),
		Usage: Usage{InputTokens: int64(len(prompt.System)+len(prompt.User)) / 4, OutputTokens: int64(sb.Len()) / 4},
	}, nil
}
