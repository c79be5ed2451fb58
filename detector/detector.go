package detector

import (
	"context"
)

// Result is the classifier verdict for one text.
type Result struct {
	HumanScore float64 `json:"human_score"`
	FakeScore  float64 `json:"fake_score"`
	Feedback   string  `json:"feedback,omitempty"`
	AIWords    int     `json:"ai_words,omitempty"`
	TextWords  int     `json:"text_words,omitempty"`
	// Bypassed marks a verdict produced without calling a classifier.
	Bypassed bool `json:"bypassed,omitempty"`
}

// Passes reports whether r meets threshold. A bypassed verdict always passes.
func (r Result) Passes(threshold float64) bool {
	return r.Bypassed || r.HumanScore >= threshold
}

// Detector scores plain text for human-likeness.
type Detector interface {
	Detect(ctx context.Context, plainText string) (Result, error)
}

// Disabled skips detection and reports a perfect human score.
type Disabled struct{}

func (Disabled) Detect(context.Context, string) (Result, error) {
	return Result{HumanScore: 100, FakeScore: 0, Feedback: "detection disabled", Bypassed: true}, nil
}
