package generator

import (
	"autoblog/keywords"
	"autoblog/profile"
	"autoblog/research"
)

// Request is the immutable input to one pipeline run.
type Request struct {
	Subject      string
	Profile      profile.Profile
	Keywords     []keywords.KeywordScore
	Citations    []research.Citation
	RelatedPosts []RelatedPost
	// TargetScore <= 0 falls back to DefaultTargetScore.
	TargetScore float64
	// MaxAttempts < 1 falls back to DefaultMaxAttempts.
	MaxAttempts    int
	CheckDetection bool
}

// RelatedPost 已发布文章，用于内链。
type RelatedPost struct {
	Subject string `json:"subject"`
	URL     string `json:"url"`
}

// Usage counts model tokens for one completion.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Draft is the post-processed article produced by one attempt.
type Draft struct {
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	Markdown        string `json:"markdown"`
	HTML            string `json:"html"`
	// PlainText is the tag-stripped text sent to the detector.
	PlainText string `json:"-"`
	WordCount int    `json:"word_count"`
}

// Attempt is one generate, transform and score cycle. It is never modified
// after the loop creates it.
type Attempt struct {
	Number      int     `json:"number"`
	Temperature float64 `json:"temperature"`
	RawText     string  `json:"-"`
	Draft
	Usage      Usage   `json:"usage"`
	HumanScore float64 `json:"human_score"`
	FakeScore  float64 `json:"fake_score"`
	Feedback   string  `json:"feedback,omitempty"`
	Passed     bool    `json:"passed"`
}

// Result is the attempt chosen when the loop ends.
type Result struct {
	Attempt
	PassedThreshold bool `json:"passed_threshold"`
	// Attempts is how many generation calls the run made.
	Attempts int `json:"attempts"`
}
