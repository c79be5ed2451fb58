package generator

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"autoblog/apperr"
	"autoblog/detector"
	"autoblog/profile"
)

const article = "<!-- Meta Description: What happened when I tried it. -->\n# My Title\n\nSome body text here."

type stubLLM struct {
	prompts []Prompt
	failOn  int
	err     error
}

func (s *stubLLM) Complete(_ context.Context, p Prompt) (Completion, error) {
	s.prompts = append(s.prompts, p)
	if s.failOn > 0 && len(s.prompts) == s.failOn {
		return Completion{}, s.err
	}
	return Completion{Text: article, Usage: Usage{InputTokens: 100, OutputTokens: 50}}, nil
}

type stubDetector struct {
	scores []float64
	calls  int
	err    error
}

func (s *stubDetector) Detect(_ context.Context, text string) (detector.Result, error) {
	if s.err != nil {
		return detector.Result{}, s.err
	}
	score := s.scores[s.calls]
	s.calls++
	return detector.Result{HumanScore: score, FakeScore: 100 - score}, nil
}

type identity struct{}

func (identity) Humanize(s string) string { return s }

type sleepRecorder struct{ calls []time.Duration }

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func testRequest() Request {
	return Request{
		Subject: "Creatine",
		Profile: profile.Profile{
			Name:       "Test",
			Slug:       "test",
			Content:    profile.Content{Temperature: 0.7, MaxTokens: 100},
			Variations: []string{"", "second take", "third take"},
			Subjects:   []string{"Creatine"},
		},
		TargetScore:    75,
		MaxAttempts:    3,
		CheckDetection: true,
	}
}

func newTestPipeline(t *testing.T, llm LLMClient, det detector.Detector, rec *sleepRecorder) *Pipeline {
	t.Helper()
	agent, err := NewAgent(llm, identity{}, DefaultTemperatureStep)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	p, err := NewPipeline(agent, det, WithSleeper(rec.sleep), WithRetryDelay(time.Second))
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestPipelineAcceptsFirstPassingAttempt(t *testing.T) {
	llm := &stubLLM{}
	det := &stubDetector{scores: []float64{80}}
	rec := &sleepRecorder{}
	res, err := newTestPipeline(t, llm, det, rec).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.PassedThreshold || res.Attempts != 1 || res.Number != 1 || res.HumanScore != 80 {
		t.Fatalf("result = %+v", res)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("llm calls = %d, want 1", len(llm.prompts))
	}
	if len(rec.calls) != 0 {
		t.Fatalf("slept %d times", len(rec.calls))
	}
	if res.Title != "My Title" || res.MetaDescription != "What happened when I tried it." {
		t.Fatalf("draft = %+v", res.Draft)
	}
}

func TestPipelineReturnsBestWhenExhausted(t *testing.T) {
	llm := &stubLLM{}
	det := &stubDetector{scores: []float64{40, 60, 55}}
	rec := &sleepRecorder{}
	res, err := newTestPipeline(t, llm, det, rec).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.PassedThreshold {
		t.Fatal("expected passedThreshold=false")
	}
	if res.HumanScore != 60 || res.Number != 2 || res.Attempts != 3 {
		t.Fatalf("result = %+v", res)
	}
	if len(llm.prompts) != 3 {
		t.Fatalf("llm calls = %d, want 3", len(llm.prompts))
	}
	if len(rec.calls) != 2 || rec.calls[0] != time.Second {
		t.Fatalf("sleeps = %v", rec.calls)
	}
}

func TestPipelineTieKeepsEarliest(t *testing.T) {
	det := &stubDetector{scores: []float64{50, 50, 40}}
	res, err := newTestPipeline(t, &stubLLM{}, det, &sleepRecorder{}).Run(context.Background(), testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if res.Number != 1 {
		t.Fatalf("best attempt = %d, want 1", res.Number)
	}
}

func TestPipelineBypassMakesOneCall(t *testing.T) {
	llm := &stubLLM{}
	req := testRequest()
	req.CheckDetection = false
	req.MaxAttempts = 5
	res, err := newTestPipeline(t, llm, nil, &sleepRecorder{}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("llm calls = %d, want 1", len(llm.prompts))
	}
	if !res.PassedThreshold || res.HumanScore != 100 || res.FakeScore != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestPipelineGenerationErrorIsFatal(t *testing.T) {
	boom := apperr.Service("llm", errors.New("connection reset"))
	llm := &stubLLM{failOn: 2, err: boom}
	det := &stubDetector{scores: []float64{50, 90}}
	res, err := newTestPipeline(t, llm, det, &sleepRecorder{}).Run(context.Background(), testRequest())
	if !errors.Is(err, apperr.ErrService) {
		t.Fatalf("err = %v, want service error", err)
	}
	if res.Number != 0 || res.Title != "" {
		t.Fatalf("attempt 1 leaked into result: %+v", res)
	}
	if len(llm.prompts) != 2 || det.calls != 1 {
		t.Fatalf("llm calls = %d, detector calls = %d", len(llm.prompts), det.calls)
	}
}

func TestPipelineDetectionErrorIsFatal(t *testing.T) {
	llm := &stubLLM{}
	det := &stubDetector{err: apperr.Config("zerogpt", "api key missing")}
	_, err := newTestPipeline(t, llm, det, &sleepRecorder{}).Run(context.Background(), testRequest())
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("llm calls = %d", len(llm.prompts))
	}
}

func TestPipelineRequiresDetectorWhenEnabled(t *testing.T) {
	_, err := newTestPipeline(t, &stubLLM{}, nil, &sleepRecorder{}).Run(context.Background(), testRequest())
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestPipelineEscalatesTemperatureAndVariation(t *testing.T) {
	llm := &stubLLM{}
	det := &stubDetector{scores: []float64{10, 20, 30, 40}}
	req := testRequest()
	req.MaxAttempts = 4
	if _, err := newTestPipeline(t, llm, det, &sleepRecorder{}).Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	want := []float64{0.7, 0.75, 0.8, 0.85}
	for i, p := range llm.prompts {
		if math.Abs(p.Temperature-want[i]) > 1e-9 {
			t.Fatalf("attempt %d temperature = %v, want %v", i+1, p.Temperature, want[i])
		}
		if p.MaxTokens != 100 {
			t.Fatalf("max tokens = %d", p.MaxTokens)
		}
	}
	if strings.Contains(llm.prompts[0].System, "THIS TIME") {
		t.Fatal("first attempt should have no variation instruction")
	}
	if !strings.Contains(llm.prompts[1].System, "second take") {
		t.Fatal("attempt 2 missing its variation")
	}
	if !strings.Contains(llm.prompts[3].System, "third take") {
		t.Fatal("attempt 4 should clamp to the last variation")
	}
}

func TestPipelineDefaultsBudget(t *testing.T) {
	llm := &stubLLM{}
	det := &stubDetector{scores: []float64{1, 2, 3}}
	req := testRequest()
	req.MaxAttempts = 0
	req.TargetScore = 0
	res, err := newTestPipeline(t, llm, det, &sleepRecorder{}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Attempts != DefaultMaxAttempts || res.HumanScore != 3 {
		t.Fatalf("result = %+v", res)
	}
}

func TestPipelineStopsWhenContextEnds(t *testing.T) {
	agent, _ := NewAgent(&stubLLM{}, identity{}, 0)
	p, _ := NewPipeline(agent, &stubDetector{scores: []float64{10, 20, 30}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, testRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
