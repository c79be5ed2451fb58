package generator

import (
	"context"
	"errors"
	"math"
	"time"

	"autoblog/apperr"
	"autoblog/detector"
	"autoblog/logging"

	"go.uber.org/zap"
)

const (
	DefaultTargetScore     = 75.0
	DefaultMaxAttempts     = 3
	DefaultRetryDelay      = time.Second
	DefaultTemperatureStep = 0.05
)

// Sleeper waits between attempts and returns early when ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pipeline runs generate, humanize and detect until an attempt clears the
// threshold or the attempt budget is spent.
type Pipeline struct {
	agent    *Agent
	detector detector.Detector
	logger   *zap.Logger
	delay    time.Duration
	sleep    Sleeper
}

type PipelineOption func(*Pipeline)

func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = logging.OrNop(l) }
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.delay = d }
}

func WithSleeper(s Sleeper) PipelineOption {
	return func(p *Pipeline) {
		if s != nil {
			p.sleep = s
		}
	}
}

// NewPipeline builds a pipeline. det is used only for requests with
// detection enabled; it may be nil when every request disables it.
func NewPipeline(agent *Agent, det detector.Detector, opts ...PipelineOption) (*Pipeline, error) {
	if agent == nil {
		return nil, errors.New("generator agent is required")
	}
	p := &Pipeline{
		agent:    agent,
		detector: det,
		logger:   zap.NewNop(),
		delay:    DefaultRetryDelay,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// detectorFor picks the detection variant once per request.
func (p *Pipeline) detectorFor(req Request) (detector.Detector, error) {
	if !req.CheckDetection {
		return detector.Disabled{}, nil
	}
	if p.detector == nil {
		return nil, apperr.Config("detector", "detection enabled but no detector configured")
	}
	return p.detector, nil
}

// Run executes the attempt loop. Generation and detection errors end the run
// at once and discard any earlier attempts; a low score only triggers a retry.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	target := req.TargetScore
	if target <= 0 {
		target = DefaultTargetScore
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	det, err := p.detectorFor(req)
	if err != nil {
		return Result{}, err
	}
	log := p.logger.With(zap.String("subject", req.Subject), zap.Float64("target_score", target))

	var best Attempt
	bestScore := math.Inf(-1)
	for attempt := 1; ; attempt++ {
		log.Info("generation attempt", zap.Int("attempt", attempt), zap.Int("max_attempts", maxAttempts))

		a, err := p.agent.Generate(ctx, req, attempt)
		if err != nil {
			log.Error("generation failed", zap.Int("attempt", attempt), zap.Error(err))
			return Result{}, err
		}
		verdict, err := det.Detect(ctx, a.PlainText)
		if err != nil {
			log.Error("detection failed", zap.Int("attempt", attempt), zap.Error(err))
			return Result{}, err
		}
		a.HumanScore = verdict.HumanScore
		a.FakeScore = verdict.FakeScore
		a.Feedback = verdict.Feedback
		a.Passed = verdict.Passes(target)

		log.Info("detection complete",
			zap.Int("attempt", attempt),
			zap.Float64("human_score", a.HumanScore),
			zap.Float64("fake_score", a.FakeScore),
			zap.Int("word_count", a.WordCount),
			zap.Bool("bypassed", verdict.Bypassed),
		)

		if a.Passed {
			log.Info("target score reached", zap.Int("attempt", attempt), zap.Float64("human_score", a.HumanScore))
			return Result{Attempt: a, PassedThreshold: true, Attempts: attempt}, nil
		}
		// 严格大于：同分保留更早的尝试。
		if a.HumanScore > bestScore {
			bestScore = a.HumanScore
			best = a
		}
		if attempt >= maxAttempts {
			log.Warn("target not reached, returning best attempt",
				zap.Int("best_attempt", best.Number),
				zap.Float64("best_score", bestScore),
				zap.Int("attempts", attempt),
			)
			return Result{Attempt: best, PassedThreshold: false, Attempts: attempt}, nil
		}
		log.Warn("below target, retrying", zap.Int("attempt", attempt), zap.Float64("human_score", a.HumanScore))
		if err := p.sleep(ctx, p.delay); err != nil {
			return Result{}, err
		}
	}
}
