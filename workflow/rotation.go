package workflow

import (
	"context"
	"math"

	"autoblog/state"

	"go.uber.org/zap"
)

// ProgressView is the stored progress plus where the rotation goes next.
type ProgressView struct {
	state.Progress
	NextIndex       int     `json:"nextIndex"`
	NextSubject     string  `json:"nextSubject"`
	TotalSubjects   int     `json:"totalSubjects"`
	PercentComplete float64 `json:"percentComplete"`
}

func (o *Orchestrator) view(p state.Progress) ProgressView {
	total := len(o.profile.Subjects)
	next := nextIndex(p.LastIndex, total)
	subject, _ := o.profile.SubjectAt(next)
	pct := float64(next) / float64(total) * 100
	return ProgressView{
		Progress:        p,
		NextIndex:       next,
		NextSubject:     subject,
		TotalSubjects:   total,
		PercentComplete: math.Floor(pct*10+0.5) / 10,
	}
}

func nextIndex(last, total int) int {
	n := (last + 1) % total
	if n < 0 {
		n += total
	}
	return n
}

// Progress reports the rotation position.
func (o *Orchestrator) Progress() (ProgressView, error) {
	p, err := o.deps.Store.Progress()
	if err != nil {
		return ProgressView{}, err
	}
	return o.view(p), nil
}

// ResetProgress starts the rotation over.
func (o *Orchestrator) ResetProgress(ctx context.Context) (ProgressView, error) {
	p, err := o.deps.Store.ResetProgress(ctx)
	if err != nil {
		return ProgressView{}, err
	}
	o.logger.Info("progress reset")
	return o.view(p), nil
}

// RunNext runs the next subject in the rotation and advances the progress
// record once the run succeeds. A failed run leaves progress unchanged.
func (o *Orchestrator) RunNext(ctx context.Context, opts Options) (Outcome, ProgressView, error) {
	o.rotation.Lock()
	defer o.rotation.Unlock()

	cur, err := o.deps.Store.Progress()
	if err != nil {
		return Outcome{}, ProgressView{}, &StageError{Stage: StageProgress, Err: err}
	}
	v := o.view(cur)
	o.logger.Info("rotation run",
		zap.String("subject", v.NextSubject),
		zap.Int("index", v.NextIndex),
		zap.Int("total", v.TotalSubjects),
	)

	out, err := o.Run(ctx, v.NextSubject, opts)
	if err != nil {
		return Outcome{}, v, err
	}
	saved, err := o.deps.Store.SaveProgress(ctx, v.NextIndex, v.NextSubject)
	if err != nil {
		return out, v, &StageError{Stage: StageProgress, Subject: v.NextSubject, Err: err}
	}
	return out, o.view(saved), nil
}
