// Package workflow sequences research, keyword lookup, generation, publishing
// and ledger recording for one subject, and walks a site's subject rotation.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"autoblog/apperr"
	"autoblog/generator"
	"autoblog/keywords"
	"autoblog/logging"
	"autoblog/profile"
	"autoblog/publisher"
	"autoblog/research"
	"autoblog/state"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxRelatedPosts caps the internal links offered to the model.
const MaxRelatedPosts = 5

// Generator runs the attempt loop for one request.
type Generator interface {
	Run(ctx context.Context, req generator.Request) (generator.Result, error)
}

type Publisher interface {
	Publish(ctx context.Context, art publisher.Article) (publisher.Published, error)
}

// Store is the persisted progress record and post ledger.
type Store interface {
	Progress() (state.Progress, error)
	SaveProgress(ctx context.Context, index int, subject string) (state.Progress, error)
	ResetProgress(ctx context.Context) (state.Progress, error)
	Posts() ([]state.Post, error)
	AppendPost(ctx context.Context, subject, url string, postID int64) (state.Post, error)
	Related(subjects []string, limit int) ([]state.Post, error)
}

// Deps are the collaborators. Publisher may be nil, in which case only dry
// runs succeed.
type Deps struct {
	Research  research.Client
	Keywords  keywords.Client
	Generator Generator
	Publisher Publisher
	Store     Store
}

// Settings carry the generation knobs applied to every request.
type Settings struct {
	TargetScore    float64
	MaxAttempts    int
	CheckDetection bool
	MaxCitations   int
}

// Options vary a single run.
type Options struct {
	DryRun        bool `json:"dry_run"`
	SkipDetection bool `json:"skip_ai_check"`
}

// Outcome summarises a finished run.
type Outcome struct {
	RunID           string           `json:"run_id"`
	Subject         string           `json:"subject"`
	Title           string           `json:"title"`
	WordCount       int              `json:"word_count"`
	HumanScore      float64          `json:"human_score"`
	FakeScore       float64          `json:"ai_score"`
	Attempts        int              `json:"attempts"`
	PassedThreshold bool             `json:"passed_threshold"`
	KeywordCount    int              `json:"keyword_count"`
	CitationCount   int              `json:"citation_count"`
	DryRun          bool             `json:"dry_run"`
	PostID          int64            `json:"wordpress_post_id,omitempty"`
	PostURL         string           `json:"wordpress_post_url,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Result          generator.Result `json:"-"`
}

// Orchestrator runs the workflow for one site profile.
type Orchestrator struct {
	profile  profile.Profile
	deps     Deps
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
	// rotation serialises RunNext so two runs never claim the same index.
	rotation sync.Mutex
}

func New(p profile.Profile, deps Deps, settings Settings, logger *zap.Logger) (*Orchestrator, error) {
	switch {
	case deps.Research == nil:
		return nil, errors.New("research client is required")
	case deps.Keywords == nil:
		return nil, errors.New("keyword client is required")
	case deps.Generator == nil:
		return nil, errors.New("generator is required")
	case deps.Store == nil:
		return nil, errors.New("state store is required")
	}
	if len(p.Subjects) == 0 {
		return nil, fmt.Errorf("profile %s has no subjects", p.Slug)
	}
	return &Orchestrator{
		profile:  p,
		deps:     deps,
		settings: settings,
		logger:   logging.OrNop(logger).With(zap.String("site", p.Slug)),
		now:      time.Now,
	}, nil
}

// Profile returns the site profile the orchestrator writes for.
func (o *Orchestrator) Profile() profile.Profile { return o.profile }

// Run generates one article about subject and, unless opts.DryRun, publishes
// it and records it in the ledger. Any stage failure ends the run with a
// *StageError and leaves the ledger untouched.
func (o *Orchestrator) Run(ctx context.Context, subject string, opts Options) (Outcome, error) {
	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID), zap.String("subject", subject))
	start := o.now()
	log.Info("workflow started", zap.Bool("dry_run", opts.DryRun), zap.Bool("skip_ai_check", opts.SkipDetection))

	fail := func(stage Stage, err error) (Outcome, error) {
		log.Error("workflow failed", zap.String("stage", string(stage)), zap.Error(err))
		return Outcome{}, &StageError{Stage: stage, Subject: subject, Err: err}
	}

	if !opts.DryRun && o.deps.Publisher == nil {
		return fail(StagePublish, apperr.Config("wordpress", "publisher not configured; use a dry run or set wordpress credentials"))
	}

	log.Info("stage started", zap.String("stage", string(StageResearch)))
	citations, err := o.deps.Research.FetchCitations(ctx, subject, o.settings.MaxCitations)
	if err != nil {
		return fail(StageResearch, err)
	}
	log.Info("research complete", zap.Int("paper_count", len(citations)))

	log.Info("stage started", zap.String("stage", string(StageKeywords)))
	kws, err := o.deps.Keywords.Fetch(ctx, subject)
	if err != nil {
		return fail(StageKeywords, err)
	}
	log.Info("keyword research complete", zap.Int("keyword_count", len(kws)))

	related, err := o.relatedPosts(subject)
	if err != nil {
		return fail(StageLinks, err)
	}

	log.Info("stage started", zap.String("stage", string(StageGenerate)))
	res, err := o.deps.Generator.Run(ctx, generator.Request{
		Subject:        subject,
		Profile:        o.profile,
		Keywords:       kws,
		Citations:      citations,
		RelatedPosts:   related,
		TargetScore:    o.settings.TargetScore,
		MaxAttempts:    o.settings.MaxAttempts,
		CheckDetection: o.settings.CheckDetection && !opts.SkipDetection,
	})
	if err != nil {
		return fail(StageGenerate, err)
	}
	log.Info("content generated",
		zap.Int("word_count", res.WordCount),
		zap.Float64("human_score", res.HumanScore),
		zap.Int("attempts", res.Attempts),
		zap.Bool("passed_threshold", res.PassedThreshold),
	)

	out := Outcome{
		RunID:           runID,
		Subject:         subject,
		Title:           res.Title,
		WordCount:       res.WordCount,
		HumanScore:      res.HumanScore,
		FakeScore:       res.FakeScore,
		Attempts:        res.Attempts,
		PassedThreshold: res.PassedThreshold,
		KeywordCount:    len(kws),
		CitationCount:   len(citations),
		DryRun:          opts.DryRun,
		GeneratedAt:     o.now().UTC(),
		Result:          res,
	}

	if opts.DryRun {
		log.Info("skipping publish (dry run)")
	} else {
		log.Info("stage started", zap.String("stage", string(StagePublish)))
		pub, err := o.deps.Publisher.Publish(ctx, publisher.Article{
			Title:           res.Title,
			HTML:            res.HTML,
			MetaDescription: res.MetaDescription,
		})
		if err != nil {
			return fail(StagePublish, err)
		}
		if _, err := o.deps.Store.AppendPost(ctx, subject, pub.PostURL, pub.PostID); err != nil {
			return fail(StageRecord, err)
		}
		out.PostID = pub.PostID
		out.PostURL = pub.PostURL
		log.Info("published", zap.Int64("post_id", pub.PostID), zap.String("post_url", pub.PostURL))
	}

	log.Info("workflow complete", zap.Duration("elapsed", o.now().Sub(start)))
	return out, nil
}

func (o *Orchestrator) relatedPosts(subject string) ([]generator.RelatedPost, error) {
	subjects := o.profile.Related(subject)
	if len(subjects) == 0 {
		return nil, nil
	}
	posts, err := o.deps.Store.Related(subjects, MaxRelatedPosts)
	if err != nil {
		return nil, err
	}
	out := make([]generator.RelatedPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, generator.RelatedPost{Subject: p.Subject, URL: p.URL})
	}
	return out, nil
}

// Posts returns the published-post ledger.
func (o *Orchestrator) Posts() ([]state.Post, error) {
	return o.deps.Store.Posts()
}
