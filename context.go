package main

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"autoblog/apperr"
	"autoblog/config"
	"autoblog/detector"
	"autoblog/generator"
	"autoblog/keywords"
	"autoblog/logging"
	"autoblog/profile"
	"autoblog/publisher"
	"autoblog/research"
	"autoblog/state"
	"autoblog/workflow"

	"go.uber.org/zap"
)

const httpTimeout = 60 * time.Second

// commandContext builds collaborators on first use and shares them between
// subcommands of one invocation.
type commandContext struct {
	configFlag *string
	siteFlag   *string
	verbose    *bool

	once   sync.Once
	cfg    config.Config
	logger *zap.Logger
	site   profile.Profile
	store  *state.Store
	err    error

	orchOnce sync.Once
	orch     *workflow.Orchestrator
	orchErr  error
}

func newCommandContext(configFlag, siteFlag *string, verbose *bool) *commandContext {
	return &commandContext{configFlag: configFlag, siteFlag: siteFlag, verbose: verbose}
}

func (c *commandContext) ensureBase() error {
	c.once.Do(func() {
		cfg, err := config.LoadConfig(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.err = err
			return
		}
		level := cfg.Log.Level
		if c.verbose != nil && *c.verbose {
			level = "debug"
		}
		logger, err := logging.New(cfg.Log.Mode, level)
		if err != nil {
			c.err = err
			return
		}
		reg, err := profile.Load(cfg.ProfilesDir)
		if err != nil {
			c.err = err
			return
		}
		slug := cfg.Site
		if s := strings.TrimSpace(*c.siteFlag); s != "" {
			slug = s
		}
		site, err := reg.Get(slug)
		if err != nil {
			c.err = err
			return
		}
		store, err := state.Open(cfg.StateDir)
		if err != nil {
			c.err = err
			return
		}
		c.cfg, c.logger, c.site, c.store = cfg, logger, site, store
	})
	return c.err
}

func (c *commandContext) httpClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

func (c *commandContext) keywordClient() (keywords.Client, error) {
	if err := c.ensureBase(); err != nil {
		return nil, err
	}
	d := c.cfg.DataForSEO
	return keywords.NewClient(keywords.Settings{
		Username:     d.Username,
		Password:     d.Password,
		BaseURL:      d.BaseURL,
		LocationName: d.LocationName,
		LanguageCode: d.LanguageCode,
		Limit:        d.Limit,
		Depth:        d.Depth,
		TopK:         d.TopK,
	}, c.httpClient(), c.logger.Named("keywords")), nil
}

// orchestrator wires the full workflow for the selected site.
func (c *commandContext) orchestrator() (*workflow.Orchestrator, error) {
	c.orchOnce.Do(func() {
		if err := c.ensureBase(); err != nil {
			c.orchErr = err
			return
		}
		cfg, logger := c.cfg, c.logger
		hc := c.httpClient()

		kw, _ := c.keywordClient()
		agent, err := generator.NewAgent(buildLLM(cfg.LLM), nil, *cfg.Generation.TemperatureStep)
		if err != nil {
			c.orchErr = err
			return
		}
		det := detector.NewZeroGPT(cfg.ZeroGPT.BaseURL, cfg.ZeroGPT.APIKey, hc, logger.Named("zerogpt"))
		pipeline, err := generator.NewPipeline(agent, det,
			generator.WithLogger(logger.Named("generator")),
			generator.WithRetryDelay(time.Duration(cfg.Generation.RetryDelayMS)*time.Millisecond),
		)
		if err != nil {
			c.orchErr = err
			return
		}

		deps := workflow.Deps{
			Research:  research.NewPubMed(cfg.PubMed.BaseURL, cfg.PubMed.APIKey, hc, logger.Named("pubmed")),
			Keywords:  kw,
			Generator: pipeline,
			Store:     c.store,
		}
		pub, err := publisher.New(publisher.Config{
			URL:         cfg.WordPress.URL,
			Username:    cfg.WordPress.Username,
			AppPassword: cfg.WordPress.AppPassword,
			Status:      cfg.WordPress.Status,
		}, hc, logger.Named("wordpress"))
		switch {
		case err == nil:
			deps.Publisher = pub
		case errors.Is(err, apperr.ErrConfiguration):
			logger.Warn("wordpress not configured, only dry runs will succeed", zap.Error(err))
		default:
			c.orchErr = err
			return
		}

		c.orch, c.orchErr = workflow.New(c.site, deps, workflow.Settings{
			TargetScore:    cfg.Generation.TargetScore,
			MaxAttempts:    cfg.Generation.MaxAttempts,
			CheckDetection: cfg.CheckDetectionEnabled(),
			MaxCitations:   cfg.PubMed.MaxResults,
		}, logger.Named("workflow"))
	})
	return c.orch, c.orchErr
}

func (c *commandContext) sync() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
