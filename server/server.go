// Package server exposes the workflow over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"autoblog/apperr"
	"autoblog/logging"
	"autoblog/state"
	"autoblog/workflow"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultRunTimeout bounds one generation request.
const DefaultRunTimeout = 15 * time.Minute

// Service is the workflow surface the API drives.
type Service interface {
	Run(ctx context.Context, subject string, opts workflow.Options) (workflow.Outcome, error)
	RunNext(ctx context.Context, opts workflow.Options) (workflow.Outcome, workflow.ProgressView, error)
	Progress() (workflow.ProgressView, error)
	ResetProgress(ctx context.Context) (workflow.ProgressView, error)
	Posts() ([]state.Post, error)
}

type Server struct {
	svc        Service
	site       string
	logger     *zap.Logger
	runTimeout time.Duration
}

type Option func(*Server)

// WithRunTimeout caps how long a generation request may run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

func New(svc Service, site string, logger *zap.Logger, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("workflow service required")
	}
	s := &Server{
		svc:        svc,
		site:       site,
		logger:     logging.OrNop(logger),
		runTimeout: DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Routes builds the gin engine. Call gin.SetMode before this to pick the mode.
func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(requestID(), requestLogger(s.logger), recovery(s.logger))

	r.GET("/", s.handleInfo)
	r.GET("/progress", s.handleProgress)
	r.DELETE("/progress", s.handleResetProgress)
	r.POST("/generate", s.handleGenerateNext)
	r.POST("/generate/:subject", s.handleGenerateSubject)
	r.GET("/posts", s.handlePosts)
	return r
}

// --- Handlers ---

type generateReq struct {
	DryRun      bool `json:"dry_run"`
	SkipAICheck bool `json:"skip_ai_check"`
}

type generateResp struct {
	Success bool `json:"success"`
	workflow.Outcome
	Progress *workflow.ProgressView `json:"progress,omitempty"`
}

type progressResp struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message,omitempty"`
	Progress workflow.ProgressView `json:"progress"`
}

type postsResp struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Posts   []state.Post `json:"posts"`
}

type errorResp struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

var endpoints = gin.H{
	"GET /progress":           "current position in the subject rotation",
	"DELETE /progress":        "reset the rotation to the start",
	"POST /generate":          "generate and publish the next subject",
	"POST /generate/:subject": "generate and publish a specific subject",
	"GET /posts":              "published posts used for internal links",
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": "autoblog", "site": s.site, "endpoints": endpoints})
}

func (s *Server) handleProgress(c *gin.Context) {
	view, err := s.svc.Progress()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, progressResp{Success: true, Progress: view})
}

func (s *Server) handleResetProgress(c *gin.Context) {
	view, err := s.svc.ResetProgress(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, progressResp{Success: true, Message: "progress reset to start", Progress: view})
}

func (s *Server) handleGenerateNext(c *gin.Context) {
	opts, ok := s.bindOptions(c)
	if !ok {
		return
	}
	ctx, cancel := s.runContext(c)
	defer cancel()
	out, view, err := s.svc.RunNext(ctx, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, generateResp{Success: true, Outcome: out, Progress: &view})
}

func (s *Server) handleGenerateSubject(c *gin.Context) {
	subject := c.Param("subject")
	if subject == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResp{Error: "subject is required"})
		return
	}
	opts, ok := s.bindOptions(c)
	if !ok {
		return
	}
	ctx, cancel := s.runContext(c)
	defer cancel()
	out, err := s.svc.Run(ctx, subject, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, generateResp{Success: true, Outcome: out})
}

func (s *Server) handlePosts(c *gin.Context) {
	posts, err := s.svc.Posts()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, postsResp{Success: true, Count: len(posts), Posts: posts})
}

// --- Helpers ---

// bindOptions reads the optional JSON body. An empty body means defaults.
func (s *Server) bindOptions(c *gin.Context) (workflow.Options, bool) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResp{Error: "invalid request body: " + err.Error(), RequestID: c.GetString(requestIDKey)})
		return workflow.Options{}, false
	}
	return workflow.Options{DryRun: req.DryRun, SkipDetection: req.SkipAICheck}, true
}

// runContext detaches the run from the client connection so a started run
// finishes even if the caller disconnects; only the timeout stops it.
func (s *Server) runContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), s.runTimeout)
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	s.logger.Error("request failed",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(status, errorResp{Error: err.Error(), RequestID: c.GetString(requestIDKey)})
}

// statusFor maps upstream failures to 502 and everything else to 500.
func statusFor(err error) int {
	if errors.Is(err, apperr.ErrService) || errors.Is(err, apperr.ErrEmptyOutput) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
