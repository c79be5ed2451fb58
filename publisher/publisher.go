// Package publisher posts finished articles to a WordPress site through the
// REST API using an application password.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autoblog/apperr"
	"autoblog/logging"

	"go.uber.org/zap"
)

const (
	serviceName   = "wordpress"
	postsPath     = "/wp-json/wp/v2/posts"
	defaultStatus = "draft"
)

// Config holds the WordPress endpoint and credentials.
type Config struct {
	URL         string `json:"url"`
	Username    string `json:"username"`
	AppPassword string `json:"app_password"`
	// Status is the post status to create with; empty means draft.
	Status string `json:"status,omitempty"`
}

// Article describes the content to be published.
type Article struct {
	Title           string
	HTML            string
	MetaDescription string
}

// Published identifies the created post.
type Published struct {
	PostID  int64  `json:"post_id"`
	PostURL string `json:"post_url"`
}

type createPostPayload struct {
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Status  string            `json:"status"`
	Excerpt string            `json:"excerpt,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type createPostResp struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// Publisher creates posts on one WordPress site.
type Publisher struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New validates cfg and returns a Publisher.
func New(cfg Config, client *http.Client, logger *zap.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" || cfg.Username == "" || cfg.AppPassword == "" {
		return nil, apperr.Config(serviceName, "credentials not configured; set wordpress.url, username and app_password")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Status == "" {
		cfg.Status = defaultStatus
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Publisher{cfg: cfg, client: client, logger: logging.OrNop(logger)}, nil
}

// Publish creates a post and returns its id and permalink.
func (p *Publisher) Publish(ctx context.Context, art Article) (Published, error) {
	if strings.TrimSpace(art.Title) == "" || strings.TrimSpace(art.HTML) == "" {
		return Published{}, errors.New("title and html body are required")
	}
	p.logger.Info("publishing to wordpress", zap.String("title", art.Title), zap.String("status", p.cfg.Status))

	payload := createPostPayload{
		Title:   art.Title,
		Content: art.HTML,
		Status:  p.cfg.Status,
		Excerpt: art.MetaDescription,
		Meta: map[string]string{
			"_yoast_wpseo_metadesc": art.MetaDescription,
			"_yoast_wpseo_title":    art.Title,
		},
	}
	out, err := p.createPost(ctx, payload)
	if err != nil {
		p.logger.Error("wordpress publishing failed", zap.String("title", art.Title), zap.Error(err))
		return Published{}, apperr.Service(serviceName, err)
	}
	p.logger.Info("post published", zap.Int64("post_id", out.ID), zap.String("post_url", out.Link))
	return Published{PostID: out.ID, PostURL: out.Link}, nil
}

func (p *Publisher) createPost(ctx context.Context, payload createPostPayload) (createPostResp, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return createPostResp{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+postsPath, bytes.NewReader(body))
	if err != nil {
		return createPostResp{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.cfg.Username, p.cfg.AppPassword)

	resp, err := p.client.Do(req)
	if err != nil {
		return createPostResp{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return createPostResp{}, &apperr.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	var data createPostResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return createPostResp{}, fmt.Errorf("decode post: %w", err)
	}
	if data.ID == 0 {
		return createPostResp{}, errors.New("wordpress returned no post id")
	}
	return data, nil
}
