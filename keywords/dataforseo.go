package keywords

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"autoblog/apperr"
	"autoblog/logging"
)

const (
	serviceName     = "dataforseo"
	suggestionsPath = "/v3/dataforseo_labs/google/keyword_suggestions/live"
	relatedPath     = "/v3/dataforseo_labs/google/related_keywords/live"
	missingKD       = 99
)

// DataForSEO queries keyword suggestions and related keywords and ranks the union.
type DataForSEO struct {
	settings Settings
	client   *http.Client
	logger   *zap.Logger
	fallback Fallback
}

func NewDataForSEO(s Settings, httpClient *http.Client, logger *zap.Logger) *DataForSEO {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger = logging.OrNop(logger)
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	return &DataForSEO{
		settings: s,
		client:   httpClient,
		logger:   logger,
		fallback: Fallback{TopK: s.TopK, Logger: logger},
	}
}

type suggestionsTask struct {
	Keyword      string `json:"keyword"`
	LocationName string `json:"location_name"`
	LanguageCode string `json:"language_code"`
	Limit        int    `json:"limit"`
	Depth        int    `json:"depth,omitempty"`
}

// Fetch returns the top-K keywords. Rejected credentials (401) degrade to
// the static set; any other failure is a service error.
func (d *DataForSEO) Fetch(ctx context.Context, subject string) ([]KeywordScore, error) {
	d.logger.Info("fetching keyword research", zap.String("subject", subject))

	var suggestions, related []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := d.post(gctx, suggestionsPath, suggestionsTask{
			Keyword:      subject,
			LocationName: d.settings.LocationName,
			LanguageCode: d.settings.LanguageCode,
			Limit:        d.settings.Limit,
		})
		suggestions = body
		return err
	})
	g.Go(func() error {
		body, err := d.post(gctx, relatedPath, suggestionsTask{
			Keyword:      subject,
			LocationName: d.settings.LocationName,
			LanguageCode: d.settings.LanguageCode,
			Limit:        d.settings.Limit,
			Depth:        d.settings.Depth,
		})
		related = body
		return err
	})
	if err := g.Wait(); err != nil {
		if apperr.StatusCode(err) == http.StatusUnauthorized {
			d.logger.Warn("dataforseo credentials rejected, using static keyword data", zap.String("subject", subject))
			return d.fallback.Fetch(ctx, subject)
		}
		d.logger.Error("dataforseo request failed", zap.String("subject", subject), zap.Error(err))
		return nil, apperr.Service(serviceName, err)
	}

	raw := append(extractKeywords(suggestions), extractKeywords(related)...)
	top := Rank(raw, d.settings.TopK)

	fields := []zap.Field{
		zap.String("subject", subject),
		zap.Int("raw_keywords", len(raw)),
		zap.Int("top_keywords", len(top)),
	}
	if len(top) > 0 {
		fields = append(fields, zap.Int("top_score", top[0].OpportunityScore))
	}
	d.logger.Info("keyword research completed", fields...)

	if len(top) == 0 {
		d.logger.Warn("dataforseo returned no usable keywords, using static keyword data", zap.String("subject", subject))
		return d.fallback.Fetch(ctx, subject)
	}
	return top, nil
}

func (d *DataForSEO) post(ctx context.Context, path string, task suggestionsTask) ([]byte, error) {
	payload, err := json.Marshal([]suggestionsTask{task})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.settings.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(d.settings.Username, d.settings.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: invalid json response", path)
	}
	// task-level status codes are reported inside a 200 envelope
	if code := gjson.GetBytes(body, "tasks.0.status_code").Int(); code == 40100 || code == 40101 {
		return nil, &apperr.StatusError{StatusCode: http.StatusUnauthorized, Body: gjson.GetBytes(body, "tasks.0.status_message").String()}
	}
	return body, nil
}

func extractKeywords(body []byte) []KeywordScore {
	var out []KeywordScore
	gjson.GetBytes(body, "tasks.0.result.0.items").ForEach(func(_, item gjson.Result) bool {
		kd := item.Get("keyword_data")
		if !kd.Exists() {
			return true
		}
		keyword := kd.Get("keyword").String()
		if keyword == "" {
			return true
		}
		difficulty := float64(missingKD)
		if v := kd.Get("keyword_properties.keyword_difficulty"); v.Exists() && v.Type == gjson.Number && v.Float() > 0 {
			difficulty = v.Float()
		}
		intent := kd.Get("search_intent_info.main_intent").String()
		if intent == "" {
			intent = "Unknown"
		}
		out = append(out, KeywordScore{
			Keyword:      keyword,
			SearchVolume: int(kd.Get("keyword_info.search_volume").Int()),
			Difficulty:   difficulty,
			Competition:  ParseCompetition(kd.Get("keyword_info.competition_level").String()),
			Intent:       intent,
		}.Scored())
		return true
	})
	return out
}
