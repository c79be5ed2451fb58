package research

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"autoblog/apperr"
	"autoblog/logging"
)

const serviceName = "pubmed"

// Citation is one bibliographic record handed to the generator.
type Citation struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Venue    string   `json:"venue"`
	Year     string   `json:"year"`
	URL      string   `json:"url"`
}

// Client fetches citations for a subject.
type Client interface {
	FetchCitations(ctx context.Context, subject string, maxResults int) ([]Citation, error)
}

// PubMed talks to the NCBI E-utilities esearch/efetch endpoints.
type PubMed struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewPubMed(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *PubMed {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &PubMed{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  httpClient,
		logger:  logging.OrNop(logger),
	}
}

// FetchCitations searches for paper ids then fetches their details.
// No hits is an empty slice, not an error.
func (p *PubMed) FetchCitations(ctx context.Context, subject string, maxResults int) ([]Citation, error) {
	p.logger.Info("fetching pubmed research", zap.String("subject", subject), zap.Int("max_results", maxResults))

	ids, err := p.search(ctx, subject, maxResults)
	if err != nil {
		p.logger.Error("pubmed search failed", zap.String("subject", subject), zap.Error(err))
		return nil, apperr.Service(serviceName, err)
	}
	if len(ids) == 0 {
		p.logger.Info("pubmed search found nothing", zap.String("subject", subject))
		return []Citation{}, nil
	}

	citations, err := p.fetch(ctx, ids)
	if err != nil {
		p.logger.Error("pubmed fetch failed", zap.String("subject", subject), zap.Error(err))
		return nil, apperr.Service(serviceName, err)
	}
	p.logger.Info("pubmed research completed",
		zap.String("subject", subject),
		zap.Int("paper_count", len(citations)),
		zap.Int("recent_papers", RecentCount(citations, 2020)),
	)
	return citations, nil
}

func (p *PubMed) search(ctx context.Context, subject string, maxResults int) ([]string, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", subject)
	q.Set("retmax", strconv.Itoa(maxResults))
	q.Set("retmode", "json")
	body, err := p.get(ctx, "/esearch.fcgi", q)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("esearch: invalid json response")
	}
	var ids []string
	for _, id := range gjson.GetBytes(body, "esearchresult.idlist").Array() {
		if s := strings.TrimSpace(id.String()); s != "" {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (p *PubMed) fetch(ctx context.Context, ids []string) ([]Citation, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	body, err := p.get(ctx, "/efetch.fcgi", q)
	if err != nil {
		return nil, err
	}
	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("efetch: parse xml: %w", err)
	}
	out := make([]Citation, 0, len(set.Articles))
	for _, a := range set.Articles {
		out = append(out, a.citation())
	}
	return out, nil
}

func (p *PubMed) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
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
	return body, nil
}

// RecentCount counts citations published in or after year.
func RecentCount(citations []Citation, year int) int {
	n := 0
	for _, c := range citations {
		if y, err := strconv.Atoi(c.Year); err == nil && y >= year {
			n++
		}
	}
	return n
}
