package keywords

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"autoblog/logging"
)

// Client fetches the ranked keyword list for a subject.
type Client interface {
	Fetch(ctx context.Context, subject string) ([]KeywordScore, error)
}

// Settings configures the live keyword service.
type Settings struct {
	Username     string
	Password     string
	BaseURL      string
	LocationName string
	LanguageCode string
	Limit        int
	Depth        int
	TopK         int
}

// NewClient picks the live service when credentials are present and the
// static fallback otherwise. The choice is made once, here.
func NewClient(s Settings, httpClient *http.Client, logger *zap.Logger) Client {
	logger = logging.OrNop(logger)
	if strings.TrimSpace(s.Username) == "" || strings.TrimSpace(s.Password) == "" {
		logger.Warn("dataforseo credentials not set, using static keyword data")
		return Fallback{TopK: s.TopK, Logger: logger}
	}
	return NewDataForSEO(s, httpClient, logger)
}

// Fallback serves a deterministic keyword set derived from the subject.
type Fallback struct {
	TopK   int
	Logger *zap.Logger
}

func (f Fallback) Fetch(_ context.Context, subject string) ([]KeywordScore, error) {
	logging.OrNop(f.Logger).Info("using static keyword data", zap.String("subject", subject))
	return FallbackKeywords(subject, f.TopK), nil
}

// FallbackKeywords returns the five templated variants of subject, scored and ranked.
func FallbackKeywords(subject string, topK int) []KeywordScore {
	base := strings.ToLower(strings.TrimSpace(subject))
	if base == "" {
		base = "supplement"
	}
	raw := []KeywordScore{
		{Keyword: base, SearchVolume: 8100, Difficulty: 45, Competition: CompetitionMedium},
		{Keyword: fmt.Sprintf("%s benefits", base), SearchVolume: 3600, Difficulty: 42, Competition: CompetitionMedium},
		{Keyword: fmt.Sprintf("%s research", base), SearchVolume: 2900, Difficulty: 35, Competition: CompetitionLow},
		{Keyword: fmt.Sprintf("%s studies", base), SearchVolume: 2400, Difficulty: 33, Competition: CompetitionLow},
		{Keyword: fmt.Sprintf("what is %s", base), SearchVolume: 1500, Difficulty: 28, Competition: CompetitionLow},
	}
	for i := range raw {
		raw[i].Intent = "Informational"
		raw[i] = raw[i].Scored()
	}
	ranked := Rank(raw, topK)
	if len(ranked) == 0 {
		// penalty terms in the subject can zero every variant; keep the base entry
		first := raw[0]
		first.OpportunityScore = 1
		ranked = []KeywordScore{first}
	}
	return ranked
}
