package keywords

import (
	"math"
	"strings"
)

// Competition is the vendor's competition bucket for a keyword.
type Competition string

const (
	CompetitionLow     Competition = "Low"
	CompetitionMedium  Competition = "Medium"
	CompetitionHigh    Competition = "High"
	CompetitionUnknown Competition = "Unknown"
)

// ParseCompetition maps vendor strings such as "LOW" onto a Competition.
func ParseCompetition(s string) Competition {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return CompetitionLow
	case "medium":
		return CompetitionMedium
	case "high":
		return CompetitionHigh
	default:
		return CompetitionUnknown
	}
}

// KeywordScore is one ranked keyword.
type KeywordScore struct {
	Keyword          string      `json:"keyword"`
	SearchVolume     int         `json:"search_volume"`
	Difficulty       float64     `json:"difficulty"`
	Competition      Competition `json:"competition"`
	Intent           string      `json:"intent"`
	OpportunityScore int         `json:"opportunity_score"`
}

type multiplier struct {
	terms  []string
	factor float64
}

// Applied in order; every matching rule compounds.
var (
	boosts = []multiplier{
		{terms: []string{"supplement", "research"}, factor: 2.5},
		{terms: []string{"benefits", "effects"}, factor: 1.8},
		{terms: []string{"studies", "clinical"}, factor: 1.5},
	}
	penalties = []multiplier{
		{terms: []string{"buy", "amazon", "walmart", "ebay"}, factor: 0.2},
		{terms: []string{"dosage", "calculator"}, factor: 0.1},
		{terms: []string{"price", "cost"}, factor: 0.3},
	}
)

// Score computes the opportunity score: volume / (difficulty+1) adjusted by
// relevance boosts, competition and transactional penalties, rounded.
// A blank keyword or zero volume scores 0.
func Score(keyword string, volume int, difficulty float64, competition Competition) int {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" || volume <= 0 {
		return 0
	}
	if difficulty < 0 {
		difficulty = 0
	}
	score := float64(volume) / (difficulty + 1)

	for _, m := range boosts {
		if containsAny(kw, m.terms) {
			score *= m.factor
		}
	}
	switch competition {
	case CompetitionLow:
		score *= 1.5
	case CompetitionHigh:
		score *= 0.7
	}
	for _, m := range penalties {
		if containsAny(kw, m.terms) {
			score *= m.factor
		}
	}
	return int(math.Floor(score + 0.5))
}

// Scored fills in OpportunityScore from the other fields.
func (k KeywordScore) Scored() KeywordScore {
	k.OpportunityScore = Score(k.Keyword, k.SearchVolume, k.Difficulty, k.Competition)
	return k
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
