package keywords

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name        string
		keyword     string
		volume      int
		difficulty  float64
		competition Competition
		want        int
	}{
		{"zero volume", "creatine research", 0, 10, CompetitionLow, 0},
		{"blank keyword", "  ", 1000, 10, CompetitionLow, 0},
		{"plain medium", "creatine", 8100, 45, CompetitionMedium, 176},
		{"research low", "creatine research", 2900, 35, CompetitionLow, 302},
		{"benefits medium", "creatine benefits", 3600, 42, CompetitionMedium, 151},
		{"high competition", "creatine", 1000, 9, CompetitionHigh, 70},
		{"unknown competition", "creatine", 1000, 9, CompetitionUnknown, 100},
		{"buy penalty", "buy creatine", 1000, 9, CompetitionMedium, 20},
		{"marketplace penalty", "creatine amazon", 1000, 9, CompetitionMedium, 20},
		{"dosage penalty", "creatine dosage", 1000, 9, CompetitionMedium, 10},
		{"case insensitive", "Creatine RESEARCH", 1000, 9, CompetitionMedium, 250},
		{"stacked boosts", "cheap creatine research studies", 1000, 9, CompetitionMedium, 375},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.keyword, tc.volume, tc.difficulty, tc.competition)
			if got != tc.want {
				t.Fatalf("Score(%q) = %d, want %d", tc.keyword, got, tc.want)
			}
		})
	}
}

func TestScoreBoostAndPenaltyCompound(t *testing.T) {
	volume, difficulty := 5000, 24.0
	got := Score("creatine research price", volume, difficulty, CompetitionMedium)
	want := int(math.Floor(float64(volume)/(difficulty+1)*2.5*0.3 + 0.5))
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestScoreZeroVolumeAlwaysZero(t *testing.T) {
	for _, kw := range []string{"creatine", "creatine supplement benefits studies", "buy creatine"} {
		for _, c := range []Competition{CompetitionLow, CompetitionMedium, CompetitionHigh, CompetitionUnknown} {
			if got := Score(kw, 0, 5, c); got != 0 {
				t.Fatalf("Score(%q, 0) = %d", kw, got)
			}
		}
	}
}

func TestParseCompetition(t *testing.T) {
	cases := map[string]Competition{
		"LOW":    CompetitionLow,
		"medium": CompetitionMedium,
		"High":   CompetitionHigh,
		"":       CompetitionUnknown,
		"weird":  CompetitionUnknown,
	}
	for in, want := range cases {
		if got := ParseCompetition(in); got != want {
			t.Fatalf("ParseCompetition(%q) = %q, want %q", in, got, want)
		}
	}
}
