package keywords

import (
	"sort"
	"strings"
)

// Rank drops zero scores, deduplicates case-insensitively (first occurrence
// wins), sorts by opportunity score descending keeping input order on ties,
// and truncates to topK. topK <= 0 keeps everything.
func Rank(in []KeywordScore, topK int) []KeywordScore {
	seen := make(map[string]struct{}, len(in))
	out := make([]KeywordScore, 0, len(in))
	for _, k := range in {
		if k.OpportunityScore <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(k.Keyword))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpportunityScore > out[j].OpportunityScore
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// TotalVolume sums search volume across the list.
func TotalVolume(list []KeywordScore) int {
	total := 0
	for _, k := range list {
		total += k.SearchVolume
	}
	return total
}
