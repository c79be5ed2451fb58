// Package humanizer rewrites generated prose so it reads less like model output.
//
// Stages run in a fixed order: casual word substitution, long-sentence
// splitting, contractions, conversational transitions and transition
// variation. Only the first stage is deterministic.
package humanizer

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rand is the random source consumed by the randomized stages.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Options toggles individual stages. The zero value disables everything;
// use DefaultOptions for the full pass.
type Options struct {
	CasualWords        bool
	SplitLongSentences bool
	AddQuirks          bool
	AddVariation       bool
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	return Options{CasualWords: true, SplitLongSentences: true, AddQuirks: true, AddVariation: true}
}

const (
	splitProbability       = 0.5
	contractionProbability = 0.1
	transitionProbability  = 0.3
	variationProbability   = 0.5
	minCommasToSplit       = 3
)

type replacement struct {
	from, to string
}

var formalToCasual = []replacement{
	{"Additionally,", "Also,"},
	{"Furthermore,", "Plus,"},
	{"Moreover,", "What's more,"},
	{"Consequently,", "So,"},
	{"Nevertheless,", "Still,"},
	{"Thus,", "So,"},
	{"Therefore,", "So,"},
	{"has been demonstrated to", "has been shown to"},
	{"has been observed to", "appears to"},
	{"it is important to note that", "note that"},
	{"it should be noted that", ""},
	{"In order to", "To"},
	{"due to the fact that", "because"},
	{"in the event that", "if"},
	{"is able to", "can"},
	{"are able to", "can"},
}

type contraction struct {
	pattern *regexp.Regexp
	to      string
}

var contractions = []contraction{
	{regexp.MustCompile(`(?i)it is known`), "it's known"},
	{regexp.MustCompile(`(?i)that is`), "that's"},
	{regexp.MustCompile(`(?i)there is`), "there's"},
	{regexp.MustCompile(`(?i)what is`), "what's"},
}

var transitions = []replacement{
	{". In fact,", ". And in fact,"},
	{". However,", ". But"},
}

type variation struct {
	phrase   string
	variants []string
}

var transitionVariants = []variation{
	{"In fact,", []string{"Indeed,", "Actually,", "What's more,"}},
	{"For instance,", []string{"For example,", "Take for instance,", "Consider:"}},
	{"For example,", []string{"For instance,", "Like:", "Such as:"}},
	{"Additionally,", []string{"Also,", "Plus,", "What's more,"}},
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Humanizer applies the stages with its own random source.
type Humanizer struct {
	opts Options
	rnd  Rand
}

// globalRand draws from the package-level source, which is safe for
// concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// New returns a Humanizer. A nil rnd uses the unseeded global source, so the
// result may be shared between goroutines; a supplied rnd must not be.
func New(opts Options, rnd Rand) *Humanizer {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Humanizer{opts: opts, rnd: rnd}
}

// Default applies every stage with a fresh random source.
func Default() *Humanizer {
	return New(DefaultOptions(), nil)
}

// Humanize runs the enabled stages in order.
func (h *Humanizer) Humanize(text string) string {
	if h.opts.CasualWords {
		text = CasualWords(text)
	}
	if h.opts.SplitLongSentences {
		text = h.SplitLongSentences(text)
	}
	if h.opts.AddQuirks {
		text = h.Contractions(text)
		text = h.Transitions(text)
	}
	if h.opts.AddVariation {
		text = h.VaryTransitions(text)
	}
	return text
}

// CasualWords replaces formal connectives with casual ones, literally and
// case-sensitively.
func CasualWords(text string) string {
	for _, r := range formalToCasual {
		text = strings.ReplaceAll(text, r.from, r.to)
	}
	return text
}

// SplitLongSentences turns one comma into a sentence break in sentences
// carrying at least three commas, each with probability 0.5.
func (h *Humanizer) SplitLongSentences(text string) string {
	spans := sentencePattern.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(spans))
	last := 0
	for _, span := range spans {
		b.WriteString(text[last:span[0]])
		b.WriteString(h.splitSentence(text[span[0]:span[1]]))
		last = span[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func (h *Humanizer) splitSentence(sentence string) string {
	commas := commaOffsets(sentence)
	if len(commas) < minCommasToSplit {
		return sentence
	}
	if h.rnd.Float64() >= splitProbability {
		return sentence
	}
	at := commas[h.rnd.IntN(len(commas))]
	if at == 0 {
		return sentence
	}
	return sentence[:at] + "." + capitalizeNext(sentence[at+1:])
}

func commaOffsets(s string) []int {
	var out []int
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, i)
		}
	}
	return out
}

// capitalizeNext upper-cases the first letter after any leading whitespace.
func capitalizeNext(s string) string {
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if !unicode.IsLetter(r) {
			return s
		}
		upper := unicode.ToUpper(r)
		if upper == r {
			return s
		}
		return s[:i] + string(upper) + s[i+utf8.RuneLen(r):]
	}
	return s
}

// Contractions contracts the first case-insensitive match of each full form,
// each phrase with probability 0.1.
func (h *Humanizer) Contractions(text string) string {
	for _, c := range contractions {
		if h.rnd.Float64() >= contractionProbability {
			continue
		}
		loc := c.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		text = text[:loc[0]] + c.to + text[loc[1]:]
	}
	return text
}

// Transitions rewrites ". In fact," and ". However," with probability 0.3.
// One draw per phrase: every occurrence changes or none does.
func (h *Humanizer) Transitions(text string) string {
	for _, t := range transitions {
		if h.rnd.Float64() >= transitionProbability {
			continue
		}
		text = strings.ReplaceAll(text, t.from, t.to)
	}
	return text
}

// VaryTransitions keeps the first use of a repeated transition and swaps each
// later use for a synonym with probability 0.5, drawn per occurrence.
func (h *Humanizer) VaryTransitions(text string) string {
	for _, v := range transitionVariants {
		if strings.Count(text, v.phrase) <= 1 {
			continue
		}
		var b strings.Builder
		rest := text
		seen := 0
		for {
			idx := strings.Index(rest, v.phrase)
			if idx < 0 {
				b.WriteString(rest)
				break
			}
			b.WriteString(rest[:idx])
			seen++
			if seen > 1 && h.rnd.Float64() < variationProbability {
				b.WriteString(v.variants[h.rnd.IntN(len(v.variants))])
			} else {
				b.WriteString(v.phrase)
			}
			rest = rest[idx+len(v.phrase):]
		}
		text = b.String()
	}
	return text
}
