package humanizer

import (
	"math/rand/v2"
	"strings"
	"testing"
)

// scripted replays fixed draws; it fails the test when it runs dry.
type scripted struct {
	t      *testing.T
	floats []float64
	ints   []int
}

func (s *scripted) Float64() float64 {
	s.t.Helper()
	if len(s.floats) == 0 {
		s.t.Fatal("unexpected Float64 draw")
	}
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scripted) IntN(n int) int {
	s.t.Helper()
	if len(s.ints) == 0 {
		s.t.Fatal("unexpected IntN draw")
	}
	i := s.ints[0]
	s.ints = s.ints[1:]
	if i >= n {
		s.t.Fatalf("scripted IntN %d out of range %d", i, n)
	}
	return i
}

func TestCasualWords(t *testing.T) {
	in := "Additionally, creatine is able to help. Furthermore, it has been demonstrated to work. " +
		"In order to dose it, it should be noted that timing matters. additionally, lower case stays."
	got := CasualWords(in)
	want := "Also, creatine can help. Plus, it has been shown to work. " +
		"To dose it,  timing matters. additionally, lower case stays."
	if got != want {
		t.Fatalf("CasualWords:\n got %q\nwant %q", got, want)
	}
}

func TestCasualWordsIdempotent(t *testing.T) {
	in := "Moreover, results are able to vary. Thus, Therefore, Consequently, Nevertheless, " +
		"due to the fact that in the event that it is important to note that effects has been observed to fade."
	once := CasualWords(in)
	if twice := CasualWords(once); twice != once {
		t.Fatalf("second pass changed output:\n%q\n%q", once, twice)
	}
}

func TestSplitLongSentences(t *testing.T) {
	in := "I tried it for weeks, logged my sleep, tracked my lifts, and felt better. Short one, here."
	h := New(Options{SplitLongSentences: true}, &scripted{t: t, floats: []float64{0.1}, ints: []int{1}})
	got := h.SplitLongSentences(in)
	want := "I tried it for weeks, logged my sleep. Tracked my lifts, and felt better. Short one, here."
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSplitLongSentencesSkipsOnHighDraw(t *testing.T) {
	in := "One, two, three, four."
	h := New(Options{SplitLongSentences: true}, &scripted{t: t, floats: []float64{0.5}})
	if got := h.SplitLongSentences(in); got != in {
		t.Fatalf("sentence should be untouched, got %q", got)
	}
}

func TestSplitLongSentencesIgnoresShortSentences(t *testing.T) {
	in := "A, b, c. D, e."
	// no draws expected: neither sentence has three commas
	h := New(Options{SplitLongSentences: true}, &scripted{t: t})
	if got := h.SplitLongSentences(in); got != in {
		t.Fatalf("got %q", got)
	}
}

func TestContractions(t *testing.T) {
	in := "That is fine. that is also fine. There is more. What is this? It is known."
	// draws: "it is known" yes, "that is" yes, "there is" no, "what is" yes
	h := New(Options{AddQuirks: true}, &scripted{t: t, floats: []float64{0.05, 0.0, 0.95, 0.09}})
	got := h.Contractions(in)
	want := "that's fine. that is also fine. There is more. what's this? it's known."
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestTransitionsAllOrNothing(t *testing.T) {
	in := "Yes. In fact, it works. Also. In fact, again. No. However, wait."
	h := New(Options{AddQuirks: true}, &scripted{t: t, floats: []float64{0.2, 0.9}})
	got := h.Transitions(in)
	want := "Yes. And in fact, it works. Also. And in fact, again. No. However, wait."
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestVaryTransitionsKeepsFirst(t *testing.T) {
	in := "For example, a. For example, b. For example, c."
	// second occurrence replaced with variant 2, third kept
	h := New(Options{AddVariation: true}, &scripted{t: t, floats: []float64{0.1, 0.7}, ints: []int{2}})
	got := h.VaryTransitions(in)
	want := "For example, a. Such as: b. For example, c."
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestVaryTransitionsSingleOccurrenceUntouched(t *testing.T) {
	in := "In fact, once."
	h := New(Options{AddVariation: true}, &scripted{t: t})
	if got := h.VaryTransitions(in); got != in {
		t.Fatalf("got %q", got)
	}
}

func TestHumanizeDisabledStagesAreNoop(t *testing.T) {
	in := "Additionally, one, two, three, four. In fact, x. In fact, y."
	h := New(Options{}, &scripted{t: t})
	if got := h.Humanize(in); got != in {
		t.Fatalf("got %q", got)
	}
}

func TestHumanizeSeededIsReproducible(t *testing.T) {
	in := strings.Repeat("Furthermore, we measured sleep, mood, focus, and strength. In fact, it helped. However, it is not magic. ", 6)
	a := New(DefaultOptions(), rand.New(rand.NewPCG(7, 11))).Humanize(in)
	b := New(DefaultOptions(), rand.New(rand.NewPCG(7, 11))).Humanize(in)
	if a != b {
		t.Fatal("same seed should produce the same output")
	}
	if strings.Contains(a, "Furthermore,") {
		t.Fatal("lexical stage should always apply")
	}
}

func TestCapitalizeNext(t *testing.T) {
	cases := map[string]string{
		" and then":  " And then",
		"already Up": "Already Up",
		" 3 things":  " 3 things",
		"   ":        "   ",
		" élan":      " Élan",
	}
	for in, want := range cases {
		if got := capitalizeNext(in); got != want {
			t.Fatalf("capitalizeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
