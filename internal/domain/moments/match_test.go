package moments

import (
	"testing"
	"time"

	"github.com/erniesg/capless/internal/types"
)

func entry(startSec int, text string) types.Caption {
	return types.Caption{
		Start: time.Duration(startSec) * time.Second,
		End:   time.Duration(startSec+5) * time.Second,
		Text:  text,
	}
}

func sessionCaps() []types.Caption {
	return []types.Caption{
		entry(0, "the house will come to order"),
		entry(5, "the minister may answer the question"),
		entry(10, "thank you madam speaker on the matter of costs"),
		entry(15, "I want to be very clear about this"),
		entry(20, "it's only 13 vs 15 if you count the abstentions"),
		entry(25, "and that is the position of the government"),
		entry(30, "we will review the scheme next year"),
	}
}

func TestMatch_ExactQuoteInSingleCaption(t *testing.T) {
	caps := sessionCaps()
	res, ok := Match("it's only 13 vs 15", caps, DefaultMatchConfig())
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Confidence != 1.0 {
		t.Fatalf("exact match confidence = %v, want 1.0", res.Confidence)
	}
	if res.Start != 20*time.Second || res.End != 25*time.Second {
		t.Fatalf("expected the containing caption's span, got %v-%v", res.Start, res.End)
	}
}

func TestMatch_ExactQuoteAcrossCaptions(t *testing.T) {
	caps := sessionCaps()
	quote := "very clear about this it's only 13 vs 15"
	res, ok := Match(quote, caps, DefaultMatchConfig())
	if !ok {
		t.Fatal("expected a match")
	}
	if res.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", res.Confidence)
	}
	if res.Start != 15*time.Second || res.End != 25*time.Second {
		t.Fatalf("expected the two-caption span, got %v-%v", res.Start, res.End)
	}
}

func TestMatch_DisjointVocabularyNoMatch(t *testing.T) {
	caps := sessionCaps()
	if _, ok := Match("zebra quantum violin nebula", caps, DefaultMatchConfig()); ok {
		t.Fatal("expected no match for disjoint vocabulary")
	}
}

func TestMatch_ShortQuoteBelowThreshold(t *testing.T) {
	// 8-word quote sharing only 3 words with the captions: set overlap
	// 3/8*0.7 ≈ 0.26 and no 4-word run, below the 0.5 short-quote bar.
	caps := sessionCaps()
	quote := "minister frog answer purple question yesterday gladly wrong"
	if _, ok := Match(quote, caps, DefaultMatchConfig()); ok {
		t.Fatal("expected no match below the short-quote threshold")
	}
}

func TestMatch_FuzzyWithFillerWords(t *testing.T) {
	caps := []types.Caption{
		entry(0, "we will um review the uh scheme next year definitely"),
	}
	// Quote words appear in order with small gaps from filler words.
	res, ok := Match("we will review the scheme", caps, DefaultMatchConfig())
	if !ok {
		t.Fatal("expected a fuzzy match")
	}
	if res.Confidence >= 1.0 {
		t.Fatalf("fuzzy match must not claim exact confidence, got %v", res.Confidence)
	}
	if res.Confidence < 0.5 {
		t.Fatalf("all quote words in order should clear the short bar, got %v", res.Confidence)
	}
}

func TestMatch_PunctuationAndCaseInsensitive(t *testing.T) {
	caps := []types.Caption{entry(0, "It's ONLY 13, vs. 15!")}
	res, ok := Match("its only 13 vs 15", caps, DefaultMatchConfig())
	if !ok || res.Confidence != 1.0 {
		t.Fatalf("normalization should make this exact, got ok=%v conf=%v", ok, res.Confidence)
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	if _, ok := Match("", sessionCaps(), DefaultMatchConfig()); ok {
		t.Fatal("empty quote must not match")
	}
	if _, ok := Match("anything", nil, DefaultMatchConfig()); ok {
		t.Fatal("empty sequence must not match")
	}
}

func TestMatch_LongQuoteLowerThreshold(t *testing.T) {
	caps := []types.Caption{
		entry(0, "the scheme will be reviewed by the committee next year"),
		entry(5, "and members will be consulted on the changes in due course"),
	}
	// 12 words, roughly half present: clears 0.35 but not 0.5.
	quote := "the scheme will be reviewed eventually perhaps maybe someday soon enough folks"
	res, ok := Match(quote, caps, DefaultMatchConfig())
	if !ok {
		t.Fatal("expected long-quote threshold to accept")
	}
	if res.Confidence >= 0.5 {
		t.Fatalf("expected a sub-0.5 confidence, got %v", res.Confidence)
	}

	cfg := DefaultMatchConfig()
	cfg.LongThreshold = 0.6
	if _, ok := Match(quote, caps, cfg); ok {
		t.Fatal("raising the threshold must reject the same pair")
	}
}

func TestSequentialRatio(t *testing.T) {
	tests := []struct {
		name   string
		quote  []string
		window []string
		want   float64
	}{
		{"all in order", []string{"a", "b", "c"}, []string{"a", "b", "c"}, 1.0},
		{"gap of two allowed", []string{"a", "b"}, []string{"a", "x", "y", "b"}, 1.0},
		{"gap of three breaks run", []string{"a", "b"}, []string{"a", "x", "y", "z", "b"}, 0.5},
		{"mid-quote run", []string{"a", "b", "c", "d"}, []string{"c", "d"}, 0.5},
		{"nothing", []string{"a"}, []string{"b"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sequentialRatio(tt.quote, tt.window, 2); got != tt.want {
				t.Fatalf("sequentialRatio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  It's   ONLY 13, vs. 15!  "); got != "its only 13 vs 15" {
		t.Fatalf("Normalize = %q", got)
	}
}
