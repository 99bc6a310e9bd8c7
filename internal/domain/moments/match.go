package moments

import (
	"regexp"
	"strings"

	"github.com/erniesg/capless/internal/types"
)

// MatchConfig tunes the windowed fuzzy matcher. The thresholds were chosen
// empirically against real parliamentary caption tracks; treat them as
// tunable, not proven-optimal.
type MatchConfig struct {
	// MaxWindow caps how many consecutive captions one window may span.
	// Bounds the O(n * MaxWindow) window count on very long sequences.
	MaxWindow int

	// ShortQuoteWords is the word count under which a quote counts as
	// short. Short quotes false-match easily, so they get the higher bar.
	ShortQuoteWords int
	ShortThreshold  float64
	LongThreshold   float64

	// MaxWordGap is how many unmatched window words may sit between two
	// consecutively matched quote words in the sequential pass.
	MaxWordGap int
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MaxWindow:       30,
		ShortQuoteWords: 10,
		ShortThreshold:  0.5,
		LongThreshold:   0.35,
		MaxWordGap:      2,
	}
}

const (
	sequentialWeight = 0.9
	overlapWeight    = 0.7
)

var reNonWord = regexp.MustCompile(`[^\w\s]`)

// Match locates the best-matching contiguous caption window for a quoted
// span. Exact (normalized) containment scores 1.0 and wins outright;
// otherwise windows score max(sequential*0.9, overlap*0.7) and the single
// best strictly-greater window is kept. Returns ok=false when no window
// clears the quote's acceptance threshold.
func Match(quote string, caps []types.Caption, cfg MatchConfig) (types.MatchResult, bool) {
	if cfg.MaxWindow <= 0 {
		cfg = DefaultMatchConfig()
	}

	normQuote := Normalize(quote)
	quoteWords := strings.Fields(normQuote)
	if len(quoteWords) == 0 || len(caps) == 0 {
		return types.MatchResult{}, false
	}

	threshold := cfg.LongThreshold
	if len(quoteWords) < cfg.ShortQuoteWords {
		threshold = cfg.ShortThreshold
	}

	quoteSet := make(map[string]struct{}, len(quoteWords))
	for _, w := range quoteWords {
		quoteSet[w] = struct{}{}
	}

	var best types.MatchResult
	found := false

	for i := 0; i < len(caps); i++ {
		maxSize := cfg.MaxWindow
		if rem := len(caps) - i; rem < maxSize {
			maxSize = rem
		}
		for size := maxSize; size >= 1; size-- {
			window := caps[i : i+size]
			text := normalizeWindow(window)

			if strings.Contains(text, normQuote) {
				// Nothing can beat an exact match under strictly-greater
				// replacement; tighten to the minimal containing span so a
				// quote inside a single caption maps to that caption alone.
				lo, hi := tighten(window, normQuote)
				return types.MatchResult{
					Start:       window[lo].Start,
					End:         window[hi].End,
					Confidence:  1.0,
					MatchedText: normalizeWindow(window[lo : hi+1]),
				}, true
			}

			windowWords := strings.Fields(text)
			seq := sequentialRatio(quoteWords, windowWords, cfg.MaxWordGap)
			ov := overlapRatio(quoteSet, windowWords, len(quoteWords))
			score := seq * sequentialWeight
			if o := ov * overlapWeight; o > score {
				score = o
			}

			if score >= threshold && (!found || score > best.Confidence) {
				best = types.MatchResult{
					Start:       window[0].Start,
					End:         window[size-1].End,
					Confidence:  score,
					MatchedText: text,
				}
				found = true
			}
		}
	}
	return best, found
}

// Normalize lowercases, strips non-word/non-space characters, and collapses
// whitespace. Applied identically to quotes and window text so punctuation
// and casing in auto-captions never block a match.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = reNonWord.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func normalizeWindow(caps []types.Caption) string {
	parts := make([]string, 0, len(caps))
	for _, c := range caps {
		parts = append(parts, c.Text)
	}
	return Normalize(strings.Join(parts, " "))
}

// tighten drops leading and trailing captions from a containing window while
// the normalized quote remains a substring of the remainder.
func tighten(window []types.Caption, normQuote string) (lo, hi int) {
	lo, hi = 0, len(window)-1
	for lo < hi && strings.Contains(normalizeWindow(window[lo+1:hi+1]), normQuote) {
		lo++
	}
	for hi > lo && strings.Contains(normalizeWindow(window[lo:hi]), normQuote) {
		hi--
	}
	return lo, hi
}

// sequentialRatio is the longest run of consecutive quote words found in
// order within the window, allowing up to maxGap unmatched window words
// between matched quote words, over the quote's word count.
func sequentialRatio(quote, window []string, maxGap int) float64 {
	if len(quote) == 0 || len(window) == 0 {
		return 0
	}
	best := 0
	for qs := 0; qs < len(quote); qs++ {
		if len(quote)-qs <= best {
			break
		}
		for ws := 0; ws < len(window); ws++ {
			if window[ws] != quote[qs] {
				continue
			}
			run := 1
			wi := ws
			for qi := qs + 1; qi < len(quote); qi++ {
				next := -1
				for j := wi + 1; j <= wi+1+maxGap && j < len(window); j++ {
					if window[j] == quote[qi] {
						next = j
						break
					}
				}
				if next < 0 {
					break
				}
				wi = next
				run++
			}
			if run > best {
				best = run
			}
		}
	}
	return float64(best) / float64(len(quote))
}

// overlapRatio is the order-ignored fraction of quote words present in the
// window's word set.
func overlapRatio(quoteSet map[string]struct{}, window []string, quoteLen int) float64 {
	if quoteLen == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(window))
	for _, w := range window {
		seen[w] = struct{}{}
	}
	hits := 0
	for w := range quoteSet {
		if _, ok := seen[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(quoteLen)
}
