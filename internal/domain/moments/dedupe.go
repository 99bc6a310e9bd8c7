package moments

import (
	"math"
	"sort"
	"strings"

	"github.com/erniesg/capless/internal/types"
)

// Suppression reasons recorded on dedupe decisions.
const (
	ReasonSemantic = "semantic_similarity"
	ReasonOverlap  = "overlap_duplicate"
)

type DedupeConfig struct {
	// Threshold is the cosine similarity at or above which two candidates
	// count as duplicates. Empirically chosen; tunable.
	Threshold float64
}

func DefaultDedupeConfig() DedupeConfig {
	return DedupeConfig{Threshold: 0.85}
}

// Deduplicate removes near-duplicate candidates. Exact-quote duplicates
// between a chunk's overlap region and its neighboring chunk go first, then
// pairwise embedding similarity. Within any duplicate pair the higher-Score
// candidate survives; on exact score ties the candidate from the earlier
// chunk survives. Survivors keep their input order. Every suppression is
// logged with the similarity and reason.
//
// The pass is idempotent: candidates are visited in keep-priority order
// (score desc, chunk asc, index asc), so a similarity cluster's maximum is
// always kept and re-running on the survivors removes nothing.
func Deduplicate(cands []types.Moment, cfg DedupeConfig) ([]types.Moment, []types.DedupeDecision) {
	if len(cands) == 0 {
		return nil, nil
	}
	if cfg.Threshold <= 0 {
		cfg = DefaultDedupeConfig()
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ma, mb := cands[order[a]], cands[order[b]]
		if ma.Score != mb.Score {
			return ma.Score > mb.Score
		}
		if ma.SourceChunk != mb.SourceChunk {
			return ma.SourceChunk < mb.SourceChunk
		}
		return order[a] < order[b]
	})

	removed := make([]bool, len(cands))
	var kept []int
	var decisions []types.DedupeDecision

	for _, i := range order {
		if removed[i] {
			continue
		}
		dup := false
		for _, k := range kept {
			sim, reason, isDup := duplicateOf(cands[k], cands[i], cfg.Threshold)
			if !isDup {
				continue
			}
			removed[i] = true
			decisions = append(decisions, types.DedupeDecision{
				KeptIndex:    k,
				KeptQuote:    clip(cands[k].Quote, 100),
				RemovedIndex: i,
				RemovedQuote: clip(cands[i].Quote, 100),
				Similarity:   sim,
				Reason:       reason,
			})
			dup = true
			break
		}
		if !dup {
			kept = append(kept, i)
		}
	}

	sort.Ints(kept)
	out := make([]types.Moment, 0, len(kept))
	for _, i := range kept {
		out = append(out, cands[i])
	}
	return out, decisions
}

// duplicateOf reports whether b duplicates the already-kept a, with the
// similarity value and reason tag. Overlap duplicates are exact normalized
// quotes re-extracted from the duplicated boundary region of a neighboring
// chunk; everything else rides on embedding similarity.
func duplicateOf(a, b types.Moment, threshold float64) (float64, string, bool) {
	if sameQuote(a, b) && neighborOverlap(a, b) {
		return 1.0, ReasonOverlap, true
	}
	sim := CosineSimilarity(a.Embedding, b.Embedding)
	if sim >= threshold {
		return sim, ReasonSemantic, true
	}
	return sim, "", false
}

func sameQuote(a, b types.Moment) bool {
	return strings.EqualFold(strings.TrimSpace(a.Quote), strings.TrimSpace(b.Quote))
}

func neighborOverlap(a, b types.Moment) bool {
	if !a.InOverlap && !b.InOverlap {
		return false
	}
	d := a.SourceChunk - b.SourceChunk
	return d >= -1 && d <= 1
}

// CosineSimilarity between two embedding vectors. Mismatched or empty
// vectors score 0, which keeps candidates without embeddings out of the
// semantic pass instead of crashing it.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
