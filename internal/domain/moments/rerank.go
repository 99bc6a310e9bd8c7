package moments

import (
	"sort"

	"github.com/erniesg/capless/internal/types"
)

// SessionContext is the session-wide summary handed to the reranking
// collaborator alongside the full candidate list, so it can judge each
// moment against the whole sitting rather than one chunk.
type SessionContext struct {
	Candidates   int            `json:"candidates"`
	Chunks       int            `json:"chunks"`
	Categories   map[string]int `json:"category_mix"`
	Speakers     map[string]int `json:"speaker_mix"`
	AvgScore     float64        `json:"avg_score"`
	TopScore     float64        `json:"top_score"`
	OverlapShare float64        `json:"overlap_share"`
}

// BuildSessionContext summarizes the deduplicated candidate set.
func BuildSessionContext(cands []types.Moment) SessionContext {
	ctx := SessionContext{
		Candidates: len(cands),
		Categories: map[string]int{},
		Speakers:   map[string]int{},
	}
	if len(cands) == 0 {
		return ctx
	}
	chunks := map[int]struct{}{}
	overlap := 0
	var sum float64
	for _, m := range cands {
		chunks[m.SourceChunk] = struct{}{}
		if m.Category != "" {
			ctx.Categories[m.Category]++
		}
		if m.Speaker != "" {
			ctx.Speakers[m.Speaker]++
		}
		if m.InOverlap {
			overlap++
		}
		sum += m.Score
		if m.Score > ctx.TopScore {
			ctx.TopScore = m.Score
		}
	}
	ctx.Chunks = len(chunks)
	ctx.AvgScore = sum / float64(len(cands))
	ctx.OverlapShare = float64(overlap) / float64(len(cands))
	return ctx
}

// ApplyRanking writes the collaborator's scores back onto the candidates,
// stable-sorts descending by final score with earlier source chunks winning
// ties, and assigns 1-based global ranks. The full list comes back; callers
// decide how many top moments to keep. Candidates the collaborator skipped
// keep their extraction-time score as the final score.
func ApplyRanking(cands []types.Moment, ranked []types.Ranking) []types.Moment {
	out := make([]types.Moment, len(cands))
	copy(out, cands)

	for i := range out {
		out[i].FinalScore = out[i].Score
	}
	for _, r := range ranked {
		if r.OriginalIndex < 0 || r.OriginalIndex >= len(out) {
			continue
		}
		out[r.OriginalIndex].FinalScore = r.FinalScore
		out[r.OriginalIndex].RankingReason = r.Reason
	}

	sortRanked(out)
	return out
}

// FallbackRanking orders candidates by their extraction-time score when the
// reranking collaborator is unavailable, so the pipeline still produces a
// usable ordering.
func FallbackRanking(cands []types.Moment) []types.Moment {
	out := make([]types.Moment, len(cands))
	copy(out, cands)
	for i := range out {
		out[i].FinalScore = out[i].Score
	}
	sortRanked(out)
	return out
}

func sortRanked(ms []types.Moment) {
	sort.SliceStable(ms, func(a, b int) bool {
		if ms[a].FinalScore != ms[b].FinalScore {
			return ms[a].FinalScore > ms[b].FinalScore
		}
		return ms[a].SourceChunk < ms[b].SourceChunk
	})
	for i := range ms {
		ms[i].GlobalRank = i + 1
	}
}
