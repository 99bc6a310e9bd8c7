package moments

import (
	"testing"

	"github.com/erniesg/capless/internal/types"
)

func TestApplyRanking_SortsAndRanks(t *testing.T) {
	cands := []types.Moment{
		{Quote: "a", Score: 7.0, SourceChunk: 0},
		{Quote: "b", Score: 8.0, SourceChunk: 1},
		{Quote: "c", Score: 9.0, SourceChunk: 2},
	}
	ranked := []types.Ranking{
		{OriginalIndex: 0, FinalScore: 9.5, Reason: "unique angle"},
		{OriginalIndex: 1, FinalScore: 6.0, Reason: "repetitive"},
		{OriginalIndex: 2, FinalScore: 8.0, Reason: "solid"},
	}
	got := ApplyRanking(cands, ranked)

	if len(got) != 3 {
		t.Fatalf("reranker must not truncate, got %d", len(got))
	}
	wantOrder := []string{"a", "c", "b"}
	for i, q := range wantOrder {
		if got[i].Quote != q {
			t.Fatalf("position %d = %q, want %q", i, got[i].Quote, q)
		}
		if got[i].GlobalRank != i+1 {
			t.Fatalf("position %d rank = %d, want %d", i, got[i].GlobalRank, i+1)
		}
	}
	if got[0].FinalScore != 9.5 || got[0].RankingReason != "unique angle" {
		t.Fatalf("collaborator verdict not applied: %+v", got[0])
	}
}

func TestApplyRanking_TieBreaksOnEarlierChunk(t *testing.T) {
	cands := []types.Moment{
		{Quote: "late", Score: 7, SourceChunk: 5},
		{Quote: "early", Score: 7, SourceChunk: 1},
	}
	ranked := []types.Ranking{
		{OriginalIndex: 0, FinalScore: 8.0},
		{OriginalIndex: 1, FinalScore: 8.0},
	}
	got := ApplyRanking(cands, ranked)
	if got[0].Quote != "early" {
		t.Fatalf("equal final scores must order by earlier chunk, got %q first", got[0].Quote)
	}
}

func TestApplyRanking_SkippedCandidateKeepsOwnScore(t *testing.T) {
	cands := []types.Moment{
		{Quote: "ranked", Score: 7.0},
		{Quote: "skipped", Score: 8.5},
	}
	ranked := []types.Ranking{
		{OriginalIndex: 0, FinalScore: 7.5},
		{OriginalIndex: 99, FinalScore: 9.9}, // out of range, ignored
	}
	got := ApplyRanking(cands, ranked)
	if got[0].Quote != "skipped" || got[0].FinalScore != 8.5 {
		t.Fatalf("skipped candidate must keep its extraction score, got %+v", got[0])
	}
}

func TestApplyRanking_DoesNotMutateInput(t *testing.T) {
	cands := []types.Moment{{Quote: "a", Score: 7}}
	_ = ApplyRanking(cands, []types.Ranking{{OriginalIndex: 0, FinalScore: 9}})
	if cands[0].FinalScore != 0 || cands[0].GlobalRank != 0 {
		t.Fatalf("input slice was mutated: %+v", cands[0])
	}
}

func TestFallbackRanking(t *testing.T) {
	cands := []types.Moment{
		{Quote: "low", Score: 6.0, SourceChunk: 0},
		{Quote: "high", Score: 9.0, SourceChunk: 1},
	}
	got := FallbackRanking(cands)
	if got[0].Quote != "high" || got[0].FinalScore != 9.0 || got[0].GlobalRank != 1 {
		t.Fatalf("fallback must order by extraction score: %+v", got[0])
	}
	if got[1].GlobalRank != 2 {
		t.Fatalf("ranks must be dense, got %d", got[1].GlobalRank)
	}
}

func TestBuildSessionContext(t *testing.T) {
	ctx := BuildSessionContext([]types.Moment{
		{Quote: "a", Score: 8, SourceChunk: 0, Category: "Drama Alert", Speaker: "Lee", InOverlap: true},
		{Quote: "b", Score: 6, SourceChunk: 0, Category: "Wholesome", Speaker: "Tan"},
		{Quote: "c", Score: 7, SourceChunk: 2, Category: "Drama Alert", Speaker: "Lee"},
	})
	if ctx.Candidates != 3 || ctx.Chunks != 2 {
		t.Fatalf("unexpected counts: %+v", ctx)
	}
	if ctx.Categories["Drama Alert"] != 2 || ctx.Speakers["Lee"] != 2 {
		t.Fatalf("unexpected mix: %+v", ctx)
	}
	if ctx.TopScore != 8 || ctx.AvgScore != 7 {
		t.Fatalf("unexpected score stats: %+v", ctx)
	}
	if ctx.OverlapShare < 0.33 || ctx.OverlapShare > 0.34 {
		t.Fatalf("unexpected overlap share: %v", ctx.OverlapShare)
	}
}

func TestBuildSessionContext_Empty(t *testing.T) {
	ctx := BuildSessionContext(nil)
	if ctx.Candidates != 0 || ctx.Chunks != 0 {
		t.Fatalf("empty input must yield zero context: %+v", ctx)
	}
}
