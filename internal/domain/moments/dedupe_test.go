package moments

import (
	"math"
	"testing"

	"github.com/erniesg/capless/internal/types"
)

// vecAt returns a unit vector at the given angle in the plane, so cosine
// similarity between two of them is cos(a-b).
func vecAt(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func TestDeduplicate_RemovesLowerScoredNearDuplicate(t *testing.T) {
	// cos(0.425) ≈ 0.911
	cands := []types.Moment{
		{Quote: "the scheme is fair", Score: 8.2, SourceChunk: 0, Embedding: vecAt(0)},
		{Quote: "the scheme is quite fair", Score: 6.9, SourceChunk: 1, Embedding: vecAt(0.425)},
	}
	got, decisions := Deduplicate(cands, DefaultDedupeConfig())
	if len(got) != 1 || got[0].Score != 8.2 {
		t.Fatalf("expected only the 8.2 candidate to survive, got %+v", got)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}
	d := decisions[0]
	if d.KeptIndex != 0 || d.RemovedIndex != 1 {
		t.Fatalf("unexpected decision indices: %+v", d)
	}
	if d.Reason != ReasonSemantic {
		t.Fatalf("reason = %q, want %q", d.Reason, ReasonSemantic)
	}
	if d.Similarity < 0.90 || d.Similarity > 0.92 {
		t.Fatalf("similarity = %v, want ≈0.91", d.Similarity)
	}
}

func TestDeduplicate_KeepsDissimilarCandidates(t *testing.T) {
	cands := []types.Moment{
		{Quote: "a", Score: 8, Embedding: vecAt(0)},
		{Quote: "b", Score: 7, Embedding: vecAt(1.2)}, // cos(1.2) ≈ 0.36
	}
	got, decisions := Deduplicate(cands, DefaultDedupeConfig())
	if len(got) != 2 || len(decisions) != 0 {
		t.Fatalf("dissimilar candidates must both survive, got %d (decisions %d)", len(got), len(decisions))
	}
}

func TestDeduplicate_ClusterMaximumAlwaysSurvives(t *testing.T) {
	// Three mutually similar candidates; the middle of the input holds the
	// top score.
	cands := []types.Moment{
		{Quote: "a", Score: 7.0, SourceChunk: 0, Embedding: vecAt(0)},
		{Quote: "b", Score: 9.5, SourceChunk: 1, Embedding: vecAt(0.05)},
		{Quote: "c", Score: 8.0, SourceChunk: 2, Embedding: vecAt(0.1)},
	}
	got, _ := Deduplicate(cands, DefaultDedupeConfig())
	if len(got) != 1 {
		t.Fatalf("expected one survivor, got %d", len(got))
	}
	if got[0].Score != 9.5 {
		t.Fatalf("cluster maximum must survive, got score %v", got[0].Score)
	}
}

func TestDeduplicate_ScoreTieKeepsEarlierChunk(t *testing.T) {
	cands := []types.Moment{
		{Quote: "later", Score: 8, SourceChunk: 3, Embedding: vecAt(0)},
		{Quote: "earlier", Score: 8, SourceChunk: 1, Embedding: vecAt(0.02)},
	}
	got, decisions := Deduplicate(cands, DefaultDedupeConfig())
	if len(got) != 1 || got[0].SourceChunk != 1 {
		t.Fatalf("tie must keep the earlier chunk, got %+v", got)
	}
	if len(decisions) != 1 || decisions[0].RemovedQuote != "later" {
		t.Fatalf("unexpected decisions: %+v", decisions)
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	cands := []types.Moment{
		{Quote: "a", Score: 9, SourceChunk: 0, Embedding: vecAt(0)},
		{Quote: "b", Score: 8, SourceChunk: 0, Embedding: vecAt(0.1)},
		{Quote: "c", Score: 7, SourceChunk: 1, Embedding: vecAt(1.0)},
		{Quote: "d", Score: 6, SourceChunk: 2, Embedding: vecAt(1.05)},
	}
	once, _ := Deduplicate(cands, DefaultDedupeConfig())
	twice, again := Deduplicate(once, DefaultDedupeConfig())
	if len(again) != 0 {
		t.Fatalf("second pass must remove nothing, removed %d", len(again))
	}
	if len(twice) != len(once) {
		t.Fatalf("second pass changed the survivor count: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		if once[i].Quote != twice[i].Quote {
			t.Fatalf("survivor order changed at %d", i)
		}
	}
}

func TestDeduplicate_OverlapDuplicate(t *testing.T) {
	// Same quote re-extracted from the duplicated boundary region of
	// neighboring chunks; embeddings absent, so only the overlap rule fires.
	cands := []types.Moment{
		{Quote: "It's only 13 vs 15", Score: 8.0, SourceChunk: 0, InOverlap: true},
		{Quote: "it's only 13 vs 15", Score: 7.5, SourceChunk: 1, InOverlap: true},
	}
	got, decisions := Deduplicate(cands, DefaultDedupeConfig())
	if len(got) != 1 || got[0].Score != 8.0 {
		t.Fatalf("expected the higher-scored overlap twin to survive, got %+v", got)
	}
	if len(decisions) != 1 || decisions[0].Reason != ReasonOverlap {
		t.Fatalf("expected an overlap_duplicate decision, got %+v", decisions)
	}
}

func TestDeduplicate_SameQuoteDistantChunksNotOverlap(t *testing.T) {
	// A speaker repeating a line hours later is not an overlap artifact.
	cands := []types.Moment{
		{Quote: "order, order", Score: 8.0, SourceChunk: 0},
		{Quote: "order, order", Score: 7.5, SourceChunk: 4},
	}
	got, decisions := Deduplicate(cands, DefaultDedupeConfig())
	if len(got) != 2 || len(decisions) != 0 {
		t.Fatalf("distant repeats must survive, got %d survivors", len(got))
	}
}

func TestDeduplicate_Empty(t *testing.T) {
	got, decisions := Deduplicate(nil, DefaultDedupeConfig())
	if got != nil || decisions != nil {
		t.Fatalf("empty input must yield empty output")
	}
}

func TestDeduplicate_SurvivorsKeepInputOrder(t *testing.T) {
	cands := []types.Moment{
		{Quote: "a", Score: 6, SourceChunk: 0, Embedding: vecAt(0)},
		{Quote: "b", Score: 9, SourceChunk: 1, Embedding: vecAt(1.0)},
		{Quote: "c", Score: 7, SourceChunk: 2, Embedding: vecAt(2.0)},
	}
	got, _ := Deduplicate(cands, DefaultDedupeConfig())
	if len(got) != 3 {
		t.Fatalf("expected all to survive, got %d", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Quote != want {
			t.Fatalf("survivor %d = %q, want %q (input order)", i, got[i].Quote, want)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"empty", nil, nil, 0},
		{"mismatched", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
