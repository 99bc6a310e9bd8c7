package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/erniesg/capless/internal/domain/captions"
	"github.com/erniesg/capless/internal/domain/moments"
	"github.com/erniesg/capless/internal/ports"
	"github.com/erniesg/capless/internal/types"
)

type Deps struct {
	Extractor ports.Extractor
	Embedder  ports.Embedder
	Reranker  ports.Reranker
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Captions io.Reader

	Chunking captions.ChunkOptions
	Matching moments.MatchConfig
	Dedupe   moments.DedupeConfig

	Logf func(format string, args ...any)
}

type Result struct {
	Moments   []types.Moment
	Chunks    []types.ChunkMeta
	Decisions []types.DedupeDecision
	Stats     types.Stats
	Duration  string

	// RerankDegraded is set when the reranking collaborator failed and the
	// ordering fell back to extraction-time scores.
	RerankDegraded error
}

// Run executes the consolidation pipeline: parse, chunk, extract per chunk,
// embed, dedupe, rerank, and recover a precise timestamp for each surviving
// moment against the full unchunked sequence.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	logf := in.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	caps, err := captions.Parse(in.Captions)
	if err != nil {
		return Result{}, fmt.Errorf("parse captions: %w", err)
	}
	if len(caps) == 0 {
		logf("no captions parsed; nothing to do")
		return Result{}, nil
	}
	total := caps[len(caps)-1].End
	logf("parsed %d captions (duration %s)", len(caps), captions.FormatTimestamp(total))

	if in.Chunking.Span <= 0 {
		in.Chunking = captions.DefaultChunkOptions()
	}
	chunks := captions.Chunk(caps, in.Chunking)
	logf("created %d chunks (%s span, %s overlap)", len(chunks), in.Chunking.Span, in.Chunking.Overlap)

	res := Result{Duration: captions.FormatTimestamp(total)}

	var all []types.Moment
	for _, chunk := range chunks {
		extracted, err := u.d.Extractor.Extract(ctx, chunk)
		if err != nil {
			// One bad chunk should not sink a multi-hour session.
			logf("chunk %d: extraction failed: %v", chunk.Index, err)
			extracted = nil
		}
		for i := range extracted {
			extracted[i].SourceChunk = chunk.Index
			extracted[i].InOverlap = inOverlap(chunk, extracted[i].Quote, in.Matching)
		}
		res.Chunks = append(res.Chunks, types.ChunkMeta{
			Index:        chunk.Index,
			StartSec:     chunk.Start().Seconds(),
			EndSec:       chunk.End().Seconds(),
			CaptionCount: len(chunk.Entries),
			Extracted:    len(extracted),
			HasOverlap:   chunk.Index+1 < len(chunks),
		})
		all = append(all, extracted...)
		logf("chunk %d/%d: %d moments", chunk.Index+1, len(chunks), len(extracted))
	}
	res.Stats.Candidates = len(all)
	res.Stats.AvgInitialScore = avgScore(all)
	if len(all) == 0 {
		logf("no candidate moments extracted")
		return res, nil
	}

	if err := u.embedAll(ctx, all); err != nil {
		// Dedupe still runs; candidates without embeddings only lose the
		// semantic pass, not the overlap pass.
		logf("embedding failed, semantic dedupe degraded: %v", err)
	}

	survivors, decisions := moments.Deduplicate(all, in.Dedupe)
	res.Decisions = decisions
	for _, d := range decisions {
		if d.Reason == moments.ReasonOverlap {
			res.Stats.OverlapDuplicates++
		} else {
			res.Stats.SemanticDupes++
		}
	}
	logf("dedupe: %d -> %d (%d overlap, %d semantic)",
		len(all), len(survivors), res.Stats.OverlapDuplicates, res.Stats.SemanticDupes)

	session := moments.BuildSessionContext(survivors)
	ranked, err := u.d.Reranker.Rerank(ctx, survivors, session)
	var final []types.Moment
	if err != nil {
		logf("rerank failed, falling back to extraction scores: %v", err)
		final = moments.FallbackRanking(survivors)
		res.RerankDegraded = err
	} else {
		final = moments.ApplyRanking(survivors, ranked)
	}

	for i := range final {
		m, ok := moments.Match(final[i].Quote, caps, in.Matching)
		if !ok {
			// Keep the moment; downstream decides whether an untimed moment
			// is still worth publishing.
			final[i].TimestampConfidence = 0
			continue
		}
		final[i].TimestampStart = captions.FormatTimestamp(m.Start)
		final[i].TimestampEnd = captions.FormatTimestamp(m.End)
		final[i].TimestampConfidence = m.Confidence
		res.Stats.Matched++
	}
	logf("timestamps: %d/%d moments matched", res.Stats.Matched, len(final))

	res.Moments = final
	res.Stats.Final = len(final)
	res.Stats.AvgFinalScore = avgFinalScore(final)
	return res, nil
}

func (u Usecase) embedAll(ctx context.Context, ms []types.Moment) error {
	quotes := make([]string, len(ms))
	for i, m := range ms {
		quotes[i] = m.Quote
	}
	vectors, err := u.d.Embedder.EmbedBatch(ctx, quotes)
	if err != nil {
		return err
	}
	if len(vectors) != len(ms) {
		return fmt.Errorf("embedder returned %d vectors for %d quotes", len(vectors), len(ms))
	}
	for i := range ms {
		ms[i].Embedding = vectors[i]
	}
	return nil
}

// inOverlap reports whether a quote's best match inside its own chunk lands
// in the chunk's overlap region. Used to tag candidates that the duplicated
// boundary region may have produced twice.
func inOverlap(chunk types.Chunk, quote string, cfg moments.MatchConfig) bool {
	caps := make([]types.Caption, len(chunk.Entries))
	for i, e := range chunk.Entries {
		caps[i] = e.Caption
	}
	m, ok := moments.Match(quote, caps, cfg)
	if !ok {
		return false
	}
	for _, e := range chunk.Entries {
		if (e.OverlapHead || e.OverlapTail) && e.Start <= m.Start && m.Start <= e.End {
			return true
		}
	}
	// Start may fall between entries when the match begins mid-gap.
	for _, e := range chunk.Entries {
		if (e.OverlapHead || e.OverlapTail) && e.Start >= m.Start && e.Start <= m.End {
			return true
		}
	}
	return false
}

func avgScore(ms []types.Moment) float64 {
	if len(ms) == 0 {
		return 0
	}
	var sum float64
	for _, m := range ms {
		sum += m.Score
	}
	return sum / float64(len(ms))
}

func avgFinalScore(ms []types.Moment) float64 {
	if len(ms) == 0 {
		return 0
	}
	var sum float64
	for _, m := range ms {
		sum += m.FinalScore
	}
	return sum / float64(len(ms))
}
