package ports

import (
	"context"
	"time"

	"github.com/erniesg/capless/internal/domain/moments"
	"github.com/erniesg/capless/internal/types"
)

// Extractor proposes candidate moments from one chunk's caption text.
type Extractor interface {
	Extract(ctx context.Context, chunk types.Chunk) ([]types.Moment, error)
}

// Embedder turns quote texts into fixed-length vectors for semantic
// deduplication.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker re-scores the full deduplicated candidate list with session-wide
// context and returns one verdict per moment it chose to rank.
type Reranker interface {
	Rerank(ctx context.Context, cands []types.Moment, session moments.SessionContext) ([]types.Ranking, error)
}

// VideoSource lists candidate recordings around a sitting date.
type VideoSource interface {
	ListVideos(ctx context.Context, query string, around time.Time) ([]types.VideoCandidate, error)
}
