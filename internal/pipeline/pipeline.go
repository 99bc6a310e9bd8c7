package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/erniesg/capless/internal/domain/captions"
	"github.com/erniesg/capless/internal/domain/moments"
	"github.com/erniesg/capless/internal/domain/videomatch"
	"github.com/erniesg/capless/internal/ports"
	"github.com/erniesg/capless/internal/ports/adapters/openai"
	"github.com/erniesg/capless/internal/ports/adapters/youtube"
	"github.com/erniesg/capless/internal/types"
	"github.com/erniesg/capless/internal/usecase"
)

type Config struct {
	// InputVTT is the caption track of one sitting.
	InputVTT string
	// SessionDate labels the output artifact, e.g. "2024-07-02".
	SessionDate string
	OutDir      string

	ChunkSpan     time.Duration
	ChunkOverlap  time.Duration
	MaxChunkChars int
	SnapToPauses  bool

	DedupeThreshold float64

	OpenAIAPIKey         string
	OpenAIChatModel      string
	OpenAIEmbeddingModel string

	Logf func(format string, args ...any)
}

func (c Config) Validate() error {
	if c.InputVTT == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.InputVTT); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.ChunkSpan < 0 || c.ChunkOverlap < 0 {
		return errors.New("chunk span and overlap must be >= 0")
	}
	if c.ChunkSpan > 0 && c.ChunkOverlap >= c.ChunkSpan {
		return errors.New("chunk overlap must be < chunk span")
	}
	if c.DedupeThreshold < 0 || c.DedupeThreshold > 1 {
		return errors.New("dedupe threshold must be in [0,1]")
	}
	return nil
}

// Run executes one extraction session end to end and writes the session
// artifact that downstream asset generation consumes.
func Run(ctx context.Context, cfg Config) error {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	var opts []openai.Option
	if cfg.OpenAIChatModel != "" {
		opts = append(opts, openai.WithChatModel(cfg.OpenAIChatModel))
	}
	if cfg.OpenAIEmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.OpenAIEmbeddingModel))
	}
	ai := openai.New(cfg.OpenAIAPIKey, opts...)

	uc := usecase.New(usecase.Deps{
		Extractor: ai,
		Embedder:  ai,
		Reranker:  ai,
	})

	f, err := os.Open(cfg.InputVTT)
	if err != nil {
		return err
	}
	defer f.Close()

	chunking := captions.DefaultChunkOptions()
	if cfg.ChunkSpan > 0 {
		chunking.Span = cfg.ChunkSpan
		chunking.Overlap = cfg.ChunkOverlap
	}
	chunking.MaxChars = cfg.MaxChunkChars
	chunking.SnapToPauses = cfg.SnapToPauses

	dedupe := moments.DefaultDedupeConfig()
	if cfg.DedupeThreshold > 0 {
		dedupe.Threshold = cfg.DedupeThreshold
	}

	res, err := uc.Run(ctx, usecase.Input{
		Captions: f,
		Chunking: chunking,
		Matching: moments.DefaultMatchConfig(),
		Dedupe:   dedupe,
		Logf:     logf,
	})
	if err != nil {
		return err
	}
	if res.RerankDegraded != nil {
		logf("warning: global rerank degraded: %v", res.RerankDegraded)
	}

	session := types.Session{
		Date:        sessionDate(cfg),
		RunID:       uuid.NewString(),
		Strategy:    "two_stage_chunked",
		ExtractedAt: time.Now().UTC(),
		Duration:    res.Duration,
		Chunks:      res.Chunks,
		Stats:       res.Stats,
		Decisions:   res.Decisions,
		Moments:     res.Moments,
	}

	runDir := buildRunOutDir(outDir(cfg), cfg.InputVTT, time.Now().UTC())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	outPath := filepath.Join(runDir, "moments.json")
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		return err
	}
	logf("session written (%d moments): %s", len(session.Moments), outPath)
	return nil
}

// MatchVideoConfig drives the standalone video-match flow.
type MatchVideoConfig struct {
	TargetDate time.Time
	Speakers   []string
	Query      string

	Videos ports.VideoSource

	Logf func(format string, args ...any)
}

// MatchVideoResult carries the best candidate and its breakdown; Confident
// is false when the best score sits below the acceptance threshold.
type MatchVideoResult struct {
	Video     types.VideoCandidate
	Breakdown types.ConfidenceBreakdown
	Confident bool
}

// RunMatchVideo scores candidate videos against a sitting date.
func RunMatchVideo(ctx context.Context, cfg MatchVideoConfig) (MatchVideoResult, error) {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	if cfg.Videos == nil {
		return MatchVideoResult{}, errors.New("video source is required")
	}
	if cfg.TargetDate.IsZero() {
		return MatchVideoResult{}, errors.New("target date is required")
	}
	query := cfg.Query
	if query == "" {
		query = "Parliament Sitting " + cfg.TargetDate.Format("2 January 2006")
	}

	videos, err := cfg.Videos.ListVideos(ctx, query, cfg.TargetDate)
	if err != nil {
		return MatchVideoResult{}, fmt.Errorf("list videos: %w", err)
	}
	logf("scored %d candidate videos", len(videos))

	best, breakdown, ok := videomatch.Pick(videos, cfg.TargetDate, cfg.Speakers)
	return MatchVideoResult{Video: best, Breakdown: breakdown, Confident: ok}, nil
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "session"
	}
	ts := now.UTC().Format("20060102-150405Z")
	seed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, hash(seed)[:6]))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func sessionDate(cfg Config) string {
	if cfg.SessionDate != "" {
		return cfg.SessionDate
	}
	return strings.TrimSuffix(filepath.Base(cfg.InputVTT), filepath.Ext(cfg.InputVTT))
}

func outDir(cfg Config) string {
	if cfg.OutDir != "" {
		return cfg.OutDir
	}
	return "out"
}

// ensure adapters implement ports
var _ ports.Extractor = (*openai.Adapter)(nil)
var _ ports.Embedder = (*openai.Adapter)(nil)
var _ ports.Reranker = (*openai.Adapter)(nil)
var _ ports.VideoSource = (*youtube.Adapter)(nil)
