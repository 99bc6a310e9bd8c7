package types

import "time"

// Caption is one timestamped entry from a machine-generated caption track.
// Text is already cleaned of inline markup. Entries are ordered by Start and
// never mutated after parsing.
type Caption struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// ChunkEntry is a caption inside a chunk, flagged when it sits in the
// duplicated overlap region shared with a neighboring chunk.
type ChunkEntry struct {
	Caption
	OverlapHead bool
	OverlapTail bool
}

// Chunk is a bounded, time-contiguous slice of a caption sequence. The last
// overlap-span worth of entries of chunk i reappears at the head of chunk
// i+1.
type Chunk struct {
	Index   int
	Entries []ChunkEntry
}

func (c Chunk) Start() time.Duration {
	if len(c.Entries) == 0 {
		return 0
	}
	return c.Entries[0].Start
}

func (c Chunk) End() time.Duration {
	if len(c.Entries) == 0 {
		return 0
	}
	return c.Entries[len(c.Entries)-1].End
}

// Text concatenates the chunk's caption texts, space separated, for the
// extraction collaborator.
func (c Chunk) Text() string {
	n := 0
	for _, e := range c.Entries {
		n += len(e.Caption.Text) + 1
	}
	b := make([]byte, 0, n)
	for i, e := range c.Entries {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, e.Caption.Text...)
	}
	return string(b)
}

// Moment is one candidate viral moment proposed by the extraction
// collaborator. The typed core is what the consolidation algorithms touch;
// Meta carries extractor pass-through fields opaquely.
type Moment struct {
	Quote    string  `json:"quote"`
	Speaker  string  `json:"speaker,omitempty"`
	Title    string  `json:"title,omitempty"`
	Category string  `json:"category,omitempty"`
	WhyViral string  `json:"why_viral,omitempty"`
	Score    float64 `json:"viral_score"`

	Embedding   []float32 `json:"-"`
	SourceChunk int       `json:"source_chunk"`
	InOverlap   bool      `json:"is_in_overlap_region"`

	Meta map[string]any `json:"meta,omitempty"`

	// Set by the reranker.
	FinalScore    float64 `json:"final_score,omitempty"`
	RankingReason string  `json:"ranking_reason,omitempty"`
	GlobalRank    int     `json:"global_rank,omitempty"`

	// Set by the fuzzy matcher; empty timestamps and zero confidence mean
	// no window cleared its threshold.
	TimestampStart      string  `json:"timestamp_start,omitempty"`
	TimestampEnd        string  `json:"timestamp_end,omitempty"`
	TimestampConfidence float64 `json:"timestamp_confidence"`
}

// MatchResult is the best caption window the fuzzy matcher found for one
// quote. Confidence is in [0,1]; 1.0 means the quote appeared verbatim.
type MatchResult struct {
	Start       time.Duration
	End         time.Duration
	Confidence  float64
	MatchedText string
}

// Ranking is one collaborator verdict from the global rerank call.
type Ranking struct {
	OriginalIndex int     `json:"original_index"`
	FinalScore    float64 `json:"final_score"`
	Reason        string  `json:"ranking_reason"`
}

// DedupeDecision records one suppression for auditability.
type DedupeDecision struct {
	KeptIndex    int     `json:"kept_index"`
	KeptQuote    string  `json:"kept_quote"`
	RemovedIndex int     `json:"removed_index"`
	RemovedQuote string  `json:"removed_quote"`
	Similarity   float64 `json:"similarity"`
	Reason       string  `json:"reason"`
}

// VideoCandidate is one video's metadata as read from the metadata source.
type VideoCandidate struct {
	ID           string
	Title        string
	Description  string
	PublishedAt  time.Time
	Duration     time.Duration
	IsLivestream bool
	// ActualStart is the livestream's actual start when the source reports
	// one; zero otherwise.
	ActualStart time.Time
}

// ConfidenceBreakdown itemizes the weighted signals behind one video-match
// score. Total is clamped to [0,10].
type ConfidenceBreakdown struct {
	DateMatch          float64 `json:"date_match"`
	TitleKeywords      float64 `json:"title_keywords"`
	Duration           float64 `json:"duration_appropriate"`
	Livestream         float64 `json:"livestream_bonus"`
	DescriptionSpeaker float64 `json:"description_or_speaker_bonus"`
	Total              float64 `json:"total"`
}

// Session is the output artifact consumed by downstream asset generation.
type Session struct {
	Date        string           `json:"date"`
	RunID       string           `json:"run_id"`
	Strategy    string           `json:"extraction_strategy"`
	ExtractedAt time.Time        `json:"extracted_at"`
	Duration    string           `json:"total_duration"`
	Chunks      []ChunkMeta      `json:"chunks_metadata"`
	Stats       Stats            `json:"consolidation_stats"`
	Decisions   []DedupeDecision `json:"deduplication_decisions"`
	Moments     []Moment         `json:"moments"`
}

// ChunkMeta summarizes one chunk in the session artifact, without captions.
type ChunkMeta struct {
	Index        int     `json:"index"`
	StartSec     float64 `json:"start_sec"`
	EndSec       float64 `json:"end_sec"`
	CaptionCount int     `json:"caption_count"`
	Extracted    int     `json:"moments_extracted"`
	HasOverlap   bool    `json:"has_overlap"`
}

// Stats tracks how the candidate set shrank through consolidation.
type Stats struct {
	Candidates        int     `json:"total_candidates_extracted"`
	OverlapDuplicates int     `json:"overlap_duplicates_removed"`
	SemanticDupes     int     `json:"semantic_duplicates_removed"`
	Final             int     `json:"final_moments_count"`
	AvgInitialScore   float64 `json:"avg_initial_score"`
	AvgFinalScore     float64 `json:"avg_final_score"`
	Matched           int     `json:"moments_with_timestamps"`
}
