package captions

import (
	"time"

	"github.com/erniesg/capless/internal/types"
)

// ChunkOptions bounds how much caption text a single downstream extraction
// call receives. Span is the target chunk duration; Overlap is how much of a
// chunk's tail is duplicated at the head of the next chunk so a moment that
// straddles a boundary is fully contained in at least one chunk.
type ChunkOptions struct {
	Span    time.Duration
	Overlap time.Duration

	// MaxChars additionally closes a chunk once its accumulated text length
	// exceeds this many characters. Zero disables the character bound.
	MaxChars int

	// SnapToPauses moves each cut to the nearest long inter-caption pause
	// near the target boundary, so chunks tend to break on speaker changes
	// rather than mid-sentence.
	SnapToPauses bool
}

// Pauses longer than this are treated as probable speaker changes; the snap
// search looks this far around the target boundary.
const (
	pauseThreshold = 3 * time.Second
	snapWindow     = 3 * time.Minute
)

// DefaultChunkOptions mirrors the production extraction setup: 2.5 hour
// chunks with 20 minutes of overlap.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{Span: 150 * time.Minute, Overlap: 20 * time.Minute}
}

// Chunk splits an ordered caption sequence into time-bounded chunks with
// overlap. Every caption lands in at least one chunk; captions inside an
// overlap region land in exactly two consecutive chunks, flagged OverlapTail
// in the earlier chunk and OverlapHead in the later one. The final chunk is
// emitted even when shorter than Span.
func Chunk(caps []types.Caption, opts ChunkOptions) []types.Chunk {
	if len(caps) == 0 || opts.Span <= 0 {
		return nil
	}
	if opts.Overlap >= opts.Span {
		opts.Overlap = 0
	}

	maxTime := caps[len(caps)-1].End
	var chunks []types.Chunk

	cur := time.Duration(0)
	prevEnd := time.Duration(-1)
	for cur < maxTime {
		target := cur + opts.Span
		end := target
		if end >= maxTime {
			end = maxTime
		} else if opts.SnapToPauses {
			end = snapToPause(caps, target)
		}

		entries := collect(caps, cur, end, opts.MaxChars)
		if opts.MaxChars > 0 && len(entries) > 0 {
			// The char bound may have closed the chunk early; the real end
			// is wherever accumulation stopped.
			last := entries[len(entries)-1]
			if last.End < end {
				end = last.End
			}
		}

		final := end >= maxTime
		next := end - opts.Overlap
		if next <= cur {
			// Degenerate spans must still terminate.
			next = end
		}

		if len(entries) > 0 {
			// The duplicated regions are measured against the actual cut
			// points, which the char bound or pause snapping may have moved.
			markOverlap(entries, prevEnd, next, final)
			chunks = append(chunks, types.Chunk{Index: len(chunks), Entries: entries})
		}

		if final {
			break
		}
		prevEnd = end
		cur = next
	}
	return chunks
}

// collect gathers entries whose start falls in [from, to), optionally
// stopping once accumulated text length exceeds maxChars.
func collect(caps []types.Caption, from, to time.Duration, maxChars int) []types.ChunkEntry {
	var out []types.ChunkEntry
	chars := 0
	for _, c := range caps {
		if c.Start < from {
			continue
		}
		if c.Start >= to {
			break
		}
		out = append(out, types.ChunkEntry{Caption: c})
		chars += len(c.Text) + 1
		if maxChars > 0 && chars > maxChars {
			break
		}
	}
	return out
}

// markOverlap flags the leading entries duplicated from the previous chunk
// (those starting before the previous chunk's end) and the trailing entries
// the next chunk will duplicate (those starting at or after the next chunk's
// start).
func markOverlap(entries []types.ChunkEntry, prevEnd, nextStart time.Duration, final bool) {
	if prevEnd >= 0 {
		for i := range entries {
			if entries[i].Start >= prevEnd {
				break
			}
			entries[i].OverlapHead = true
		}
	}
	if !final {
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].Start < nextStart {
				break
			}
			entries[i].OverlapTail = true
		}
	}
}

// snapToPause returns the end of the caption preceding the longest nearby
// pause, or the target itself when no pause qualifies. Prefers breaks closer
// to the target; pause length breaks ties.
func snapToPause(caps []types.Caption, target time.Duration) time.Duration {
	best := target
	bestDist := snapWindow + 1
	bestPause := time.Duration(0)
	for i := 0; i+1 < len(caps); i++ {
		gap := caps[i+1].Start - caps[i].End
		if gap <= pauseThreshold {
			continue
		}
		dist := caps[i].End - target
		if dist < 0 {
			dist = -dist
		}
		if dist > snapWindow {
			continue
		}
		if dist < bestDist || (dist == bestDist && gap > bestPause) {
			best = caps[i].End
			bestDist = dist
			bestPause = gap
		}
	}
	return best
}
