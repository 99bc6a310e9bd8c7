package videomatch

import (
	"strings"
	"time"

	"github.com/erniesg/capless/internal/types"
)

// MinConfidence is the score at or above which callers treat a video match
// as usable. Below it the full breakdown is still returned so the caller can
// explain why no confident match was found.
const MinConfidence = 5.0

// titleKeywords mark official parliamentary session uploads.
var titleKeywords = []string{
	"parliament",
	"parliamentary",
	"sitting",
	"session",
	"hansard",
	"debate",
	"committee of supply",
}

// Score computes a 0-10 confidence that a video is the recording of the
// sitting on target. Signals are independent and additive: calendar-date
// proximity (max 4), session keywords in the title (2), duration
// appropriate for a sitting (max 2), livestream (1), and description
// keyword/speaker mentions (max 1 combined).
func Score(v types.VideoCandidate, target time.Time, speakers []string) types.ConfidenceBreakdown {
	var b types.ConfidenceBreakdown

	b.DateMatch = dateMatchPoints(v, target)

	title := strings.ToLower(v.Title)
	for _, kw := range titleKeywords {
		if strings.Contains(title, kw) {
			b.TitleKeywords = 2
			break
		}
	}

	switch {
	case v.Duration > time.Hour:
		b.Duration = 2
	case v.Duration > 30*time.Minute:
		b.Duration = 1
	}

	if v.IsLivestream {
		b.Livestream = 1
	}

	desc := strings.ToLower(v.Description)
	for _, kw := range titleKeywords {
		if strings.Contains(desc, kw) {
			b.DescriptionSpeaker += 0.5
			break
		}
	}
	for _, sp := range speakers {
		sp = strings.ToLower(strings.TrimSpace(sp))
		if sp != "" && strings.Contains(desc, sp) {
			b.DescriptionSpeaker += 0.5
			break
		}
	}
	if b.DescriptionSpeaker > 1 {
		b.DescriptionSpeaker = 1
	}

	b.Total = clamp(b.DateMatch+b.TitleKeywords+b.Duration+b.Livestream+b.DescriptionSpeaker, 0, 10)
	return b
}

// Pick scores every candidate against target and returns the best one.
// Deleted/private placeholders are skipped, and on equal totals the main
// upload beats an "English interpretation" version of the same sitting. The
// breakdown is always returned; ok is false when even the best candidate
// falls below MinConfidence.
func Pick(videos []types.VideoCandidate, target time.Time, speakers []string) (types.VideoCandidate, types.ConfidenceBreakdown, bool) {
	var bestVideo types.VideoCandidate
	var best types.ConfidenceBreakdown
	found := false
	for _, v := range videos {
		if IsUnavailable(v.Title) {
			continue
		}
		b := Score(v, target, speakers)
		better := b.Total > best.Total ||
			(b.Total == best.Total && IsInterpretation(bestVideo.Title) && !IsInterpretation(v.Title))
		if !found || better {
			bestVideo, best, found = v, b, true
		}
	}
	return bestVideo, best, found && best.Total >= MinConfidence
}

// dateMatchPoints compares calendar dates, preferring the livestream's
// actual start over the publish date when present. Livestreams of long
// sittings often finish publishing after midnight.
func dateMatchPoints(v types.VideoCandidate, target time.Time) float64 {
	published := v.PublishedAt
	if !v.ActualStart.IsZero() {
		published = v.ActualStart
	}
	if published.IsZero() {
		return 0
	}

	p := truncateDay(published)
	t := truncateDay(target)
	days := int(p.Sub(t) / (24 * time.Hour))
	if days < 0 {
		days = -days
	}
	switch {
	case days == 0:
		return 4
	case days <= 1:
		return 3
	case days <= 3:
		return 1
	}
	return 0
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
