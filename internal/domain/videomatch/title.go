package videomatch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/erniesg/capless/internal/types"
)

var reTitleDate = regexp.MustCompile(`(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})`)

// ParseTitleDate extracts the sitting date from official upload titles like
// "Parliament Sitting 2 July 2024".
func ParseTitleDate(title string) (time.Time, bool) {
	m := reTitleDate.FindStringSubmatch(title)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, err := time.Parse("January", m[2])
	if err != nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[3])
	t := time.Date(year, month.Month(), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// Rolled over; the title named a day that month doesn't have.
		return time.Time{}, false
	}
	return t, true
}

// IsInterpretation reports whether a title is the English-interpretation
// upload of a sitting. The main-language version is preferred when both
// exist for the same date.
func IsInterpretation(title string) bool {
	return strings.Contains(strings.ToLower(title), "english interpretation")
}

// IsUnavailable reports deleted or private uploads, which carry placeholder
// titles in listing output.
func IsUnavailable(title string) bool {
	return strings.Contains(title, "[Deleted") || strings.Contains(title, "[Private")
}

// MapByDate indexes candidates by the sitting date parsed from their titles,
// skipping unavailable uploads and preferring non-interpretation versions on
// collisions.
func MapByDate(videos []types.VideoCandidate) map[string]types.VideoCandidate {
	out := make(map[string]types.VideoCandidate)
	for _, v := range videos {
		if IsUnavailable(v.Title) {
			continue
		}
		date, ok := ParseTitleDate(v.Title)
		if !ok {
			continue
		}
		key := date.Format("2006-01-02")
		prev, exists := out[key]
		if exists && !IsInterpretation(prev.Title) {
			continue
		}
		if exists && IsInterpretation(prev.Title) && IsInterpretation(v.Title) {
			continue
		}
		out[key] = v
	}
	return out
}

// ParseISODuration parses the ISO-8601 durations the video metadata source
// reports, e.g. "PT2H30M15S" or "P1DT2H".
func ParseISODuration(s string) (time.Duration, error) {
	orig := s
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
	}
	s = s[1:]

	datePart := s
	timePart := ""
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	}

	var total time.Duration
	var err error
	if total, err = parseDurationPart(datePart, map[byte]time.Duration{
		'D': 24 * time.Hour,
	}); err != nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
	}
	t, err := parseDurationPart(timePart, map[byte]time.Duration{
		'H': time.Hour,
		'M': time.Minute,
		'S': time.Second,
	})
	if err != nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", orig)
	}
	return total + t, nil
}

func parseDurationPart(s string, units map[byte]time.Duration) (time.Duration, error) {
	var total time.Duration
	num := ""
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			num += string(c)
			continue
		}
		unit, ok := units[c]
		if !ok || num == "" {
			return 0, fmt.Errorf("unexpected %q", c)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, err
		}
		total += time.Duration(n) * unit
		num = ""
	}
	if num != "" {
		return 0, fmt.Errorf("trailing digits %q", num)
	}
	return total, nil
}
