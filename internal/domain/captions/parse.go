package captions

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/erniesg/capless/internal/types"
)

var (
	reCueLine = regexp.MustCompile(`-->`)
	reTag     = regexp.MustCompile(`<[^>]*>`)
	reSpaces  = regexp.MustCompile(`\s+`)
)

// Parse reads a WebVTT caption document and returns the ordered caption
// sequence. Malformed cue blocks are skipped rather than failing the whole
// parse; auto-generated tracks routinely contain garbage blocks.
func Parse(r io.Reader) ([]types.Caption, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out []types.Caption
	var pending string
	for {
		line := pending
		pending = ""
		if line == "" {
			if !sc.Scan() {
				break
			}
			line = strings.TrimSpace(sc.Text())
		}
		if !reCueLine.MatchString(line) {
			continue
		}

		parts := strings.SplitN(line, "-->", 2)
		start, err1 := ParseTimestamp(firstToken(parts[0]))
		end, err2 := ParseTimestamp(firstToken(parts[1]))
		if err1 != nil || err2 != nil {
			// Broken cue header; text lines below it get consumed by the
			// next scan iterations and dropped as non-cue lines.
			continue
		}

		var textLines []string
		for sc.Scan() {
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				break
			}
			if reCueLine.MatchString(text) {
				// Missing blank line between cues: this line is the next
				// cue's header, so close the current cue and hand the line
				// back to the outer loop.
				pending = text
				break
			}
			textLines = append(textLines, text)
		}

		text := CleanText(strings.Join(textLines, " "))
		if text == "" {
			continue
		}
		out = append(out, types.Caption{Start: start, End: end, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan captions: %w", err)
	}
	return out, nil
}

// CleanText strips inline angle-bracket markup (timing tags, <c> spans) and
// collapses runs of whitespace.
func CleanText(s string) string {
	s = reTag.ReplaceAllString(s, " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// ParseTimestamp parses "HH:MM:SS.mmm" or "MM:SS.mmm" cue timestamps.
func ParseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var h, m int
	var sec float64
	var err error
	switch len(parts) {
	case 3:
		if h, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid hours in %q", s)
		}
		if m, err = strconv.Atoi(parts[1]); err != nil {
			return 0, fmt.Errorf("invalid minutes in %q", s)
		}
		if sec, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0, fmt.Errorf("invalid seconds in %q", s)
		}
	case 2:
		if m, err = strconv.Atoi(parts[0]); err != nil {
			return 0, fmt.Errorf("invalid minutes in %q", s)
		}
		if sec, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return 0, fmt.Errorf("invalid seconds in %q", s)
		}
	default:
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	total := float64(h)*3600 + float64(m)*60 + sec
	return time.Duration(total * float64(time.Second)), nil
}

// FormatTimestamp renders a duration as HH:MM:SS for the session artifact.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
