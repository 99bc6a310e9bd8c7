package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erniesg/capless/internal/types"
)

const extractSystemPrompt = "You are an expert content curator for viral political moments. Return only valid JSON, no markdown."

// Extract asks the model for candidate moments in one chunk's caption text.
// Source chunk index and overlap flags are stamped by the caller, which
// knows the chunk geometry.
func (a *Adapter) Extract(ctx context.Context, chunk types.Chunk) ([]types.Moment, error) {
	content, err := a.chatJSON(ctx, extractSystemPrompt, a.buildExtractPrompt(chunk.Text()))
	if err != nil {
		return nil, fmt.Errorf("extract chunk %d: %w", chunk.Index, err)
	}

	var out struct {
		Moments []struct {
			Quote      string  `json:"quote"`
			Speaker    string  `json:"speaker"`
			WhyViral   string  `json:"why_viral"`
			ViralScore float64 `json:"viral_score"`
			Category   string  `json:"category"`
			Title      string  `json:"title"`
		} `json:"moments"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("extract chunk %d: decode moments: %w", chunk.Index, err)
	}

	moments := make([]types.Moment, 0, len(out.Moments))
	for _, m := range out.Moments {
		quote := strings.TrimSpace(m.Quote)
		if quote == "" {
			continue
		}
		moments = append(moments, types.Moment{
			Quote:       quote,
			Speaker:     strings.TrimSpace(m.Speaker),
			Title:       strings.TrimSpace(m.Title),
			Category:    strings.TrimSpace(m.Category),
			WhyViral:    strings.TrimSpace(m.WhyViral),
			Score:       m.ViralScore,
			SourceChunk: chunk.Index,
		})
		if len(moments) >= a.maxPerChunk {
			break
		}
	}
	return moments, nil
}

func (a *Adapter) buildExtractPrompt(chunkText string) string {
	return fmt.Sprintf(`You are extracting CANDIDATE moments from a SECTION of a longer parliamentary session.

Be SELECTIVE. Only extract moments that are TRULY viral-worthy:
- Score 8+ material: Shocking, hilarious, or deeply problematic
- Score 7-8 material: Strong shareable content
- Skip anything below 7

Extract %d-%d moments maximum. If this section has fewer than %d strong moments, return fewer.

Remember: This is just one section. Other parts of the session may have better moments.

Look for moments that are PROBLEMATIC:
- Bureaucratic doublespeak or dense jargon
- Contradictions or illogical reasoning
- Defensive or evasive responses
- Out-of-touch statements

Look for moments that are WHOLESOME/POSITIVE:
- Compassionate responses showing empathy
- Bold policy commitments
- Pragmatic solutions
- Inspiring statements

Return ONLY a JSON object with this structure:
{
  "moments": [
    {
      "quote": "Exact verbatim quote from transcript (15-40 words optimal)",
      "speaker": "Speaker name if identifiable",
      "why_viral": "Why this will go viral (1-2 sentences)",
      "viral_score": 7.0-10.0,
      "category": "Reality Check/Drama Alert/Wholesome/etc",
      "title": "Catchy 5-10 word headline"
    }
  ]
}

Transcript section:
%s`, a.minPerChunk, a.maxPerChunk, a.minPerChunk, chunkText)
}
