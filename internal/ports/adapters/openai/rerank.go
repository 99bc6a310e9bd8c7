package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erniesg/capless/internal/domain/moments"
	"github.com/erniesg/capless/internal/types"
)

const rerankSystemPrompt = "You are an expert content strategist. Return only valid JSON, no markdown."

// Rerank sends the full deduplicated candidate list plus the session summary
// to the model and returns its per-moment verdicts. Callers apply the
// verdicts with moments.ApplyRanking and fall back to the extraction-time
// scores on error.
func (a *Adapter) Rerank(ctx context.Context, cands []types.Moment, session moments.SessionContext) ([]types.Ranking, error) {
	if len(cands) == 0 {
		return nil, nil
	}

	content, err := a.chatJSON(ctx, rerankSystemPrompt, buildRerankPrompt(cands, session))
	if err != nil {
		return nil, fmt.Errorf("rerank %d candidates: %w", len(cands), err)
	}

	var out struct {
		Ranked []types.Ranking `json:"ranked_moments"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("decode reranked moments: %w", err)
	}
	return out.Ranked, nil
}

func buildRerankPrompt(cands []types.Moment, session moments.SessionContext) string {
	var summaries strings.Builder
	for i, m := range cands {
		quote := m.Quote
		if len(quote) > 100 {
			quote = quote[:100]
		}
		speaker := m.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		// Numbered from 0 so the listed index is the original_index the
		// model must echo back.
		fmt.Fprintf(&summaries, "%d. [%.1f] %s: %q\n", i, m.Score, speaker, quote)
	}

	sessionJSON, _ := json.Marshal(session)

	return fmt.Sprintf(`You are reviewing ALL candidate moments extracted from a parliamentary session.

Session context:
%s

Here are %d candidate moments that were extracted:

%s
Your task:
1. Consider each moment's virality potential in the context of the FULL session
2. Re-score each moment if needed (some may be less unique when seeing all moments together)
3. Return ALL moments ranked by final priority (highest to lowest)

Prioritize:
- Unique perspectives (avoid multiple variations of the same point)
- Diversity of topics and speakers
- Mix of problematic and wholesome moments
- Truly standout content that will get shared

Return a JSON object with:
{
  "ranked_moments": [
    {
      "original_index": 0,
      "final_score": 8.5,
      "ranking_reason": "Brief explanation of ranking"
    }
  ]
}

original_index is the moment's 0-based position in the list above. Return all %d moments in ranked order.`,
		sessionJSON, len(cands), summaries.String(), len(cands))
}
