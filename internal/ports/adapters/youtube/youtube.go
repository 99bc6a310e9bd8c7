package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erniesg/capless/internal/domain/videomatch"
	"github.com/erniesg/capless/internal/types"
)

// Adapter reads video metadata from the YouTube Data API v3.
type Adapter struct {
	key     string
	baseURL string
	client  *http.Client
}

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// searchWindow bounds the publishedAfter/publishedBefore search range around
// the target date. Sittings publish within days of the date; a week each way
// keeps the result set small without missing late uploads.
const searchWindow = 7 * 24 * time.Hour

func New(apiKey string, baseURL string) *Adapter {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{key: apiKey, baseURL: baseURL, client: &http.Client{Timeout: 30 * time.Second}}
}

// ListVideos searches for query near the given date and resolves duration
// and livestream details for each hit.
func (a *Adapter) ListVideos(ctx context.Context, query string, around time.Time) ([]types.VideoCandidate, error) {
	ids, err := a.search(ctx, query, around)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return a.details(ctx, ids)
}

func (a *Adapter) search(ctx context.Context, query string, around time.Time) ([]string, error) {
	q := url.Values{}
	q.Set("part", "id")
	q.Set("type", "video")
	q.Set("maxResults", "25")
	q.Set("q", query)
	q.Set("key", a.key)
	if !around.IsZero() {
		q.Set("publishedAfter", around.Add(-searchWindow).UTC().Format(time.RFC3339))
		q.Set("publishedBefore", around.Add(searchWindow).UTC().Format(time.RFC3339))
	}

	var resp struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}
	if err := a.get(ctx, "/search", q, &resp); err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID != "" {
			ids = append(ids, it.ID.VideoID)
		}
	}
	return ids, nil
}

func (a *Adapter) details(ctx context.Context, ids []string) ([]types.VideoCandidate, error) {
	q := url.Values{}
	q.Set("part", "snippet,contentDetails,liveStreamingDetails")
	q.Set("id", strings.Join(ids, ","))
	q.Set("key", a.key)

	var resp struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title                string    `json:"title"`
				Description          string    `json:"description"`
				PublishedAt          time.Time `json:"publishedAt"`
				LiveBroadcastContent string    `json:"liveBroadcastContent"`
			} `json:"snippet"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
			LiveStreamingDetails *struct {
				ActualStartTime time.Time `json:"actualStartTime"`
			} `json:"liveStreamingDetails"`
		} `json:"items"`
	}
	if err := a.get(ctx, "/videos", q, &resp); err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}

	out := make([]types.VideoCandidate, 0, len(resp.Items))
	for _, it := range resp.Items {
		v := types.VideoCandidate{
			ID:          it.ID,
			Title:       it.Snippet.Title,
			Description: it.Snippet.Description,
			PublishedAt: it.Snippet.PublishedAt,
		}
		if d, err := videomatch.ParseISODuration(it.ContentDetails.Duration); err == nil {
			v.Duration = d
		}
		if it.LiveStreamingDetails != nil {
			v.IsLivestream = true
			v.ActualStart = it.LiveStreamingDetails.ActualStartTime
		}
		out = append(out, v)
	}
	return out, nil
}

func (a *Adapter) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("youtube api status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
