package openai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Adapter implements the extraction, embedding, and reranking ports against
// the OpenAI API.
type Adapter struct {
	client openai.Client

	chatModel      string
	embeddingModel string

	maxRetries int
	after      func(time.Duration) <-chan time.Time

	minPerChunk int
	maxPerChunk int
}

const (
	DefaultChatModel      = "gpt-5-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"

	defaultMaxRetries  = 3
	defaultMinPerChunk = 3
	defaultMaxPerChunk = 5
)

type Option func(*Adapter)

// WithChatModel overrides the extraction/reranking model.
func WithChatModel(model string) Option {
	return func(a *Adapter) { a.chatModel = model }
}

// WithEmbeddingModel overrides the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(a *Adapter) { a.embeddingModel = model }
}

// WithMomentsPerChunk bounds how many moments one chunk may contribute.
func WithMomentsPerChunk(min, max int) Option {
	return func(a *Adapter) {
		if min > 0 && max >= min {
			a.minPerChunk, a.maxPerChunk = min, max
		}
	}
}

func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		client:         openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:      DefaultChatModel,
		embeddingModel: DefaultEmbeddingModel,
		maxRetries:     defaultMaxRetries,
		after:          time.After,
		minPerChunk:    defaultMinPerChunk,
		maxPerChunk:    defaultMaxPerChunk,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// withRetries runs fn up to maxRetries times with exponential backoff and
// jitter, matching the rate-limit behavior the API expects.
func (a *Adapter) withRetries(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == a.maxRetries-1 {
			break
		}
		wait := time.Duration(1<<attempt)*time.Second + time.Duration(rand.Int63n(int64(time.Second)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.after(wait):
		}
	}
	return fmt.Errorf("after %d attempts: %w", a.maxRetries, err)
}

func (a *Adapter) chatJSON(ctx context.Context, system, user string) (string, error) {
	var content string
	err := a.withRetries(ctx, func() error {
		resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: a.chatModel,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty completion")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return extractJSONObject(content)
}

// extractJSONObject pulls the outermost JSON object out of model output that
// may be wrapped in code fences or prose.
func extractJSONObject(s string) (string, error) {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", errors.New("no JSON object in model output")
	}
	return s[start : end+1], nil
}
