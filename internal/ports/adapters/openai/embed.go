package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

const maxEmbedBatch = 100

// EmbedBatch generates one embedding per input text, preserving order.
func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := start + maxEmbedBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := a.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (a *Adapter) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := a.withRetries(ctx, func() error {
		resp, err := a.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModel(a.embeddingModel),
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return errors.New("embedding count does not match input count")
		}
		vectors = vectors[:0]
		for _, d := range resp.Data {
			v := make([]float32, len(d.Embedding))
			for i, x := range d.Embedding {
				v[i] = float32(x)
			}
			vectors = append(vectors, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	return vectors, nil
}
