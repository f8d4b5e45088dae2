package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/carenav/carenav/internal/knowledge"
)

const (
	// embedTimeout bounds query embedding so a slow embedder cannot stall
	// the pipeline.
	embedTimeout = 10 * time.Second

	// indexRetryDelay is the short backoff before the single retry on an
	// unavailable vector index.
	indexRetryDelay = 200 * time.Millisecond
)

// Index is the vector search surface the retriever depends on.
// *knowledge.Store satisfies it.
type Index interface {
	Search(ctx context.Context, queryEmbedding []float32, threshold float64, limit int) ([]knowledge.RetrievedChunk, error)
}

// Retriever embeds a query and searches the chunk index, applying the
// configured similarity threshold and result limit.
//
// Retriever is stateless per request and safe for concurrent use.
type Retriever struct {
	embedder  ai.Embedder
	index     Index
	threshold float64
	topK      int
	logger    *slog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder ai.Embedder, index Index, threshold float64, topK int, logger *slog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder:  embedder,
		index:     index,
		threshold: threshold,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Retrieve embeds queryText and returns the most similar chunks above the
// threshold. An unavailable index is retried once after a short backoff
// before the error is surfaced; the orchestrator decides whether to degrade
// to an empty-context prompt.
func (r *Retriever) Retrieve(ctx context.Context, queryText string) ([]knowledge.RetrievedChunk, error) {
	vec, err := r.embedQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}

	chunks, err := r.index.Search(ctx, vec, r.threshold, r.topK)
	if errors.Is(err, knowledge.ErrIndexUnavailable) {
		r.logger.Warn("vector index unavailable, retrying once", "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during index retry: %w", ctx.Err())
		case <-time.After(indexRetryDelay):
		}
		chunks, err = r.index.Search(ctx, vec, r.threshold, r.topK)
	}
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	r.logger.Debug("retrieval completed", "chunks", len(chunks))
	return chunks, nil
}

// embedQuery generates the fixed-dimension query embedding. The embedder is
// asked for knowledge.VectorDimension outputs directly; a response of any
// other length is rejected, never truncated.
func (r *Retriever) embedQuery(ctx context.Context, queryText string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	dim := int32(knowledge.VectorDimension)
	resp, err := r.embedder.Embed(embedCtx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(queryText, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := resp.Embeddings[0].Embedding
	if len(vec) != knowledge.VectorDimension {
		return nil, fmt.Errorf("%w: embedder returned %d dimensions, want %d",
			knowledge.ErrDimensionMismatch, len(vec), knowledge.VectorDimension)
	}
	return vec, nil
}
