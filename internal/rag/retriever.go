package rag

import (
	"context"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/cli/internal/db"
)

// Embedder converts query text into a fixed-dimension vector
type Embedder interface {
	Embed(ctx context.Context, text string) (*pgvector.Vector, error)
}

// Searcher is the slice of the vector store the retriever reads from
type Searcher interface {
	SearchSimilarChunks(ctx context.Context, embedding *pgvector.Vector, limit int) ([]*db.SearchResult, error)
}

// Passage is a retrieved chunk of document text with its source name
type Passage struct {
	Text   string
	Source string
}

// Retriever finds the most relevant and mutually diverse passages for a
// query. It over-fetches fetchK nearest candidates from the index and
// re-ranks them with maximal marginal relevance, trading pure similarity
// against redundancy within the returned set.
type Retriever struct {
	embed    Embedder
	searcher Searcher
	topK     int
	fetchK   int
	lambda   float64
	logger   *slog.Logger
}

// NewRetriever creates a retriever. topK is the number of passages
// returned, fetchK the candidate pool size, lambda the MMR relevance
// weight in [0,1] (1 = pure similarity, 0 = pure diversity).
func NewRetriever(embed Embedder, searcher Searcher, topK, fetchK int, lambda float64, logger *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if fetchK < topK {
		fetchK = topK * 4
	}
	if lambda < 0 || lambda > 1 {
		lambda = 0.5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embed:    embed,
		searcher: searcher,
		topK:     topK,
		fetchK:   fetchK,
		lambda:   lambda,
		logger:   logger,
	}
}

// Retrieve returns up to topK diverse passages relevant to the query.
// An empty or unreachable index yields an empty result, not an error, so
// the caller can degrade to conversational answering.
func (r *Retriever) Retrieve(ctx context.Context, query string) []Passage {
	queryVec, err := r.embed.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed, answering without context", "error", err)
		return nil
	}

	candidates, err := r.searcher.SearchSimilarChunks(ctx, queryVec, r.fetchK)
	if err != nil {
		r.logger.Warn("vector search failed, answering without context", "error", err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	selected := selectMMR(queryVec.Slice(), candidates, r.topK, r.lambda)

	passages := make([]Passage, 0, len(selected))
	for _, c := range selected {
		passages = append(passages, Passage{Text: c.Content, Source: c.Source})
	}
	return passages
}
