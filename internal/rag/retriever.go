package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brewchat/brewchat/internal/knowledge"
)

// SearchStore is the slice of the vector store the similarity retriever
// consumes.
type SearchStore interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// SimilarityRetriever retrieves documents from the vector store by cosine
// similarity, filtered by SimilarityThreshold and truncated to TopK.
type SimilarityRetriever struct {
	store  SearchStore
	logger *slog.Logger
}

// NewSimilarityRetriever creates a retriever over the given vector store.
func NewSimilarityRetriever(store SearchStore, logger *slog.Logger) (*SimilarityRetriever, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SimilarityRetriever{store: store, logger: logger}, nil
}

// Retrieve returns at most TopK documents scoring at least
// SimilarityThreshold, highest score first. A failing backend degrades to
// an empty result list; only context cancellation surfaces as an error.
func (r *SimilarityRetriever) Retrieve(ctx context.Context, q Query) ([]Document, error) {
	results, err := r.store.Search(ctx, q.Text,
		knowledge.WithTopK(TopK),
		knowledge.WithThreshold(SimilarityThreshold),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("similarity retrieval failed, continuing without context",
			"error", err, "query_length", len(q.Text))
		return []Document{}, nil
	}

	docs := make([]Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, Document{
			Text:     res.Document.Content,
			Metadata: res.Document.Metadata,
			Score:    res.Similarity,
		})
	}

	r.logger.Debug("similarity retrieval", "query_length", len(q.Text), "documents", len(docs))
	return docs, nil
}
