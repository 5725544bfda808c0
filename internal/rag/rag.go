// Package rag provides the retrieval building blocks for the chat
// strategies: the query/document types, the memory-aware query rewriter,
// and the similarity retriever over the vector store.
//
// Retrievers degrade instead of failing: an unreachable backend yields an
// empty document list (logged), so the calling strategy still produces an
// answer, just ungrounded. Scores are retriever-specific — cosine
// similarity for the similarity retriever, search-engine relevance for the
// web retriever — and are not comparable across retriever types.
package rag

import (
	"context"

	"github.com/brewchat/brewchat/internal/memory"
)

// Retrieval parameters for the similarity retriever. Documents scoring below
// the threshold are excluded — recall is traded for precision — and at most
// TopK documents are returned, highest score first.
const (
	SimilarityThreshold = 0.4
	TopK                = 3
)

// Query carries a retrieval query together with the conversation context it
// was asked in. History is borrowed read-only; Context entries pass through
// the pipeline untouched.
type Query struct {
	Text    string
	History []memory.Message
	Context map[string]any
}

// Document is one retrieved grounding document. Web results carry at least
// "title" and "url" in Metadata.
type Document struct {
	Text     string
	Metadata map[string]string
	Score    float64
}

// Retriever returns ranked, scored documents for a query.
//
// Implementations return an empty slice — not an error — when the upstream
// backend fails or has no results; the error return is reserved for context
// cancellation.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) ([]Document, error)
}

// Completer produces one model completion for a plain text prompt. It is
// the narrow slice of the completion provider that the rewriter needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
