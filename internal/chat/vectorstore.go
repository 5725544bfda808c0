package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/brewchat/brewchat/internal/knowledge"
	"github.com/brewchat/brewchat/internal/rag"
)

const vectorStoreSystem = `You are BrewChat, the assistant of a specialty coffee retailer.
Answer the user's question using the attached catalog documents when they are relevant.
Prefer facts from the documents over your own knowledge.
If the documents do not help, answer from your own knowledge.`

// DocumentAdder is the write side of the knowledge store the ingestion path
// consumes.
type DocumentAdder interface {
	Add(ctx context.Context, docs []knowledge.Document) error
}

// VectorStore grounds answers in ingested documents retrieved by similarity
// to the raw question. It also owns the ingestion path that fills the store.
type VectorStore struct {
	generator Generator
	retriever rag.Retriever
	documents DocumentAdder
	history   HistorySource
	logger    *slog.Logger
}

// NewVectorStore creates the knowledge-grounded strategy.
func NewVectorStore(generator Generator, retriever rag.Retriever, documents DocumentAdder, history HistorySource, logger *slog.Logger) (*VectorStore, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if documents == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorStore{
		generator: generator,
		retriever: retriever,
		documents: documents,
		history:   history,
		logger:    logger,
	}, nil
}

// Answer retrieves documents similar to the raw question and generates with
// them attached. An unreachable store yields no documents, not an error.
func (s *VectorStore) Answer(ctx context.Context, conversationID, question string) (string, error) {
	history, err := s.history.History(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}

	docs, err := s.retriever.Retrieve(ctx, rag.Query{Text: question, History: history})
	if err != nil {
		return "", fmt.Errorf("retrieving documents: %w", err)
	}
	s.logger.Debug("vector store strategy", "conversation_id", conversationID, "documents", len(docs))

	text, err := s.generator.Generate(ctx, CompletionRequest{
		System:    vectorStoreSystem,
		History:   history,
		Prompt:    question,
		Documents: docs,
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return orFallback(text), nil
}

// Ingest parses one JSON record into documents and stores them. The call is
// synchronous and all-or-nothing: when it returns nil, every document of
// the record is searchable; on error, none is.
func (s *VectorStore) Ingest(ctx context.Context, record json.RawMessage) error {
	docs, err := knowledge.Read(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := s.documents.Add(ctx, docs); err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}
	s.logger.Info("ingested record", "documents", len(docs))
	return nil
}
