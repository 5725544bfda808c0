package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brewchat/brewchat/internal/rag"
)

const webSearchSystem = `You are BrewChat, the assistant of a specialty coffee retailer.
Answer the user's question using the attached web search results when they are relevant.
Cite the source URL when your answer relies on a result.
If the results do not help, answer from your own knowledge.`

// QueryRewriter rewrites a question into a standalone search query.
type QueryRewriter interface {
	Rewrite(ctx context.Context, q rag.Query) rag.Query
}

// WebSearch grounds answers in live web results. The question is first
// rewritten against the conversation history so the search engine never
// sees unresolved pronouns, then searched, then answered with the results
// attached.
type WebSearch struct {
	generator Generator
	rewriter  QueryRewriter
	retriever rag.Retriever
	history   HistorySource
	logger    *slog.Logger
}

// NewWebSearch creates the web-grounded strategy.
func NewWebSearch(generator Generator, rewriter QueryRewriter, retriever rag.Retriever, history HistorySource, logger *slog.Logger) (*WebSearch, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if rewriter == nil {
		return nil, fmt.Errorf("rewriter is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSearch{
		generator: generator,
		rewriter:  rewriter,
		retriever: retriever,
		history:   history,
		logger:    logger,
	}, nil
}

// Answer rewrites, searches, then generates. A failed search yields no
// documents, not an error; the model still answers.
func (s *WebSearch) Answer(ctx context.Context, conversationID, question string) (string, error) {
	history, err := s.history.History(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}

	query := s.rewriter.Rewrite(ctx, rag.Query{Text: question, History: history})

	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieving web results: %w", err)
	}
	s.logger.Debug("web search strategy", "conversation_id", conversationID, "documents", len(docs))

	text, err := s.generator.Generate(ctx, CompletionRequest{
		System:    webSearchSystem,
		History:   history,
		Prompt:    question,
		Documents: docs,
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return orFallback(text), nil
}
