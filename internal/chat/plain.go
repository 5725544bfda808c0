package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brewchat/brewchat/internal/memory"
)

// HistorySource is the read-only slice of conversation memory the
// strategies consume.
type HistorySource interface {
	History(ctx context.Context, conversationID string) ([]memory.Message, error)
}

// Disabled answers from the model alone: no retrieval, no tools, no system
// prompt. The question and prior history go to the provider as-is. It is the
// baseline every other strategy augments.
type Disabled struct {
	generator Generator
	history   HistorySource
	logger    *slog.Logger
}

// NewDisabled creates the retrieval-free strategy.
func NewDisabled(generator Generator, history HistorySource, logger *slog.Logger) (*Disabled, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Disabled{generator: generator, history: history, logger: logger}, nil
}

// Answer produces a completion grounded only in the conversation history.
func (s *Disabled) Answer(ctx context.Context, conversationID, question string) (string, error) {
	history, err := s.history.History(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}

	text, err := s.generator.Generate(ctx, CompletionRequest{
		History: history,
		Prompt:  question,
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return orFallback(text), nil
}

// orFallback maps an empty or whitespace-only completion to the Fallback
// string; any other completion passes through unchanged.
func orFallback(text string) string {
	if strings.TrimSpace(text) == "" {
		return Fallback
	}
	return text
}
