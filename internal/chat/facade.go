package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/brewchat/brewchat/internal/memory"
)

// Conversations is the facade in front of the strategies. It validates the
// requested strategy before any model or storage work, runs it, and records
// the exchange in conversation memory afterwards.
type Conversations struct {
	strategies map[Kind]Strategy
	ingester   *VectorStore
	recorder   memory.Recorder
	logger     *slog.Logger
}

// NewConversations wires the facade. Every kind in the closed set must be
// bound to a strategy; a partial map is a construction error, not a runtime
// surprise.
func NewConversations(strategies map[Kind]Strategy, ingester *VectorStore, recorder memory.Recorder, logger *slog.Logger) (*Conversations, error) {
	for _, kind := range Kinds() {
		if strategies[kind] == nil {
			return nil, fmt.Errorf("no strategy bound for %s", kind)
		}
	}
	if ingester == nil {
		return nil, fmt.Errorf("ingester is required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversations{
		strategies: strategies,
		ingester:   ingester,
		recorder:   recorder,
		logger:     logger,
	}, nil
}

// Ask answers a question with the named strategy. An unknown strategy name
// fails with ErrUnknownStrategy before any side effect. On success the
// question and answer are appended to the conversation as one unit, so
// every later question in the conversation sees this exchange.
func (c *Conversations) Ask(ctx context.Context, strategy, conversationID, question string) (string, error) {
	kind, err := ParseKind(strategy)
	if err != nil {
		return "", err
	}
	if conversationID == "" {
		return "", fmt.Errorf("conversation id is required")
	}
	if question == "" {
		return "", fmt.Errorf("question is required")
	}

	answer, err := c.strategies[kind].Answer(ctx, conversationID, question)
	if err != nil {
		return "", fmt.Errorf("%s strategy: %w", kind, err)
	}

	if err := c.recorder.Append(ctx, conversationID,
		memory.Message{Role: memory.RoleUser, Text: question},
		memory.Message{Role: memory.RoleAssistant, Text: answer},
	); err != nil {
		return "", fmt.Errorf("recording exchange: %w", err)
	}

	c.logger.Info("answered question",
		"strategy", kind,
		"conversation_id", conversationID,
		"answer_length", len(answer),
	)
	return answer, nil
}

// Ingest stores one JSON record in the knowledge base. Ingestion always
// goes through the vector store path, whatever strategy later questions
// use.
func (c *Conversations) Ingest(ctx context.Context, record json.RawMessage) error {
	return c.ingester.Ingest(ctx, record)
}
