package chat

import (
	"context"

	"github.com/firebase/genkit/go/ai"

	"github.com/brewchat/brewchat/internal/memory"
	"github.com/brewchat/brewchat/internal/rag"
)

// CompletionRequest describes one model call made by a strategy.
type CompletionRequest struct {
	// System is the system instruction, empty for none.
	System string
	// History is the prior conversation, oldest first.
	History []memory.Message
	// Prompt is the current user question.
	Prompt string
	// Documents are grounding documents attached to the call.
	Documents []rag.Document
	// Tools are capabilities the model may invoke during the call.
	Tools []ai.ToolRef
	// MaxTurns caps tool-call round trips; 0 uses the provider default.
	MaxTurns int
}

// historyMessages converts stored conversation turns into model messages,
// oldest first. Unknown roles are treated as user turns.
func historyMessages(history []memory.Message) []*ai.Message {
	msgs := make([]*ai.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case memory.RoleAssistant:
			msgs = append(msgs, ai.NewModelMessage(ai.NewTextPart(m.Text)))
		default:
			msgs = append(msgs, ai.NewUserMessage(ai.NewTextPart(m.Text)))
		}
	}
	return msgs
}

// Generator is the model boundary the strategies talk to. Each strategy
// owns its own Generator instance so one strategy's state never bleeds
// into another's.
type Generator interface {
	// Generate produces one completion. The returned text may be empty;
	// mapping empty completions to Fallback is the caller's job.
	Generate(ctx context.Context, req CompletionRequest) (string, error)
}
