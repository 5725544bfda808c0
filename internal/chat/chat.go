// Package chat implements the conversation strategies and the facade that
// dispatches between them.
//
// A strategy decides how an answer gets grounded: not at all (Disabled),
// with live web results (WebSearch), with ingested documents (VectorStore),
// or by letting the model call capabilities itself (Tools). The set of
// strategies is closed; an unknown name is rejected before any model or
// storage work happens.
package chat

import (
	"context"
	"fmt"
)

// Fallback is returned verbatim whenever the model produces an empty
// completion. Callers can rely on the exact string.
const Fallback = "Sorry, I don't know that."

// ErrUnknownStrategy is returned when a request names a strategy outside
// the closed set.
var ErrUnknownStrategy = fmt.Errorf("unknown strategy")

// ErrInvalidRecord is returned when an ingestion record cannot be parsed
// into documents.
var ErrInvalidRecord = fmt.Errorf("invalid record")

// Kind identifies one of the conversation strategies.
type Kind string

const (
	KindDisabled    Kind = "DISABLED"
	KindWebSearch   Kind = "WEB_SEARCH"
	KindVectorStore Kind = "VECTOR_STORE"
	KindTools       Kind = "TOOLS"
)

// Kinds returns every valid strategy kind.
func Kinds() []Kind {
	return []Kind{KindDisabled, KindWebSearch, KindVectorStore, KindTools}
}

// ParseKind validates a strategy name against the closed set. The match is
// exact; unknown names yield ErrUnknownStrategy.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDisabled, KindWebSearch, KindVectorStore, KindTools:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Strategy produces one answer for a question within a conversation.
// Implementations read the conversation history themselves but never write
// it; recording the exchange is the facade's job.
type Strategy interface {
	Answer(ctx context.Context, conversationID, question string) (string, error)
}
