// Package memory implements per-conversation message history.
//
// A conversation is identified by an opaque caller-chosen id. History is
// append-only and ordered: the sequence returned by History is the exact
// order messages were appended, oldest first. Appends to the same
// conversation are serialized (per-id locking); appends to different
// conversations are independent.
//
// Two implementations are provided: Store (PostgreSQL, production) and
// InMemory (tests and database-less runs).
//
// History growth is unbounded. Capping or summarization is a deliberate
// extension point on the Recorder interface, not implemented here.
package memory

import "context"

// Role identifies the author of a message.
type Role string

// The two roles a conversation message can carry.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. Immutable once appended.
type Message struct {
	Role Role
	Text string
}

// Recorder stores and returns ordered per-conversation message history.
//
// History returns an empty slice (not an error) for a conversation that has
// never been written. Append with multiple messages must apply them in
// argument order with no interleaving from concurrent appends to the same
// conversation id.
type Recorder interface {
	Append(ctx context.Context, conversationID string, messages ...Message) error
	History(ctx context.Context, conversationID string) ([]Message, error)
}
