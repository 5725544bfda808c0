package memory

import (
	"context"
	"sync"
)

// InMemory is a Recorder backed by process memory.
//
// A per-conversation mutex serializes appends to the same id while leaving
// appends to different ids independent. Safe for concurrent use.
type InMemory struct {
	mu            sync.Mutex // guards conversations map
	conversations map[string]*conversation
}

type conversation struct {
	mu       sync.Mutex
	messages []Message
}

// NewInMemory creates an empty in-memory recorder.
func NewInMemory() *InMemory {
	return &InMemory{conversations: make(map[string]*conversation)}
}

// conversationFor returns the conversation for id, creating it if absent.
func (m *InMemory) conversationFor(id string) *conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		c = &conversation{}
		m.conversations[id] = c
	}
	return c
}

// Append adds messages to the conversation in argument order.
func (m *InMemory) Append(ctx context.Context, conversationID string, messages ...Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := m.conversationFor(conversationID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, messages...)
	return nil
}

// History returns a copy of the conversation's messages, oldest first.
// Unknown conversation ids yield an empty slice without allocating an
// entry, so reads never grow the map.
func (m *InMemory) History(ctx context.Context, conversationID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	c, ok := m.conversations[conversationID]
	m.mu.Unlock()
	if !ok {
		return []Message{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out, nil
}
