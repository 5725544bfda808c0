package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a Recorder backed by PostgreSQL.
//
// Appends to the same conversation are serialized with a per-conversation
// advisory lock held for the insert transaction, so sequence numbers are
// assigned without gaps or interleaving even under concurrent callers.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a PostgreSQL-backed recorder.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Append inserts messages for the conversation in argument order.
func (s *Store) Append(ctx context.Context, conversationID string, messages ...Message) error {
	if conversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	// Serialize concurrent Append() calls for the same conversation.
	// pg_advisory_xact_lock releases automatically at commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, conversationID); err != nil {
		return fmt.Errorf("acquiring advisory lock: %w", err)
	}

	var maxSeq int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) FROM conversation_messages WHERE conversation_id = $1`,
		conversationID,
	).Scan(&maxSeq)
	if err != nil {
		return fmt.Errorf("reading max sequence number: %w", err)
	}

	for i, msg := range messages {
		seq := maxSeq + int64(i) + 1
		if _, err := tx.Exec(ctx,
			`INSERT INTO conversation_messages (conversation_id, sequence_number, role, content)
			 VALUES ($1, $2, $3, $4)`,
			conversationID, seq, string(msg.Role), msg.Text,
		); err != nil {
			return fmt.Errorf("inserting message %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("appended messages", "conversation_id", conversationID, "count", len(messages))
	return nil
}

// History returns the conversation's messages ordered by sequence number,
// oldest first. Unknown conversation ids yield an empty slice.
func (s *Store) History(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, content FROM conversation_messages
		 WHERE conversation_id = $1
		 ORDER BY sequence_number`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, Message{Role: Role(role), Text: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	if out == nil {
		out = []Message{}
	}
	return out, nil
}
