package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// rewritePrompt instructs the model to produce exactly one self-contained
// search query and nothing else.
const rewritePrompt = `You rewrite user questions into one, self-contained web search query.
- Resolve pronouns and references using the provided conversation history.
- Include exact entity names and geo qualifiers when known.
- Prefer keywords useful for search (e.g., "address", "headquarters", "location", "official site").
- Output only the final query string. No explanations.

Conversation history:
%s

Current user question:
%s`

// Rewriter turns a context-dependent question into a standalone,
// search-optimized query by resolving references against the conversation
// history. It always runs before web retrieval so the search engine never
// sees a pronoun-laden question.
type Rewriter struct {
	completer Completer
	logger    *slog.Logger
}

// NewRewriter creates a memory-aware query rewriter.
func NewRewriter(completer Completer, logger *slog.Logger) (*Rewriter, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rewriter{completer: completer, logger: logger}, nil
}

// Rewrite returns a new Query whose Text is the rewritten search string.
// History and Context are preserved unchanged. If the model returns empty
// or whitespace-only output — or errors — the original question text is
// kept; the rewriter never produces an empty query and never blocks the
// pipeline.
func (r *Rewriter) Rewrite(ctx context.Context, q Query) Query {
	var historyText strings.Builder
	for i, msg := range q.History {
		if i > 0 {
			historyText.WriteString("\n")
		}
		historyText.WriteString(string(msg.Role))
		historyText.WriteString(": ")
		historyText.WriteString(msg.Text)
	}

	prompt := fmt.Sprintf(rewritePrompt, historyText.String(), q.Text)

	rewritten, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.Warn("query rewrite failed, keeping original question", "error", err)
		rewritten = ""
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		rewritten = q.Text
	} else {
		r.logger.Debug("rewrote query",
			"original_length", len(q.Text),
			"rewritten_length", len(rewritten))
	}

	return Query{Text: rewritten, History: q.History, Context: q.Context}
}
