package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/brewchat/brewchat/internal/rag"
)

// RetryConfig configures the retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int           // maximum number of retry attempts
	InitialInterval time.Duration // initial backoff interval
	MaxInterval     time.Duration // maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by category. Matched
// case-insensitively against err.Error().
//
// NOTE: string matching because Genkit and the provider SDKs do not expose
// typed errors for transient failures. Re-evaluate if Genkit adds
// structured error types in a future version.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, sub := range group {
			if strings.Contains(errStr, sub) {
				return true
			}
		}
	}
	return false
}

// GenkitCompleter is the Genkit-backed Generator. It retries transient
// provider failures with exponential backoff and rate limits each attempt.
//
// It also satisfies rag.Completer for plain prompt-in, text-out calls such
// as query rewriting.
type GenkitCompleter struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
	retry     RetryConfig
	logger    *slog.Logger
}

var _ Generator = (*GenkitCompleter)(nil)
var _ rag.Completer = (*GenkitCompleter)(nil)

// NewGenkitCompleter creates a Generator bound to the given model.
func NewGenkitCompleter(g *genkit.Genkit, modelName string, logger *slog.Logger) (*GenkitCompleter, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenkitCompleter{
		g:         g,
		modelName: modelName,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
		retry:     DefaultRetryConfig(),
		logger:    logger,
	}, nil
}

// Generate produces one completion for the request, translating the
// history, documents, and tools into Genkit options.
func (c *GenkitCompleter) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}
	if len(req.History) > 0 {
		opts = append(opts, ai.WithMessages(historyMessages(req.History)...))
	}
	if len(req.Documents) > 0 {
		docs := make([]*ai.Document, 0, len(req.Documents))
		for _, d := range req.Documents {
			metadata := make(map[string]any, len(d.Metadata))
			for k, v := range d.Metadata {
				metadata[k] = v
			}
			docs = append(docs, ai.DocumentFromText(d.Text, metadata))
		}
		opts = append(opts, ai.WithDocs(docs...))
	}
	if len(req.Tools) > 0 {
		opts = append(opts, ai.WithTools(req.Tools...))
		if req.MaxTurns > 0 {
			opts = append(opts, ai.WithMaxTurns(req.MaxTurns))
		}
	}
	opts = append(opts, ai.WithPrompt("%s", req.Prompt))

	resp, err := c.generateWithRetry(ctx, opts)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Complete satisfies rag.Completer: one plain prompt, no history, no
// documents.
func (c *GenkitCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Generate(ctx, CompletionRequest{Prompt: prompt})
}

// generateWithRetry executes the model call with exponential backoff.
// Every attempt passes through the rate limiter, retries included.
func (c *GenkitCompleter) generateWithRetry(ctx context.Context, opts []ai.GenerateOption) (*ai.ModelResponse, error) {
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := genkit.Generate(ctx, c.g, opts...)
		if err == nil {
			c.logger.Debug("model call succeeded",
				"model", c.modelName,
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp, nil
		}

		lastErr = err

		if !retryableError(err) {
			return nil, fmt.Errorf("generate: %w", err)
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying model call",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retry.MaxInterval)
		}
	}

	return nil, fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		c.retry.MaxRetries, time.Since(start), lastErr)
}
