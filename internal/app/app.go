// Package app assembles the application: configuration, database, the AI
// provider, and the chat facade, with cleanup in reverse order.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brewchat/brewchat/internal/chat"
	"github.com/brewchat/brewchat/internal/config"
)

// App holds the assembled application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Pool          *pgxpool.Pool
	Genkit        *genkit.Genkit
	Conversations *chat.Conversations

	cleanups []func()
}

// New builds the full application from configuration. Callers must Close
// the returned App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Web search backs two of the four strategies, so its configuration is
	// a startup requirement, not a per-request one.
	if err := cfg.ValidateWebSearch(); err != nil {
		return nil, fmt.Errorf("validating web search config: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}
	if err := a.setup(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases resources in reverse setup order.
func (a *App) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

func (a *App) onClose(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}
