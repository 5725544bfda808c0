package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/brewchat/brewchat/internal/app"
	"github.com/brewchat/brewchat/internal/config"
)

// runAsk answers one question from the command line. Each invocation is its
// own conversation.
func runAsk(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: brewchat ask <strategy> <question>")
	}
	strategy := args[0]
	question := strings.Join(args[1:], " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	answer, err := a.Conversations.Ask(ctx, strategy, uuid.New().String(), question)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}
