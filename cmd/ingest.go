package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brewchat/brewchat/internal/app"
	"github.com/brewchat/brewchat/internal/config"
)

// runIngest loads one JSON record into the knowledge base. The record comes
// from the named file, or from stdin when the argument is "-".
func runIngest(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: brewchat ingest <file> (- for stdin)")
	}

	var record []byte
	var err error
	if args[0] == "-" {
		record, err = io.ReadAll(os.Stdin)
	} else {
		record, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading record: %w", err)
	}

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

	if err := a.Conversations.Ingest(ctx, json.RawMessage(record)); err != nil {
		return err
	}

	fmt.Println("record ingested")
	return nil
}
