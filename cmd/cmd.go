// Package cmd provides the brewchat CLI commands.
//
// Commands:
//   - serve: HTTP API server exposing the chat and ingestion endpoints
//   - ask: one-shot question from the terminal
//   - ingest: load a JSON record into the knowledge base
//
// Signal handling and graceful shutdown are implemented for all commands
// via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/brewchat/brewchat/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Execute is the main entry point for the brewchat CLI.
func Execute() error {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ask":
		return runAsk(os.Args[2:])
	case "ingest":
		return runIngest(os.Args[2:])
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("BrewChat - AI assistant for a specialty coffee retailer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  brewchat serve                       Start the HTTP API server")
	fmt.Println("  brewchat ask <strategy> <question>   Ask a one-shot question")
	fmt.Println("  brewchat ingest <file>               Ingest a JSON record (- for stdin)")
	fmt.Println("  brewchat --version                   Show version information")
	fmt.Println("  brewchat --help                      Show this help")
	fmt.Println()
	fmt.Println("Strategies:")
	fmt.Println("  DISABLED       Answer from the model alone")
	fmt.Println("  WEB_SEARCH     Ground answers in live web results")
	fmt.Println("  VECTOR_STORE   Ground answers in ingested documents")
	fmt.Println("  TOOLS          Let the model call capabilities itself")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY   Gemini API key (default provider)")
	fmt.Println("  TAVILY_API_KEY   Tavily web search API key")
	fmt.Println("  DEBUG            Enable debug logging")
}
