package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/brewchat/brewchat/internal/rag"
)

const toolsSystem = `You are BrewChat, the assistant of a specialty coffee retailer.
You can call tools to look up coffees from the shop catalog and to search the web.
Call getCoffeeDetails for questions about coffees the shop sells; call searchInternet
for anything needing current or external information. An empty tool result means
nothing was found. Answer concisely from what the tools return.`

// searchInput is the single-argument shape both capabilities accept.
type searchInput struct {
	Query string `json:"query"`
}

// Tools lets the model decide how to ground its answer by calling
// capabilities: a catalog lookup over the ingested documents and a live web
// search. Capability failures never cross the model boundary; a failed call
// reads as an empty result and the model answers with what it has.
type Tools struct {
	generator Generator
	catalog   rag.Retriever
	web       rag.Retriever
	rewriter  QueryRewriter
	history   HistorySource
	maxTurns  int
	logger    *slog.Logger

	refs []ai.ToolRef
}

// NewTools creates the tool-calling strategy. Register must be called
// before the first Answer.
func NewTools(generator Generator, catalog, web rag.Retriever, rewriter QueryRewriter, history HistorySource, maxTurns int, logger *slog.Logger) (*Tools, error) {
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog retriever is required")
	}
	if web == nil {
		return nil, fmt.Errorf("web retriever is required")
	}
	if rewriter == nil {
		return nil, fmt.Errorf("rewriter is required")
	}
	if history == nil {
		return nil, fmt.Errorf("history source is required")
	}
	if maxTurns <= 0 {
		return nil, fmt.Errorf("max turns must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		generator: generator,
		catalog:   catalog,
		web:       web,
		rewriter:  rewriter,
		history:   history,
		maxTurns:  maxTurns,
		logger:    logger,
	}, nil
}

// Register defines the capabilities on the Genkit instance. It must run
// once during startup, after the instance exists and before serving.
func (s *Tools) Register(g *genkit.Genkit) error {
	if g == nil {
		return fmt.Errorf("genkit instance is required")
	}

	coffeeDetails := genkit.DefineTool(g, "getCoffeeDetails",
		"Look up coffees from the shop catalog by name, origin, flavor notes, or roaster. "+
			"Returns the matching catalog entries, or nothing when no coffee matches.",
		s.coffeeDetails)

	searchInternet := genkit.DefineTool(g, "searchInternet",
		"Search the web for current or external information such as addresses, "+
			"opening hours, news, or anything not in the shop catalog. "+
			"Returns result snippets with source URLs, or nothing when the search fails.",
		s.searchInternet)

	s.refs = []ai.ToolRef{coffeeDetails, searchInternet}
	s.logger.Info("registered chat tools", "count", len(s.refs))
	return nil
}

// coffeeDetails is the catalog lookup capability.
func (s *Tools) coffeeDetails(tc *ai.ToolContext, in searchInput) (string, error) {
	docs, err := s.catalog.Retrieve(tc.Context, rag.Query{Text: in.Query})
	if err != nil {
		s.logger.Warn("catalog capability failed", "error", err)
		return "", nil
	}
	return renderDocuments(docs), nil
}

// searchInternet is the web search capability. The model-authored query is
// still passed through the rewriter for search keyword shaping.
func (s *Tools) searchInternet(tc *ai.ToolContext, in searchInput) (string, error) {
	query := s.rewriter.Rewrite(tc.Context, rag.Query{Text: in.Query})
	docs, err := s.web.Retrieve(tc.Context, query)
	if err != nil {
		s.logger.Warn("web capability failed", "error", err)
		return "", nil
	}
	return renderDocuments(docs), nil
}

// renderDocuments flattens retrieved documents into one text block for the
// model, one document per section with its metadata.
func renderDocuments(docs []rag.Document) string {
	if len(docs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(doc.Text)
		if url, ok := doc.Metadata["url"]; ok {
			b.WriteString("\nSource: ")
			b.WriteString(url)
		}
	}
	return b.String()
}

// Answer lets the model drive: it may call capabilities up to maxTurns
// rounds before producing the final text.
func (s *Tools) Answer(ctx context.Context, conversationID, question string) (string, error) {
	if len(s.refs) == 0 {
		return "", fmt.Errorf("tools not registered")
	}

	history, err := s.history.History(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("loading history: %w", err)
	}

	text, err := s.generator.Generate(ctx, CompletionRequest{
		System:   toolsSystem,
		History:  history,
		Prompt:   question,
		Tools:    s.refs,
		MaxTurns: s.maxTurns,
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return orFallback(text), nil
}
