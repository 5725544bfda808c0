package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brewchat/brewchat/db"
	"github.com/brewchat/brewchat/internal/chat"
	"github.com/brewchat/brewchat/internal/config"
	"github.com/brewchat/brewchat/internal/knowledge"
	"github.com/brewchat/brewchat/internal/memory"
	"github.com/brewchat/brewchat/internal/rag"
	"github.com/brewchat/brewchat/internal/websearch"
)

// setup wires every component in dependency order.
func (a *App) setup(ctx context.Context) error {
	pool, err := a.providePool(ctx)
	if err != nil {
		return err
	}
	a.Pool = pool

	g, err := a.provideGenkit(ctx)
	if err != nil {
		return err
	}
	a.Genkit = g

	embedder := a.provideEmbedder(g)
	if embedder == nil {
		return fmt.Errorf("no embedder registered for provider %q", a.Config.Provider)
	}

	documents, err := knowledge.NewStore(pool, embedder, a.Logger)
	if err != nil {
		return fmt.Errorf("creating knowledge store: %w", err)
	}

	recorder, err := memory.NewStore(pool, a.Logger)
	if err != nil {
		return fmt.Errorf("creating memory store: %w", err)
	}

	conversations, err := a.provideConversations(g, documents, recorder)
	if err != nil {
		return err
	}
	a.Conversations = conversations

	return nil
}

// providePool runs migrations, then opens the connection pool.
func (a *App) providePool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := db.Migrate(a.Config.PostgresURL(), a.Logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(a.Config.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	a.onClose(pool.Close)
	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default), ollama, and openai.
func (a *App) provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	cfg := a.Config

	var g *genkit.Genkit
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		a.Logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		a.Logger.Info("initialized genkit with openai provider", "model", cfg.ModelName)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		a.Logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
// Each provider registers embedders differently:
//   - gemini: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
//   - openai: auto-registered in Init(), looked up by model name
func (a *App) provideEmbedder(g *genkit.Genkit) ai.Embedder {
	cfg := a.Config
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideConversations builds the four strategies and the facade.
// Every strategy gets its own Generator so state never crosses strategies.
func (a *App) provideConversations(g *genkit.Genkit, documents *knowledge.Store, recorder memory.Recorder) (*chat.Conversations, error) {
	cfg := a.Config

	newGenerator := func() (*chat.GenkitCompleter, error) {
		return chat.NewGenkitCompleter(g, cfg.ModelName, a.Logger)
	}

	tavily, err := websearch.NewClient(cfg.Tavily.APIKey, cfg.Tavily.BaseURL, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating tavily client: %w", err)
	}
	webRetriever, err := websearch.NewRetriever(tavily, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating web retriever: %w", err)
	}
	catalogRetriever, err := rag.NewSimilarityRetriever(documents, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating similarity retriever: %w", err)
	}

	disabledGen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	disabled, err := chat.NewDisabled(disabledGen, recorder, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating disabled strategy: %w", err)
	}

	webGen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	webRewriteGen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	webRewriter, err := rag.NewRewriter(webRewriteGen, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating query rewriter: %w", err)
	}
	webSearch, err := chat.NewWebSearch(webGen, webRewriter, webRetriever, recorder, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating web search strategy: %w", err)
	}

	vectorGen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	vectorStore, err := chat.NewVectorStore(vectorGen, catalogRetriever, documents, recorder, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating vector store strategy: %w", err)
	}

	toolsGen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	toolsRewriteGen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	toolsRewriter, err := rag.NewRewriter(toolsRewriteGen, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating tools rewriter: %w", err)
	}
	tools, err := chat.NewTools(toolsGen, catalogRetriever, webRetriever, toolsRewriter, recorder, cfg.MaxTurns, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating tools strategy: %w", err)
	}
	if err := tools.Register(g); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	return chat.NewConversations(map[chat.Kind]chat.Strategy{
		chat.KindDisabled:    disabled,
		chat.KindWebSearch:   webSearch,
		chat.KindVectorStore: vectorStore,
		chat.KindTools:       tools,
	}, vectorStore, recorder, a.Logger)
}
