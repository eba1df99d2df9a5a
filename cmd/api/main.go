package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/concierge/backend/internal/config"
	"github.com/zhouzirui/concierge/backend/internal/database"
	"github.com/zhouzirui/concierge/backend/internal/handler"
	"github.com/zhouzirui/concierge/backend/internal/service/ai"
	"github.com/zhouzirui/concierge/backend/internal/service/analytics"
	"github.com/zhouzirui/concierge/backend/internal/service/chat"
	"github.com/zhouzirui/concierge/backend/internal/service/tenant"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := tenant.NewStore(newSnapshot(cfg.Store))
	store.Load(ctx)
	log.Printf("loaded %d chatbot configs", store.Count())

	completer := newCompleter(ctx, cfg.AI)

	conversationLog, pool := newConversationLog(ctx, cfg.Database)
	if pool != nil {
		defer pool.Close()
	}

	orchestrator := chat.NewOrchestrator(store, completer, conversationLog,
		chat.WithStoreTimeout(cfg.Database.StoreTimeout))
	aggregator := analytics.NewAggregator(store, conversationLog, nil)

	router := handler.NewRouter(cfg.Server, store, orchestrator, aggregator)

	startServer(ctx, cfg.Server, router)
}

func newSnapshot(storeCfg config.StoreConfig) tenant.Snapshotter {
	if storeCfg.EnvBlob != "" {
		log.Println("chatbot configs loaded from CHATBOT_CONFIGS, new chatbots will not be persisted")
		return tenant.NewEnvSnapshot(storeCfg.EnvBlob)
	}
	return tenant.NewFileSnapshot(storeCfg.DataFile)
}

// newCompleter 根据可用凭证选择模型提供方。
func newCompleter(ctx context.Context, aiCfg config.AIConfig) ai.Completer {
	switch aiCfg.ResolvedProvider() {
	case config.ProviderArk:
		chatModel, err := aiCfg.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize Ark model: %v", err)
			break
		}
		completer, err := ai.NewEinoCompleter(ctx, config.ProviderArk, chatModel, aiCfg.Timeout)
		if err != nil {
			log.Printf("warning: failed to build completion chain: %v", err)
			break
		}
		log.Println("AI provider: ark")
		return completer
	case config.ProviderOpenAI:
		log.Println("AI provider: openai")
		return ai.NewOpenAICompleter(aiCfg.OpenAIAPIKey, aiCfg.OpenAIBaseURL, aiCfg.OpenAIModel, aiCfg.Timeout)
	}

	log.Println("no AI provider configured, every reply will use the fallback text")
	return ai.Unavailable{}
}

func newConversationLog(ctx context.Context, dbCfg config.DatabaseConfig) (chat.Log, *pgxpool.Pool) {
	if dbCfg.URL == "" {
		log.Println("DATABASE_URL not set, conversation log kept in memory")
		return chat.NewMemoryLog(), nil
	}

	pool, err := database.Connect(ctx, dbCfg.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("failed to migrate database: %v", err)
	}
	log.Println("conversation log backed by postgres")
	return chat.NewPostgresLog(pool), pool
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("chatbot backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
