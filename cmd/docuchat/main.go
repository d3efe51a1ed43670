package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/docuchat/cli/config"
	"github.com/docuchat/cli/internal/chat"
	"github.com/docuchat/cli/internal/db"
	"github.com/docuchat/cli/internal/documents"
	"github.com/docuchat/cli/internal/embeddings"
	"github.com/docuchat/cli/internal/ollama"
	"github.com/docuchat/cli/internal/rag"
	"github.com/docuchat/cli/internal/session"
	"github.com/docuchat/cli/internal/tui"
	"github.com/docuchat/cli/internal/webhook"
)

func main() {
	var (
		migrateFlag = flag.Bool("migrate", false, "Apply database schema migrations and exit")
		ingestDir   = flag.String("ingest", "", "Ingest all PDFs from the given directory and exit")
		listFlag    = flag.Bool("list", false, "List ingested documents and exit")
		deleteFlag  = flag.String("delete", "", "Delete the document with the given id and exit")
		serveFlag   = flag.Bool("serve", false, "Run the messaging webhook server instead of the chat UI")
		addrFlag    = flag.String("addr", "", "Webhook listen address (overrides config)")
	)
	flag.Parse()

	// .env is optional; real configuration lives in the config file
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.New(ctx, cfg.Database.ConnectionString)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if *migrateFlag {
		if err := database.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error running migrations: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations completed successfully")
		return
	}

	if *listFlag {
		docs, err := database.GetAllDocuments(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing documents: %v\n", err)
			os.Exit(1)
		}
		chunkCount, err := database.CountChunks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting chunks: %v\n", err)
			os.Exit(1)
		}
		for _, doc := range docs {
			fmt.Printf("%s  %s  %s\n", doc.ID, doc.CreatedAt.Format("2006-01-02 15:04"), doc.FilePath)
		}
		fmt.Printf("%d documents, %d chunks indexed\n", len(docs), chunkCount)
		return
	}

	if *deleteFlag != "" {
		docID, err := uuid.Parse(*deleteFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing document id: %v\n", err)
			os.Exit(1)
		}
		if err := database.DeleteDocument(ctx, docID); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting document: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Document and its chunks deleted")
		return
	}

	embedder := embeddings.NewTextEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbeddingModel)

	chunker, err := documents.NewChunker(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in ingestion config: %v\n", err)
		os.Exit(1)
	}
	pipeline := documents.NewPipeline(database, embedder, chunker, logger)

	if *ingestDir != "" {
		if err := pipeline.IngestDir(ctx, *ingestDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting documents: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Knowledge base has been updated")
		return
	}

	retriever := rag.NewRetriever(
		embedder, database,
		cfg.Retrieval.TopK, cfg.Retrieval.FetchK, cfg.Retrieval.Lambda,
		logger,
	)
	prompts := rag.NewPromptBuilder(cfg.Retrieval.ContextTokens)
	generator := &chat.ModelGenerator{
		Client:      ollama.NewClient(cfg.Ollama.BaseURL),
		Model:       cfg.Ollama.ChatModel,
		Temperature: cfg.Ollama.Temperature,
	}

	if *serveFlag {
		addr := cfg.Webhook.Addr
		if *addrFlag != "" {
			addr = *addrFlag
		}
		store := session.NewStore(cfg.Chat.WebhookTitleWords, logger)
		engine := chat.NewEngine(store, retriever, prompts, generator, logger)
		if err := runWebhook(engine, pipeline, addr, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error running webhook server: %v\n", err)
			os.Exit(1)
		}
		return
	}

	store := session.NewStore(cfg.Chat.TitleWords, logger)
	engine := chat.NewEngine(store, retriever, prompts, generator, logger)
	if err := tui.Run(engine, store); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

// runWebhook serves until SIGINT/SIGTERM, then shuts down gracefully
func runWebhook(engine *chat.Engine, pipeline *documents.Pipeline, addr string, logger *slog.Logger) error {
	server := webhook.NewServer(engine, pipeline, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
