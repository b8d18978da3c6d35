package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rashed/grocery-bot/internal/ai"
	"github.com/rashed/grocery-bot/internal/catalog"
	"github.com/rashed/grocery-bot/internal/config"
	"github.com/rashed/grocery-bot/internal/rag"
	"github.com/rashed/grocery-bot/internal/router"
	"github.com/rashed/grocery-bot/internal/server"
	"github.com/rashed/grocery-bot/internal/session"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	aiClient := ai.NewFromConfig(cfg)

	cat, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		slog.Error("load catalog failed", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "products", cat.Size())

	store, err := rag.NewStore(cfg.RAG.VectorsDir, aiClient.EmbedFunc())
	if err != nil {
		slog.Error("open vector store failed", "error", err)
		os.Exit(1)
	}
	if store.Count() == 0 {
		slog.Error("vector index is empty, run index-builder first", "dir", cfg.RAG.VectorsDir)
		os.Exit(1)
	}

	retriever := rag.NewRetriever(store, cfg.RAG.TopK)
	sessions := session.NewStore()
	rt := router.New(cat, sessions, retriever, aiClient, cfg.Chat.HistoryTurns)

	srv := server.New(cfg.Server.Addr, rt, aiClient)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("shutting down...")
		if err := srv.Shutdown(); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	if err := srv.Run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
