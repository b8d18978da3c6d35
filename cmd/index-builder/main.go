package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/philippgille/chromem-go"

	"github.com/rashed/grocery-bot/internal/ai"
	"github.com/rashed/grocery-bot/internal/catalog"
	"github.com/rashed/grocery-bot/internal/config"
	"github.com/rashed/grocery-bot/internal/rag"
)

// index-builder embeds every catalog product and persists the vector index.
// This is an offline step: the serving processes only ever read the result.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	batchSize := flag.Int("batch", 10, "documents per embedding batch")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.Catalog.File)
	if err != nil {
		slog.Error("load catalog failed", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "products", cat.Size())

	aiClient := ai.NewFromConfig(cfg)

	store, err := rag.NewStore(cfg.RAG.VectorsDir, aiClient.EmbedFunc())
	if err != nil {
		slog.Error("open vector store failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	products := cat.Products()

	var docs []chromem.Document
	for i, p := range products {
		docs = append(docs, chromem.Document{
			ID:      p.ProductID,
			Content: p.Document(),
			Metadata: map[string]string{
				"product_id":   p.ProductID,
				"category":     p.Category,
				"sub_category": p.SubCategory,
			},
		})

		if len(docs) >= *batchSize {
			slog.Info("embedding products", "progress", i+1, "total", len(products))
			if err := store.AddDocuments(ctx, docs); err != nil {
				slog.Error("add documents failed", "error", err)
				os.Exit(1)
			}
			docs = docs[:0]
		}
	}

	if len(docs) > 0 {
		if err := store.AddDocuments(ctx, docs); err != nil {
			slog.Error("add final documents failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("index built", "dir", cfg.RAG.VectorsDir, "vectors", store.Count())
}
