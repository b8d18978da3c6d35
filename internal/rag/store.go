package rag

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/philippgille/chromem-go"
)

// Store wraps the persisted product vector index. It is built offline by the
// index-builder and opened read-only at serve time.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

func NewStore(vectorsDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	db, err := chromem.NewPersistentDB(vectorsDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}

	col, err := db.GetOrCreateCollection("products", nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("get/create collection: %w", err)
	}

	slog.Info("vector store loaded", "dir", vectorsDir, "count", col.Count())
	return &Store{db: db, collection: col}, nil
}

type Result struct {
	ProductID  string
	Content    string
	Similarity float32
}

// Query returns up to k products ordered by descending similarity. Queries
// with no overlap with the catalog return low-similarity matches rather than
// failing.
func (s *Store) Query(ctx context.Context, text string, k int) ([]Result, error) {
	if s.collection.Count() == 0 {
		return nil, nil
	}

	if k > s.collection.Count() {
		k = s.collection.Count()
	}

	docs, err := s.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	results := make([]Result, 0, len(docs))
	for _, d := range docs {
		results = append(results, Result{
			ProductID:  d.Metadata["product_id"],
			Content:    d.Content,
			Similarity: d.Similarity,
		})
	}
	return results, nil
}

// AddDocuments batch-writes documents into the index. Used by the
// index-builder only; the serving processes never mutate the index.
func (s *Store) AddDocuments(ctx context.Context, docs []chromem.Document) error {
	return s.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *Store) Count() int {
	return s.collection.Count()
}
