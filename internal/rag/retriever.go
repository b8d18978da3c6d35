package rag

import (
	"context"
	"log/slog"
)

// Retriever answers similarity lookups against the product index with a fixed
// top-k.
type Retriever struct {
	store *Store
	topK  int
}

func NewRetriever(store *Store, topK int) *Retriever {
	return &Retriever{store: store, topK: topK}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Result, error) {
	if r.store == nil || r.store.Count() == 0 {
		slog.Debug("vector store empty, nothing to retrieve")
		return nil, nil
	}

	results, err := r.store.Query(ctx, query, r.topK)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved products", "count", len(results))
	return results, nil
}
