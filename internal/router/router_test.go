package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rashed/grocery-bot/internal/ai"
	"github.com/rashed/grocery-bot/internal/catalog"
	"github.com/rashed/grocery-bot/internal/rag"
	"github.com/rashed/grocery-bot/internal/session"
)

type stubGenerator struct {
	mu           sync.Mutex
	calls        int
	lastContext  string
	lastQuestion string
	reply        string
	err          error
}

func (s *stubGenerator) Answer(_ context.Context, contextBlock, question string, _ []session.Turn) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastContext = contextBlock
	s.lastQuestion = question
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubRetriever struct {
	mu        sync.Mutex
	calls     int
	lastQuery string
	results   []rag.Result
	err       error
}

func (s *stubRetriever) Retrieve(_ context.Context, query string) ([]rag.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastQuery = query
	return s.results, s.err
}

func newTestCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Product{
		{
			ProductID: "P-001", ProductName: "Butter Popcorn",
			Category: "Snacks", SubCategory: "Popcorn",
			Price: 120, Currency: "BDT",
			Reviews: []catalog.Review{{User: "rahim88", Comment: "Crunchy.", Rating: 5}},
		},
		{
			ProductID: "P-010", ProductName: "Himsagar Mango",
			Category: "Fruits", SubCategory: "Seasonal Fruits",
			Price: 150, Currency: "BDT",
		},
		{
			ProductID: "P-015", ProductName: "Milk Biscuits",
			Category: "Snacks", SubCategory: "Biscuits",
			Price: 40, Currency: "BDT",
		},
	})
}

func newTestRouter(gen *stubGenerator, ret *stubRetriever) (*Router, *session.Store) {
	st := session.NewStore()
	return New(newTestCatalog(), st, ret, gen, 4), st
}

func TestProductIDLookup(t *testing.T) {
	gen := &stubGenerator{reply: "It costs 150 BDT."}
	ret := &stubRetriever{}
	r, st := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "Tell me about P-010")
	require.NoError(t, err)
	assert.Equal(t, "It costs 150 BDT.", answer)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 0, ret.calls, "exact lookup must not hit the retriever")
	assert.Contains(t, gen.lastContext, "Product Name: Himsagar Mango")

	last, ok := st.GetOrCreate("s1").LastProduct()
	require.True(t, ok)
	assert.Equal(t, "P-010", last)
}

func TestProductIDWinsOverOtherClassifiers(t *testing.T) {
	gen := &stubGenerator{reply: "answer"}
	ret := &stubRetriever{}
	r, _ := newTestRouter(gen, ret)

	// Pronouns and count keywords present, but the explicit id must win.
	_, err := r.Answer(context.Background(), "s1", "how many snacks products like it come with P-001?")
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 0, ret.calls)
	assert.Contains(t, gen.lastContext, "Product Name: Butter Popcorn")
}

func TestProductIDNotFound(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	ret := &stubRetriever{}
	r, st := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "Is P-999 available?")
	require.NoError(t, err)
	assert.Equal(t, NotFoundMessage, answer)

	assert.Equal(t, 0, gen.calls, "not-found must not call the generator")
	assert.Equal(t, 0, ret.calls)

	sess := st.GetOrCreate("s1")
	_, ok := sess.LastProduct()
	assert.False(t, ok, "absent id must not become the last product")

	turns := sess.Recent(10)
	require.Len(t, turns, 2)
	assert.Equal(t, "Is P-999 available?", turns[0].Content)
	assert.Equal(t, NotFoundMessage, turns[1].Content)
}

func TestCoreferenceRewrite(t *testing.T) {
	gen := &stubGenerator{reply: "answer"}
	ret := &stubRetriever{results: []rag.Result{{ProductID: "P-010", Content: "some document"}}}
	r, st := newTestRouter(gen, ret)

	_, err := r.Answer(context.Background(), "s1", "Tell me about P-010")
	require.NoError(t, err)

	_, err = r.Answer(context.Background(), "s1", "How much does it cost?")
	require.NoError(t, err)

	assert.Equal(t, 1, ret.calls)
	assert.Contains(t, ret.lastQuery, "How much does the product P-010 cost?")
	assert.Equal(t, "How much does the product P-010 cost?", gen.lastQuestion)

	// The rewritten question, not the raw one, lands in history.
	turns := st.GetOrCreate("s1").Recent(10)
	require.Len(t, turns, 4)
	assert.Equal(t, "How much does the product P-010 cost?", turns[2].Content)
}

func TestCoreferenceWithoutLastProduct(t *testing.T) {
	gen := &stubGenerator{reply: "answer"}
	ret := &stubRetriever{results: []rag.Result{{Content: "doc"}}}
	r, _ := newTestRouter(gen, ret)

	_, err := r.Answer(context.Background(), "s1", "Is it fresh?")
	require.NoError(t, err)

	// No last product in the session: the question passes through untouched.
	assert.Equal(t, "Is it fresh?", gen.lastQuestion)
}

func TestCountWithKeyword(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	ret := &stubRetriever{}
	r, _ := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "How many snacks products do you have?")
	require.NoError(t, err)
	assert.Equal(t, "We have 2 snacks products in our catalog.", answer)

	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, 0, ret.calls)
}

func TestCountTotalFallback(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	ret := &stubRetriever{}
	r, _ := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "How many products do you sell?")
	require.NoError(t, err)
	assert.Equal(t, "We have 3 products in our catalog.", answer)
}

func TestGreeting(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	ret := &stubRetriever{}
	r, st := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello! Welcome to our grocery shop. Ask me about products, prices, or what's in stock!", answer)

	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, 0, ret.calls)
	assert.Len(t, st.GetOrCreate("s1").Recent(10), 2)
}

func TestRetrievalFallbackWhenEmpty(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	ret := &stubRetriever{}
	r, st := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "what is the meaning of life?")
	require.NoError(t, err)
	assert.Equal(t, ai.PoliteFallback, answer)

	assert.Equal(t, 1, ret.calls)
	assert.Equal(t, 0, gen.calls, "blank context must not reach the generator")

	turns := st.GetOrCreate("s1").Recent(10)
	require.Len(t, turns, 2)
	assert.Equal(t, "what is the meaning of life?", turns[0].Content)
}

func TestRetrievalFallbackWhenBlankDocuments(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	ret := &stubRetriever{results: []rag.Result{{Content: "   "}, {Content: "\n"}}}
	r, _ := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "anything nice?")
	require.NoError(t, err)
	assert.Equal(t, ai.PoliteFallback, answer)
	assert.Equal(t, 0, gen.calls)
}

func TestGeneralRetrieval(t *testing.T) {
	gen := &stubGenerator{reply: "We stock Himsagar mangoes."}
	ret := &stubRetriever{results: []rag.Result{
		{ProductID: "P-010", Content: "doc about mangoes"},
		{ProductID: "P-001", Content: "doc about popcorn"},
	}}
	r, _ := newTestRouter(gen, ret)

	answer, err := r.Answer(context.Background(), "s1", "do you have mangoes?")
	require.NoError(t, err)
	assert.Equal(t, "We stock Himsagar mangoes.", answer)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "doc about mangoes\n\ndoc about popcorn", gen.lastContext)
}

func TestGenerationFailurePropagates(t *testing.T) {
	gen := &stubGenerator{err: errors.New("llm down")}
	ret := &stubRetriever{results: []rag.Result{{Content: "doc"}}}
	r, st := newTestRouter(gen, ret)

	_, err := r.Answer(context.Background(), "s1", "do you have mangoes?")
	require.Error(t, err)

	// The user's turn is still recorded; no fabricated answer appears.
	turns := st.GetOrCreate("s1").Recent(10)
	require.Len(t, turns, 1)
	assert.Equal(t, session.RoleUser, turns[0].Role)
}

func TestConcurrentSessionsIsolated(t *testing.T) {
	gen := &stubGenerator{reply: "answer"}
	ret := &stubRetriever{}
	r, st := newTestRouter(gen, ret)

	const iters = 25
	var wg sync.WaitGroup
	for _, tc := range []struct{ sessionID, productID string }{
		{"alice", "P-001"},
		{"bob", "P-010"},
	} {
		wg.Add(1)
		go func(sessionID, productID string) {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				_, err := r.Answer(context.Background(), sessionID, fmt.Sprintf("Tell me about %s", productID))
				assert.NoError(t, err)
			}
		}(tc.sessionID, tc.productID)
	}
	wg.Wait()

	for _, tc := range []struct{ sessionID, productID string }{
		{"alice", "P-001"},
		{"bob", "P-010"},
	} {
		sess := st.GetOrCreate(tc.sessionID)
		assert.Equal(t, iters*2, sess.Len())
		last, ok := sess.LastProduct()
		require.True(t, ok)
		assert.Equal(t, tc.productID, last)
		for _, turn := range sess.Recent(iters * 2) {
			if turn.Role == session.RoleUser {
				assert.Contains(t, turn.Content, tc.productID)
			}
		}
	}
}
