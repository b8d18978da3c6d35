package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rashed/grocery-bot/internal/ai"
	"github.com/rashed/grocery-bot/internal/catalog"
	"github.com/rashed/grocery-bot/internal/rag"
	"github.com/rashed/grocery-bot/internal/session"
)

// NotFoundMessage is the fixed reply for a well-formed product id that is not
// in the catalog. No completion-service call is made for this path.
const NotFoundMessage = "Sorry, I couldn't find that product in our catalog. Please double-check the product ID and try again."

// Generator produces a grounded natural-language answer.
type Generator interface {
	Answer(ctx context.Context, contextBlock, question string, history []session.Turn) (string, error)
}

// Retriever looks up catalog documents by similarity to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]rag.Result, error)
}

// Router classifies each question through an ordered chain and dispatches to
// the first matching path: explicit product lookup, coreference rewrite,
// aggregate count, greeting, then general retrieval. The order is a contract:
// an explicit product id must win even when the question also carries pronouns
// or count keywords.
type Router struct {
	catalog      *catalog.Catalog
	sessions     *session.Store
	retriever    Retriever
	gen          Generator
	historyTurns int
}

func New(cat *catalog.Catalog, sessions *session.Store, retriever Retriever, gen Generator, historyTurns int) *Router {
	if historyTurns <= 0 {
		historyTurns = 4
	}
	return &Router{
		catalog:      cat,
		sessions:     sessions,
		retriever:    retriever,
		gen:          gen,
		historyTurns: historyTurns,
	}
}

// Answer runs one question through the classifier chain and returns the
// reply. Turns for the same session id are serialized; distinct sessions run
// concurrently.
func (r *Router) Answer(ctx context.Context, sessionID, question string) (string, error) {
	sess := r.sessions.GetOrCreate(sessionID)
	sess.Begin()
	defer sess.End()

	// 1. Explicit product-ID lookup.
	if id, ok := MatchProductID(question); ok {
		rec, found := r.catalog.Get(id)
		if !found {
			slog.Info("product id not in catalog", "session", sessionID, "id", id)
			r.record(sess, question, NotFoundMessage)
			return NotFoundMessage, nil
		}
		sess.SetLastProduct(rec.ProductID)
		slog.Debug("routing to exact product lookup", "session", sessionID, "id", rec.ProductID)
		return r.generate(ctx, sess, rec.ContextBlock(), question)
	}

	// 2. Coreference rewrite: not a terminal path, the rewritten question
	// continues down the chain.
	if last, ok := sess.LastProduct(); ok {
		rewritten := RewriteCoreference(question, last)
		if rewritten != question {
			slog.Debug("rewrote pronouns", "session", sessionID, "product", last)
			question = rewritten
		}
	}

	// 3. Aggregate count query.
	if kw, ok := matchCountQuery(question); ok {
		var reply string
		if kw == "" {
			reply = fmt.Sprintf("We have %d products in our catalog.", r.catalog.Size())
		} else {
			reply = fmt.Sprintf("We have %d %s products in our catalog.", r.catalog.CountMatching(kw), kw)
		}
		r.record(sess, question, reply)
		return reply, nil
	}

	// 4. Casual greeting table.
	if reply, ok := matchGreeting(question); ok {
		r.record(sess, question, reply)
		return reply, nil
	}

	// 5. General retrieval.
	history := sess.Recent(r.historyTurns)
	results, err := r.retriever.Retrieve(ctx, BuildRetrievalQuery(history, question))
	if err != nil {
		sess.AppendTurn(session.RoleUser, question)
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	contextBlock := joinDocuments(results)
	if contextBlock == "" {
		// Nothing grounded to answer from; short-circuit instead of letting
		// the model hallucinate beyond the catalog.
		r.record(sess, question, ai.PoliteFallback)
		return ai.PoliteFallback, nil
	}

	return r.generate(ctx, sess, contextBlock, question)
}

func (r *Router) generate(ctx context.Context, sess *session.Session, contextBlock, question string) (string, error) {
	history := sess.Recent(r.historyTurns)
	answer, err := r.gen.Answer(ctx, contextBlock, question, history)
	if err != nil {
		sess.AppendTurn(session.RoleUser, question)
		return "", fmt.Errorf("generate answer: %w", err)
	}
	r.record(sess, question, answer)
	return answer, nil
}

// record appends the (possibly rewritten) user question and the reply so
// history stays consistent across every path.
func (r *Router) record(sess *session.Session, question, answer string) {
	sess.AppendTurn(session.RoleUser, question)
	sess.AppendTurn(session.RoleAssistant, answer)
}
