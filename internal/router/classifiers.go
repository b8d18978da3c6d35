package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rashed/grocery-bot/internal/rag"
	"github.com/rashed/grocery-bot/internal/session"
)

// Product identifiers are "P-" followed by exactly three digits. The trailing
// boundary keeps P-1234 from matching.
var productIDPattern = regexp.MustCompile(`(?i)\bP-\d{3}\b`)

// MatchProductID extracts an explicit product identifier from the question,
// normalized to upper case.
func MatchProductID(question string) (string, bool) {
	m := productIDPattern.FindString(question)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

var pronounPattern = regexp.MustCompile(`(?i)\b(its|their|they|them|it)\b`)

// RewriteCoreference substitutes whole-word pronouns with an explicit
// reference to the last product discussed in the session. Purely textual:
// a single antecedent, no grammar.
func RewriteCoreference(question, productID string) string {
	return pronounPattern.ReplaceAllString(question, "the product "+productID)
}

// countKeywords is deliberately a fixed, manually curated list rather than
// something derived from catalog categories.
var countKeywords = []string{"snacks", "baby", "rice", "biscuits", "popcorn", "vegetables", "fruits"}

// matchCountQuery detects aggregate counting questions and reports which
// keyword, if any, the count should be scoped to.
func matchCountQuery(question string) (keyword string, ok bool) {
	q := strings.ToLower(question)
	if !strings.Contains(q, "how many") || !strings.Contains(q, "product") {
		return "", false
	}
	for _, kw := range countKeywords {
		if strings.Contains(q, kw) {
			return kw, true
		}
	}
	return "", true
}

type greeting struct {
	pattern *regexp.Regexp
	reply   string
}

func newGreeting(word, reply string) greeting {
	return greeting{
		pattern: regexp.MustCompile(`(?i)\b` + word + `\b`),
		reply:   reply,
	}
}

// Order matters: the first matching entry wins.
var greetings = []greeting{
	newGreeting("how are you", "I'm doing great, thanks for asking! How can I help you with your grocery shopping today?"),
	newGreeting("good morning", "Good morning! What can I get for you today?"),
	newGreeting("good evening", "Good evening! Looking for anything in particular today?"),
	newGreeting("thank you", "You're welcome! Happy to help anytime."),
	newGreeting("thanks", "You're welcome! Happy to help anytime."),
	newGreeting("goodbye", "Goodbye! Come back soon for more fresh groceries."),
	newGreeting("bye", "Goodbye! Come back soon for more fresh groceries."),
	newGreeting("hello", "Hello! Welcome to our grocery shop. Ask me about products, prices, or what's in stock!"),
	newGreeting("hi", "Hi there! Ask me about products, prices, or what's in stock!"),
	newGreeting("hey", "Hey! What groceries can I help you find today?"),
}

// matchGreeting returns the canned reply for casual small talk.
func matchGreeting(question string) (string, bool) {
	for _, g := range greetings {
		if g.pattern.MatchString(question) {
			return g.reply, true
		}
	}
	return "", false
}

// BuildRetrievalQuery concatenates recent history with the current question so
// follow-up questions retrieve against their conversational context.
func BuildRetrievalQuery(history []session.Turn, question string) string {
	var b strings.Builder
	for _, t := range history {
		label := "User"
		if t.Role == session.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, t.Content)
	}
	b.WriteString(question)
	return b.String()
}

// joinDocuments concatenates non-blank retrieved documents with blank-line
// separators.
func joinDocuments(results []rag.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Content)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
