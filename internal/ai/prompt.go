package ai

import (
	"github.com/sashabaranov/go-openai"

	"github.com/rashed/grocery-bot/internal/session"
)

type Message struct {
	Role    string
	Content string
}

// PoliteFallback is returned whenever the assistant has nothing grounded to
// say, instead of letting the model answer from thin air.
const PoliteFallback = "I'm here to help with questions about our grocery store and products. " +
	"Could you please ask something related to our shop?"

// SystemPrompt is the fixed persona and hard grounding constraint. The context
// section is the only knowledge source the model is allowed to use.
const SystemPrompt = "You are a helpful assistant for a grocery e-commerce shop in Bangladesh. " +
	"Answer the user's questions ONLY using the information provided in the 'Context' section below. " +
	"When asked about reviews, summarize them in your own words; never expose reviewer usernames or quote comments verbatim. " +
	"If the question is unrelated to the shop's products, prices, stock, or shopping help, respond politely: " +
	"\"" + PoliteFallback + "\"" +
	"\n\n" +
	"Do NOT use any external knowledge or make up answers. " +
	"Always reference only the 'Context' section when responding."

// BuildMessages assembles the full prompt: system instructions, retrieved
// context, conversation history, then the current question.
func BuildMessages(contextBlock, question string, history []session.Turn) []Message {
	msgs := make([]Message, 0, len(history)+3)
	msgs = append(msgs, Message{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt})
	msgs = append(msgs, Message{Role: openai.ChatMessageRoleUser, Content: "Context:\n" + contextBlock})
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == session.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Content: t.Content})
	}
	msgs = append(msgs, Message{Role: openai.ChatMessageRoleUser, Content: question})
	return msgs
}
