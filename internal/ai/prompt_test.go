package ai

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rashed/grocery-bot/internal/session"
)

func TestBuildMessages(t *testing.T) {
	history := []session.Turn{
		{Role: session.RoleUser, Content: "any mangoes?"},
		{Role: session.RoleAssistant, Content: "Yes, in stock."},
	}

	msgs := BuildMessages("Product ID: P-010", "how much per kg?", history)
	require.Len(t, msgs, 5)

	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "ONLY using the information provided in the 'Context' section")
	assert.Contains(t, msgs[0].Content, "never expose reviewer usernames")

	assert.Equal(t, openai.ChatMessageRoleUser, msgs[1].Role)
	assert.Equal(t, "Context:\nProduct ID: P-010", msgs[1].Content)

	assert.Equal(t, openai.ChatMessageRoleUser, msgs[2].Role)
	assert.Equal(t, "any mangoes?", msgs[2].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[3].Role)
	assert.Equal(t, "Yes, in stock.", msgs[3].Content)

	assert.Equal(t, openai.ChatMessageRoleUser, msgs[4].Role)
	assert.Equal(t, "how much per kg?", msgs[4].Content)
}

func TestBuildMessagesNoHistory(t *testing.T) {
	msgs := BuildMessages("some context", "question", nil)
	require.Len(t, msgs, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, "Context:\nsome context", msgs[1].Content)
	assert.Equal(t, "question", msgs[2].Content)
}

func TestSystemPromptEmbedsFallback(t *testing.T) {
	assert.Contains(t, SystemPrompt, PoliteFallback)
}
