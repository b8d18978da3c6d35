package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/rashed/grocery-bot/internal/config"
	"github.com/rashed/grocery-bot/internal/session"
)

type Config struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	TranscriptionModel string
	Temperature        float32
	MaxRetries         int
	Timeout            time.Duration

	// Embeddings go to their own OpenAI-compatible endpoint; Groq serves chat
	// and transcription but no embeddings.
	EmbeddingAPIKey  string
	EmbeddingBaseURL string
	EmbeddingModel   string
}

// Client wraps the completion, embedding and transcription endpoints the
// assistant talks to. All endpoints are OpenAI-compatible.
type Client struct {
	chat  *openai.Client
	embed *openai.Client
	cfg   Config
}

func NewClient(cfg Config) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	chatCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		chatCfg.BaseURL = cfg.BaseURL
	}

	embedKey := cfg.EmbeddingAPIKey
	if embedKey == "" {
		embedKey = cfg.APIKey
	}
	embedCfg := openai.DefaultConfig(embedKey)
	if cfg.EmbeddingBaseURL != "" {
		embedCfg.BaseURL = cfg.EmbeddingBaseURL
	}

	return &Client{
		chat:  openai.NewClientWithConfig(chatCfg),
		embed: openai.NewClientWithConfig(embedCfg),
		cfg:   cfg,
	}
}

// NewFromConfig builds a Client from the application configuration.
func NewFromConfig(cfg *config.Config) *Client {
	return NewClient(Config{
		APIKey:             cfg.Groq.APIKey,
		BaseURL:            cfg.Groq.BaseURL,
		ChatModel:          cfg.Groq.ChatModel,
		TranscriptionModel: cfg.Groq.TranscriptionModel,
		Temperature:        cfg.Groq.Temperature,
		MaxRetries:         cfg.Groq.MaxRetries,
		Timeout:            time.Duration(cfg.Groq.TimeoutSec) * time.Second,
		EmbeddingAPIKey:    cfg.Embedding.APIKey,
		EmbeddingBaseURL:   cfg.Embedding.BaseURL,
		EmbeddingModel:     cfg.Embedding.Model,
	})
}

// Answer generates a reply grounded on contextBlock. The caller decides what
// goes into the context; the model is instructed to use nothing else.
func (c *Client) Answer(ctx context.Context, contextBlock, question string, history []session.Turn) (string, error) {
	return c.Generate(ctx, BuildMessages(contextBlock, question, history))
}

// Generate submits the prompt to the completion service with
// deterministic-leaning sampling. Retries a fixed small number of times, then
// propagates the failure to the caller.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Messages:    oaMsgs,
		Temperature: c.cfg.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		resp, err := c.chat.CreateChatCompletion(cctx, req)
		cancel()
		if err != nil {
			lastErr = err
			slog.Warn("chat completion failed, retrying", "model", c.cfg.ChatModel, "attempt", attempt+1, "error", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			}
			continue
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty completion response")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("chat completion failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// Embed generates an embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	cctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.embed.CreateEmbeddings(cctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// EmbedFunc adapts Embed to the signature chromem-go expects.
func (c *Client) EmbedFunc() func(ctx context.Context, text string) ([]float32, error) {
	return c.Embed
}

// Transcribe runs speech-to-text over a local audio file.
func (c *Client) Transcribe(ctx context.Context, filePath string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.chat.CreateTranscription(cctx, openai.AudioRequest{
		Model:    c.cfg.TranscriptionModel,
		FilePath: filePath,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
