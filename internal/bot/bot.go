package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/rashed/grocery-bot/internal/ai"
	"github.com/rashed/grocery-bot/internal/router"
)

// WelcomeMessage is the fixed /start reply.
const WelcomeMessage = "👋 Welcome to our Grocery Bot! Ask me about products, prices, or what's in stock!"

const errorReply = "Sorry, something went wrong on our side. Please try again in a moment."

// Bot is the Telegram adapter. Sessions are keyed by the Telegram user id.
type Bot struct {
	b      *tgbot.Bot
	router *router.Router
	ai     *ai.Client
}

func New(token string, rt *router.Router, aiClient *ai.Client) (*Bot, error) {
	g := &Bot{router: rt, ai: aiClient}

	b, err := tgbot.New(token,
		tgbot.WithMiddlewares(recoverMiddleware(), loggingMiddleware()),
		tgbot.WithDefaultHandler(g.handleMessage),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	g.b = b

	b.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, g.handleStart)

	return g, nil
}

// Run starts long polling and blocks until ctx is cancelled.
func (g *Bot) Run(ctx context.Context) {
	slog.Info("telegram bot running")
	g.b.Start(ctx)
}

func (g *Bot) handleStart(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	g.reply(ctx, update.Message.Chat.ID, WelcomeMessage)
}

func (g *Bot) handleMessage(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	sessionID := fmt.Sprintf("tg-%d", msg.From.ID)

	question := strings.TrimSpace(msg.Text)
	if msg.Voice != nil {
		var err error
		question, err = g.transcribeVoice(ctx, msg.Voice.FileID)
		if err != nil {
			slog.Error("voice transcription failed", "session", sessionID, "error", err)
			g.reply(ctx, msg.Chat.ID, errorReply)
			return
		}
	}
	if question == "" {
		return
	}

	answer, err := g.router.Answer(ctx, sessionID, question)
	if err != nil {
		slog.Error("answer pipeline failed", "session", sessionID, "error", err)
		g.reply(ctx, msg.Chat.ID, errorReply)
		return
	}

	g.reply(ctx, msg.Chat.ID, answer)
}

func (g *Bot) reply(ctx context.Context, chatID int64, text string) {
	_, err := g.b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		slog.Error("send message failed", "chat_id", chatID, "error", err)
	}
}
