package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/rashed/grocery-bot/internal/ai"
	"github.com/rashed/grocery-bot/internal/router"
)

// Server is the HTTP adapter in front of the question-answering pipeline.
type Server struct {
	app    *fiber.App
	router *router.Router
	ai     *ai.Client
	addr   string
}

func New(addr string, rt *router.Router, aiClient *ai.Client) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "grocery-bot",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		router: rt,
		ai:     aiClient,
		addr:   addr,
	}

	app.Post("/chat/", s.handleChat)
	app.Post("/chat/audio", s.handleChatAudio)

	return s
}

func (s *Server) Run() error {
	slog.Info("http server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
