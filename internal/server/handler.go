package server

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" || req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id and question are required"})
	}

	answer, err := s.router.Answer(c.UserContext(), req.SessionID, req.Question)
	if err != nil {
		slog.Error("answer pipeline failed", "session", req.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(chatResponse{SessionID: req.SessionID, Question: req.Question, Answer: answer})
}

// handleChatAudio accepts either a text field or an uploaded audio file.
// Audio is written to a scoped temp file, transcribed, and the temp file is
// removed even when transcription fails.
func (s *Server) handleChatAudio(c *fiber.Ctx) error {
	sessionID := c.FormValue("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	question := c.FormValue("text")
	if question == "" {
		fh, err := c.FormFile("audio")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "either text or audio is required"})
		}

		tmpPath := filepath.Join(os.TempDir(), "chat-audio-"+uuid.NewString()+filepath.Ext(fh.Filename))
		if err := c.SaveFile(fh, tmpPath); err != nil {
			slog.Error("save uploaded audio failed", "session", sessionID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}
		defer os.Remove(tmpPath)

		question, err = s.ai.Transcribe(c.UserContext(), tmpPath)
		if err != nil {
			slog.Error("transcription failed", "session", sessionID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}
	}

	answer, err := s.router.Answer(c.UserContext(), sessionID, question)
	if err != nil {
		slog.Error("answer pipeline failed", "session", sessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(chatResponse{SessionID: sessionID, Question: question, Answer: answer})
}
