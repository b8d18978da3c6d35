package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	tgbot "github.com/go-telegram/bot"
	"github.com/google/uuid"
)

// transcribeVoice downloads a voice message to a scoped temp file, transcribes
// it and cleans the file up, including on transcription failure.
func (g *Bot) transcribeVoice(ctx context.Context, fileID string) (string, error) {
	data, err := g.downloadFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	tmpPath := filepath.Join(os.TempDir(), "voice-"+uuid.NewString()+".ogg")
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return "", fmt.Errorf("write voice temp file: %w", err)
	}
	defer os.Remove(tmpPath)

	return g.ai.Transcribe(ctx, tmpPath)
}

// downloadFile fetches a file from Telegram by file ID.
func (g *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := g.b.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := g.b.FileDownloadLink(file)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file data: %w", err)
	}

	return data, nil
}
