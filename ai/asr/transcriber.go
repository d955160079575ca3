// Package asr turns voice messages into text through the Whisper API so
// the dialogue engine only ever sees text.
package asr

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"OrbitCS/internal/lib/sl"
)

// Transcriber transcribes audio via Whisper.
type Transcriber struct {
	client *openai.Client
	log    *slog.Logger
}

// NewTranscriber creates a Whisper-backed transcriber.
func NewTranscriber(apiKey string, log *slog.Logger) *Transcriber {
	return &Transcriber{
		client: openai.NewClient(apiKey),
		log:    log.With(sl.Module("transcriber")),
	}
}

// Transcribe reads the audio stream and returns its transcript. The
// filename hint tells the API which container format to expect.
func (t *Transcriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   audio,
		FilePath: filename,
		Format:   openai.AudioResponseFormatText,
	}

	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}

	t.log.Debug("voice transcribed", slog.Int("chars", len(resp.Text)))
	return resp.Text, nil
}
