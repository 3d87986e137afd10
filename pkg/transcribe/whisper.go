package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// WhisperTranscriber talks to a whisper-server style endpoint
// (OpenAI-compatible /v1/audio/transcriptions).
type WhisperTranscriber struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ Transcriber = &WhisperTranscriber{}

func NewWhisperTranscriber(baseURL, model string) *WhisperTranscriber {
	return &WhisperTranscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Available reports whether a transcription endpoint is configured
func (w *WhisperTranscriber) Available() bool {
	return w != nil && w.baseURL != ""
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if !w.Available() {
		return "", fmt.Errorf("transcriber is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName(mimeType))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if w.model != "" {
		if err := writer.WriteField("model", w.model); err != nil {
			return "", fmt.Errorf("write model field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	url := w.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcriber error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(bodyBytes, &tr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return strings.TrimSpace(tr.Text), nil
}

func fileName(mimeType string) string {
	switch mimeType {
	case "audio/ogg":
		return "voice.ogg"
	case "audio/mpeg":
		return "voice.mp3"
	default:
		return "voice.wav"
	}
}
