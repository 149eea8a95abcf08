package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"shorts_backend/models"
	"shorts_backend/pkg/logging"
)

// WhisperTranscriber posts the source video to a whisper-compatible
// transcription service and decodes its JSON result.
type WhisperTranscriber struct {
	baseURL string
	client  *http.Client
}

func NewWhisperTranscriber(baseURL string) *WhisperTranscriber {
	return &WhisperTranscriber{
		baseURL: baseURL,
		// transcription of long videos is slow; the timeout bounds a
		// hung collaborator, not a healthy one
		client: &http.Client{Timeout: 30 * time.Minute},
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, videoPath string) (*models.Transcript, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Logger.Error("fail closing video file", "error", err)
		}
	}()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(videoPath))
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(part, file); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logging.Logger.Error("fail closing response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, snippet)
	}

	var transcript models.Transcript
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &transcript, nil
}
