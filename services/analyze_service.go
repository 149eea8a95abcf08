package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shorts_backend/models"
	"shorts_backend/pkg/logging"
)

// Segment duration bounds the analyzer accepts, in seconds. Anything
// outside makes a poor vertical short.
const (
	minSegmentSeconds = 15
	maxSegmentSeconds = 120

	fallbackSegmentSeconds = 45
	transcriptPromptLimit  = 4000
)

// GPTAnalyzer asks an OpenAI chat model to pick the most engaging
// segments with natural start and end points.
type GPTAnalyzer struct {
	apiKey string
	model  string
	client *http.Client
}

func NewGPTAnalyzer(apiKey, model string) *GPTAnalyzer {
	return &GPTAnalyzer{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *GPTAnalyzer) Analyze(ctx context.Context, transcript *models.Transcript, videoDuration float64, maxClips int) ([]models.ClipSegment, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not found")
	}

	reqBody := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert video editor who creates engaging short-form content. Focus on natural content boundaries and complete scenes, not fixed durations."},
			{Role: "user", Content: buildSegmentPrompt(transcript.Text, videoDuration, maxClips)},
		},
		MaxTokens:   2000,
		Temperature: 0.7,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// request head
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	// send request
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logging.Logger.Error("fail closing response body", "error", err)
		}
	}(resp.Body)

	var openaiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if openaiResp.Error.Message != "" {
		return nil, fmt.Errorf("OpenAI API error: %s", openaiResp.Error.Message)
	}
	if len(openaiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	segments, err := parseSegments(openaiResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if len(segments) > maxClips {
		segments = segments[:maxClips]
	}
	return segments, nil
}

func buildSegmentPrompt(transcript string, videoDuration float64, maxClips int) string {
	if len(transcript) > transcriptPromptLimit {
		transcript = transcript[:transcriptPromptLimit] + "..."
	}
	var b strings.Builder
	b.WriteString("Analyze this video transcript and identify the BEST segments for creating engaging short-form vertical videos.\n\n")
	b.WriteString("IMPORTANT: Extract segments with NATURAL START and END points based on content, not fixed durations.\n\n")
	fmt.Fprintf(&b, "Video Duration: %.1f minutes\n", videoDuration/60)
	fmt.Fprintf(&b, "Transcript: %s\n\n", transcript)
	b.WriteString("For each segment, identify the natural start point, the natural end point, and a short title. ")
	fmt.Fprintf(&b, "Duration should vary based on content (%d-%d seconds). ", minSegmentSeconds, maxSegmentSeconds)
	b.WriteString("Do not cut mid-action or mid-sentence; prefer complete, self-contained scenes with strong hooks.\n\n")
	b.WriteString("Return JSON format:\n")
	b.WriteString(`{"segments": [{"start_time": 45.2, "end_time": 98.7, "duration": 53.5, "title": "Ultimate Showdown", "topic": "Complete fight sequence", "engagement_score": 9.2}]}`)
	fmt.Fprintf(&b, "\n\nAim for up to %d high-quality segments with natural boundaries.", maxClips)
	return b.String()
}

// parseSegments extracts the JSON payload from the model reply and
// keeps only segments with a usable duration.
func parseSegments(content string) ([]models.ClipSegment, error) {
	jsonStr := strings.TrimSpace(content)
	if idx := strings.Index(jsonStr, "```json"); idx >= 0 {
		jsonStr = jsonStr[idx+len("```json"):]
		if end := strings.Index(jsonStr, "```"); end >= 0 {
			jsonStr = jsonStr[:end]
		}
		jsonStr = strings.TrimSpace(jsonStr)
	}

	var analysis struct {
		Segments []models.ClipSegment `json:"segments"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		return nil, fmt.Errorf("parse segments: %w", err)
	}

	valid := make([]models.ClipSegment, 0, len(analysis.Segments))
	for _, seg := range analysis.Segments {
		if seg.Duration == 0 {
			seg.Duration = seg.EndTime - seg.StartTime
		}
		if seg.Duration < minSegmentSeconds || seg.Duration > maxSegmentSeconds {
			continue
		}
		valid = append(valid, seg)
	}
	return valid, nil
}

// FallbackSegments derives fixed-duration windows when the GPT analyzer
// is disabled or unavailable.
func FallbackSegments(videoDuration float64, maxClips int) []models.ClipSegment {
	var segments []models.ClipSegment
	current := 0.0
	n := 1
	for current+fallbackSegmentSeconds <= videoDuration {
		if maxClips > 0 && n > maxClips {
			break
		}
		segments = append(segments, models.ClipSegment{
			StartTime: current,
			EndTime:   current + fallbackSegmentSeconds,
			Duration:  fallbackSegmentSeconds,
			Title:     fmt.Sprintf("Short Clip %d", n),
			Topic:     fmt.Sprintf("Segment %d", n),
			Score:     5.0,
		})
		current += fallbackSegmentSeconds
		n++
	}
	return segments
}
