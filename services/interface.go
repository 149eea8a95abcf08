package services

import (
	"context"

	"shorts_backend/models"
)

// The generation pipeline treats its three collaborators as opaque.
// Real adapters live in this package; tests substitute fakes.

type Transcriber interface {
	Transcribe(ctx context.Context, videoPath string) (*models.Transcript, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, transcript *models.Transcript, videoDuration float64, maxClips int) ([]models.ClipSegment, error)
}

type Renderer interface {
	RenderClip(ctx context.Context, videoPath string, segment models.ClipSegment, outputPath string) error
	ProbeDuration(ctx context.Context, videoPath string) (float64, error)
}
