package models

import "time"

type ProgressEventType string

const (
	EventProgressUpdate     ProgressEventType = "progress_update"
	EventGenerationComplete ProgressEventType = "generation_complete"
	EventGenerationError    ProgressEventType = "generation_error"
)

// Pipeline stages, in execution order. Each stage owns a percent bucket.
const (
	StageInitialization = "initialization"
	StageTranscription  = "transcription"
	StageAnalysis       = "analysis"
	StageProcessing     = "processing"
	StageCompletion     = "completion"
)

// ProgressEvent is one fire-and-forget notification about a running job.
// Events are never persisted; a client that connects late relies on the
// status endpoint instead.
type ProgressEvent struct {
	Type      ProgressEventType `json:"type"`
	SessionID string            `json:"session_id"`
	Stage     string            `json:"stage,omitempty"`
	Percent   int               `json:"progress"`
	Message   string            `json:"message,omitempty"`
	Outputs   []string          `json:"outputs,omitempty"`
	Errors    []string          `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
