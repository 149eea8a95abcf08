package models

// Transcript is the transcription collaborator's result.
type Transcript struct {
	Text     string              `json:"text"`
	Language string              `json:"language"`
	Segments []TranscriptSegment `json:"segments"`
}

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ClipSegment is one candidate time range selected for conversion into
// a short. Produced either by the GPT analyzer or the fixed-window
// fallback; the pipeline treats both sources uniformly.
type ClipSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
	Title     string  `json:"title"`
	Topic     string  `json:"topic"`
	Score     float64 `json:"engagement_score"`
}
