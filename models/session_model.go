package models

import (
	"time"

	"github.com/lib/pq"
)

// Session status constants
const (
	StatusUploaded  = "uploaded"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// GenerationSettings are the job parameters supplied at generate time.
// They are set once when the job is claimed and read-only afterwards.
type GenerationSettings struct {
	MaxShorts int  `json:"max_shorts"`
	UseGPT    bool `json:"use_gpt"`
}

type Session struct {
	ID         string `gorm:"column:id;type:varchar(64);primaryKey" json:"session_id"`
	Filename   string `gorm:"column:filename;type:varchar(512);not null" json:"filename"`
	SourcePath string `gorm:"column:source_path;type:text;not null" json:"-"`
	FileSize   int64  `gorm:"column:file_size;type:bigint" json:"file_size"`

	Status    string `gorm:"column:status;type:varchar(32);default:'uploaded';index:idx_session_status" json:"status"`
	MaxShorts int    `gorm:"column:max_shorts;type:int" json:"max_shorts"`
	UseGPT    bool   `gorm:"column:use_gpt" json:"use_gpt"`

	Outputs pq.StringArray `gorm:"column:outputs;type:text[]" json:"outputs"`
	Errors  pq.StringArray `gorm:"column:errors;type:text[]" json:"error,omitempty"`

	UploadedAt  time.Time  `gorm:"column:uploaded_at;type:timestamp" json:"upload_time"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamp" json:"completion_time,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsRunning() bool {
	return s.Status == StatusRunning
}

func (s *Session) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// CanStart reports whether a generation job may claim this session.
// A running session may not be claimed again.
func (s *Session) CanStart() bool {
	return s.Status == StatusUploaded || s.IsTerminal()
}

// HasOutput reports whether filename is one of the session's recorded
// outputs. Artifact access goes through this check, never the filesystem.
func (s *Session) HasOutput(filename string) bool {
	for _, out := range s.Outputs {
		if out == filename {
			return true
		}
	}
	return false
}
