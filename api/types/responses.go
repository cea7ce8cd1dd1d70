package types

import (
	"time"

	"github.com/killallgit/diarist/internal/models"
)

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`            // One of the Status constants above
	Message string `json:"message,omitempty"` // Human-readable message
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	BaseResponse
	Kind string `json:"kind,omitempty"` // Pipeline error kind when known
}

// Session is the list view of one stored session
type Session struct {
	Name             string            `json:"session_name"`
	Status           string            `json:"status"`
	Version          int               `json:"version"`
	SourceFile       string            `json:"source_file,omitempty"`
	TotalSegments    int               `json:"total_segments"`
	SpeakersDetected []string          `json:"speakers_detected"`
	SpeakerMappings  map[string]string `json:"speaker_mappings,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// TranscriptEntry is one transcript line of a session
type TranscriptEntry struct {
	Segment    string  `json:"segment"`
	SpeakerID  string  `json:"speaker_id"`
	Speaker    string  `json:"speaker"` // Durable name once the session is completed
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
	Provider   string  `json:"provider,omitempty"`
}

// SessionsResponse for the session list
type SessionsResponse struct {
	BaseResponse
	Sessions []Session `json:"sessions"`
	Count    int       `json:"count"`
	Awaiting int       `json:"awaiting_speaker_assignment"`
}

// SessionResponse for one session with its entries sorted by start time
type SessionResponse struct {
	BaseResponse
	Session Session           `json:"session"`
	Entries []TranscriptEntry `json:"entries"`
}

// SpeakersResponse carries the summary of the latest aggregation run
type SpeakersResponse struct {
	BaseResponse
	Summary *models.SpeakersSummary `json:"summary"`
	LastRun *models.AggregationRun  `json:"last_run,omitempty"`
}
