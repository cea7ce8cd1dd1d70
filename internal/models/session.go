package models

import (
	"encoding/json"
	"sort"
	"time"

	"gorm.io/datatypes"
)

// SessionStatus is the position of a session in its lifecycle.
type SessionStatus string

const (
	// StatusAwaitingAssignment: transcript entries stored, no durable names yet.
	StatusAwaitingAssignment SessionStatus = "awaiting_speaker_assignment"
	// StatusCompleted: every ephemeral label is mapped to a durable name.
	StatusCompleted SessionStatus = "completed"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	return s == StatusAwaitingAssignment || s == StatusCompleted
}

// Session is the persisted record of one input recording.
type Session struct {
	ID               uint              `gorm:"primarykey" json:"id"`
	Name             string            `gorm:"uniqueIndex;not null" json:"session_name"`
	Status           SessionStatus     `gorm:"index;not null" json:"status"`
	Version          int               `gorm:"not null;default:0" json:"version"`
	SourceFile       string            `json:"source_file,omitempty"`
	TotalSegments    int               `json:"total_segments"`
	SpeakersDetected datatypes.JSON    `json:"speakers_detected"`
	SpeakerMappings  datatypes.JSON    `json:"speaker_mappings,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Entries          []TranscriptEntry `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// Speakers decodes the distinct ephemeral labels, sorted.
func (s *Session) Speakers() []string {
	var labels []string
	if len(s.SpeakersDetected) > 0 {
		_ = json.Unmarshal(s.SpeakersDetected, &labels)
	}
	sort.Strings(labels)
	return labels
}

// SetSpeakers stores labels sorted.
func (s *Session) SetSpeakers(labels []string) {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	data, _ := json.Marshal(sorted)
	s.SpeakersDetected = datatypes.JSON(data)
}

// Mapping decodes the ephemeral label to durable name mapping. Nil when unset.
func (s *Session) Mapping() map[string]string {
	if len(s.SpeakerMappings) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(s.SpeakerMappings, &m); err != nil {
		return nil
	}
	return m
}

// SetMapping stores m; a nil map clears the column.
func (s *Session) SetMapping(m map[string]string) {
	if m == nil {
		s.SpeakerMappings = nil
		return
	}
	data, _ := json.Marshal(m)
	s.SpeakerMappings = datatypes.JSON(data)
}
