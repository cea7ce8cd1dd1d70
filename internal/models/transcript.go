package models

import "time"

// TranscriptEntry is the text of exactly one segment.
type TranscriptEntry struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	SessionID  uint      `gorm:"index;not null;uniqueIndex:idx_entry_session_address" json:"-"`
	Position   int       `gorm:"not null" json:"-"`
	Address    string    `gorm:"not null;uniqueIndex:idx_entry_session_address" json:"segment"`
	Label      string    `gorm:"index;not null" json:"speaker_id"`
	Start      float64   `json:"start_time"`
	End        float64   `json:"end_time"`
	Duration   float64   `json:"duration"`
	Text       string    `gorm:"type:text" json:"text"`
	Confidence float64   `json:"confidence"`
	Language   string    `json:"language"`
	Provider   string    `json:"provider"`
	CreatedAt  time.Time `json:"-"`
}

// TableName specifies the table name for TranscriptEntry
func (TranscriptEntry) TableName() string {
	return "transcript_entries"
}
