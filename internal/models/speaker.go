package models

import "time"

// SessionContribution is one session's share of a speaker profile.
type SessionContribution struct {
	Segments int      `json:"segments"`
	Duration float64  `json:"duration"`
	Labels   []string `json:"labels"`
}

// SpeakerProfile aggregates one durable name across sessions. It is
// recomputed from scratch on every aggregation run.
type SpeakerProfile struct {
	SpeakerName            string                         `json:"speaker_name"`
	GeneratedAt            time.Time                      `json:"generated_at"`
	TotalSegments          int                            `json:"total_segments"`
	TotalDurationSeconds   float64                        `json:"total_duration_seconds"`
	TotalDurationMinutes   float64                        `json:"total_duration_minutes"`
	AverageSegmentDuration float64                        `json:"average_segment_duration"`
	SessionsInvolved       int                            `json:"sessions_involved"`
	SessionBreakdown       map[string]SessionContribution `json:"session_breakdown"`
	SessionsList           []string                       `json:"sessions_list"`
	Files                  []string                       `json:"files"`
	MissingSegments        int                            `json:"missing_segments"`
}

// SpeakerSummaryLine is the per-speaker row of the overall summary.
type SpeakerSummaryLine struct {
	Segments        int     `json:"segments"`
	DurationMinutes float64 `json:"duration_minutes"`
	Sessions        int     `json:"sessions"`
}

// SpeakersSummary is the overall record of one aggregation run.
type SpeakersSummary struct {
	RunID                string                        `json:"run_id"`
	GeneratedAt          time.Time                     `json:"generated_at"`
	Mode                 string                        `json:"mode"`
	TotalSpeakers        int                           `json:"total_speakers"`
	TotalSegments        int                           `json:"total_segments"`
	TotalDurationSeconds float64                       `json:"total_duration_seconds"`
	TotalDurationMinutes float64                       `json:"total_duration_minutes"`
	TotalDurationHours   float64                       `json:"total_duration_hours"`
	SessionsProcessed    int                           `json:"sessions_processed"`
	MatchedSegments      int                           `json:"matched_segments"`
	NewCopies            int                           `json:"new_copies"`
	MissingSegments      int                           `json:"missing_segments"`
	SpeakersSummary      map[string]SpeakerSummaryLine `json:"speakers_summary"`
}

// AggregationRun records the counts of each aggregation for the status API.
type AggregationRun struct {
	ID                string    `gorm:"primarykey" json:"run_id"`
	Mode              string    `json:"mode"`
	SessionsProcessed int       `json:"sessions_processed"`
	TotalSpeakers     int       `json:"total_speakers"`
	TotalEntries      int       `json:"total_entries"`
	Matched           int       `json:"matched"`
	NewCopies         int       `json:"new_copies"`
	Missing           int       `json:"missing"`
	Destination       string    `json:"destination"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AggregationRun
func (AggregationRun) TableName() string {
	return "aggregation_runs"
}
