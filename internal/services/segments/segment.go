// Package segments turns raw diarization intervals into addressable audio
// clips plus the timeline records kept next to them.
package segments

import (
	"sort"

	"github.com/killallgit/diarist/internal/services/diarization"
	"github.com/killallgit/diarist/pkg/address"
)

// DefaultMinDuration is the shortest interval that becomes a segment.
const DefaultMinDuration = 1.0

// float noise from subtracting timestamps must not drop a 1.0s interval
const durationEpsilon = 1e-9

// Segment is one kept interval with its address.
type Segment struct {
	Address address.Address
}

func (s Segment) Label() string              { return s.Address.Label }
func (s Segment) Start() float64             { return s.Address.Start }
func (s Segment) End() float64               { return s.Address.End }
func (s Segment) Duration() float64          { return s.Address.Duration() }
func (s Segment) Filename(ext string) string { return s.Address.Filename(ext) }

// TimelineEntry is one row of the persisted timeline.
type TimelineEntry struct {
	Start      float64    `json:"start"`
	End        float64    `json:"end"`
	Duration   float64    `json:"duration"`
	Speaker    string     `json:"speaker"`
	Segment    string     `json:"segment"`
	Provenance Provenance `json:"provenance"`
}

// Provenance repeats the recording level facts on every timeline row.
type Provenance struct {
	TotalSpeakers int     `json:"total_speakers"`
	TotalDuration float64 `json:"total_duration"`
}

// Filter splits intervals into those long enough to keep and those to drop.
// Both keep the order the model emitted them in.
func Filter(intervals []diarization.Interval, minDuration float64) (kept, discarded []diarization.Interval) {
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	for _, iv := range intervals {
		if iv.Duration()+durationEpsilon >= minDuration {
			kept = append(kept, iv)
		} else {
			discarded = append(discarded, iv)
		}
	}
	return kept, discarded
}

// Build addresses the kept intervals. The sequence index follows emission
// order, not start time.
func Build(session string, kept []diarization.Interval) []Segment {
	out := make([]Segment, 0, len(kept))
	for i, iv := range kept {
		out = append(out, Segment{Address: address.Address{
			Session: session,
			Label:   iv.Label,
			Index:   i,
			Start:   iv.Start,
			End:     iv.End,
		}})
	}
	return out
}

// Timeline renders segments as timeline rows sorted by start time.
func Timeline(segs []Segment, ext string, prov Provenance) []TimelineEntry {
	rows := make([]TimelineEntry, 0, len(segs))
	for _, s := range segs {
		rows = append(rows, TimelineEntry{
			Start:      s.Start(),
			End:        s.End(),
			Duration:   s.Duration(),
			Speaker:    s.Label(),
			Segment:    s.Filename(ext),
			Provenance: prov,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Start < rows[j].Start })
	return rows
}
