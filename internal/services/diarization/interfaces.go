package diarization

import (
	"context"

	"github.com/killallgit/diarist/pkg/address"
)

// Interval is one labeled stretch of speech as reported by the model.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"speaker"`
}

// Duration returns End - Start
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Result is the raw diarization output in the order the model emitted it.
type Result struct {
	Intervals []Interval `json:"segments"`
	Speakers  []string   `json:"speakers"`
}

// Validate checks every label can become part of a segment address.
func (r *Result) Validate() error {
	for _, s := range r.Speakers {
		if err := address.ValidateLabel(s); err != nil {
			return err
		}
	}
	for _, iv := range r.Intervals {
		if err := address.ValidateLabel(iv.Label); err != nil {
			return err
		}
	}
	return nil
}

// Diarizer produces speaker intervals for an audio file.
type Diarizer interface {
	// Diarize runs the model over a decoded audio file
	Diarize(ctx context.Context, audioPath string) (*Result, error)

	// Probe checks the model can be used before any session is touched
	Probe(ctx context.Context) error

	// Name identifies the provider in logs and provenance
	Name() string
}
