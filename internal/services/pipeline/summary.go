package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/killallgit/diarist/internal/services/sessions"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// Summary is the batch_summary.json document left in the output root after
// every run, interrupted or not.
type Summary struct {
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	ElapsedSeconds float64         `json:"elapsed_seconds"`
	Interrupted    bool            `json:"interrupted"`
	Error          string          `json:"error,omitempty"`
	Succeeded      []string        `json:"succeeded"`
	Failed         []FailureRecord `json:"failed"`
	Skipped        []string        `json:"skipped"`
	NextSteps      []string        `json:"next_steps"`
}

// FailureRecord is the serialized form of a SessionFailure.
type FailureRecord struct {
	Session string       `json:"session"`
	Input   string       `json:"input,omitempty"`
	Kind    perrors.Kind `json:"kind"`
	Error   string       `json:"error"`
}

// NewSummary describes report. runErr is the error that ended the run early,
// if any.
func NewSummary(report *Report, started, finished time.Time, runErr error) *Summary {
	s := &Summary{
		StartedAt:      started.UTC(),
		FinishedAt:     finished.UTC(),
		ElapsedSeconds: finished.Sub(started).Seconds(),
		Succeeded:      append([]string{}, report.Succeeded...),
		Failed:         []FailureRecord{},
		Skipped:        append([]string{}, report.Skipped...),
	}
	if runErr != nil {
		s.Error = runErr.Error()
		s.Interrupted = errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	}
	for _, f := range report.Failed {
		rec := FailureRecord{Session: f.Session, Input: f.Input, Kind: f.Kind}
		if f.Err != nil {
			rec.Error = f.Err.Error()
		}
		s.Failed = append(s.Failed, rec)
	}
	s.NextSteps = nextSteps(s)
	return s
}

func nextSteps(s *Summary) []string {
	var steps []string
	if s.Interrupted {
		steps = append(steps, "rerun `diarist process` to pick up the remaining recordings; stored sessions are skipped")
	}
	if len(s.Failed) > 0 {
		steps = append(steps, fmt.Sprintf("check the %d failed recording(s) left in the input directory, then rerun `diarist process`", len(s.Failed)))
	}
	if len(s.Succeeded) > 0 {
		steps = append(steps,
			"run `diarist assign` to name the speakers of each new session",
			"run `diarist organize` to copy assigned segments into the speaker registry")
	}
	if len(steps) == 0 {
		steps = append(steps, "add recordings to the input directory and run `diarist process`")
	}
	return steps
}

func (b *Batch) writeSummary(report *Report, started time.Time, runErr error) {
	path := b.layout.BatchSummary()
	if err := sessions.WriteJSONFile(path, NewSummary(report, started, time.Now(), runErr)); err != nil {
		b.log.Warn("could not write batch summary", "path", path, "error", err)
		return
	}
	report.SummaryPath = path
	b.log.Debug("batch summary written", "path", path)
}
