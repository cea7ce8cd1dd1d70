package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/internal/services/sessions"
	"github.com/killallgit/diarist/pkg/address"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

// Correlation is the outcome of transcribing one session's segments.
type Correlation struct {
	Session  string
	Entries  []models.TranscriptEntry
	Segments int
	Empty    int
	Failed   int
	Skipped  []string
}

// Correlator transcribes every segment of a session and binds the text back
// to the segment through its address.
type Correlator struct {
	transcriber Transcriber
	layout      sessions.Layout
	log         *logger.Logger
}

func NewCorrelator(t Transcriber, layout sessions.Layout, log *logger.Logger) *Correlator {
	return &Correlator{transcriber: t, layout: layout, log: log}
}

// TranscribeSession transcribes the session's segment files. Empty text is
// dropped and a failing segment is skipped; the session itself fails only
// when its timeline is missing or no segment produced text.
func (c *Correlator) TranscribeSession(ctx context.Context, session string) (*Correlation, error) {
	const op = "transcribe session"
	log := c.log.With("session", session)

	if !c.layout.HasTimeline(session) {
		return nil, perrors.SessionFatal(op, session, fmt.Errorf("%w: %s", perrors.ErrTimelineMissing, c.layout.TimelineCSV(session)))
	}

	files, err := segmentFiles(c.layout.SegmentsDir(session))
	if err != nil {
		return nil, perrors.SessionFatal(op, session, err)
	}

	out := &Correlation{Session: session}
	provider := Provenance(c.transcriber)
	for _, name := range files {
		addr, err := address.ParseInSession(name, session)
		if err != nil {
			log.Warn("ignoring file with unparseable segment address", "file", name, "error", err)
			out.Skipped = append(out.Skipped, name)
			continue
		}
		out.Segments++

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := c.transcriber.Transcribe(ctx, filepath.Join(c.layout.SegmentsDir(session), name))
		if err != nil {
			out.Failed++
			log.Warn("segment transcription failed", "error", perrors.SegmentRecoverable(op, session, name, err))
			continue
		}
		text := strings.TrimSpace(res.Text)
		if text == "" {
			out.Empty++
			log.Debug("dropping empty transcription", "segment", name)
			continue
		}

		out.Entries = append(out.Entries, models.TranscriptEntry{
			Address:    addr.Format(),
			Label:      addr.Label,
			Start:      addr.Start,
			End:        addr.End,
			Duration:   addr.Duration(),
			Text:       text,
			Confidence: res.Confidence,
			Language:   res.Language,
			Provider:   provider,
		})
	}

	log.Info("transcribed session",
		"segments", out.Segments,
		"entries", len(out.Entries),
		"empty", out.Empty,
		"failed", out.Failed)

	if out.Segments > 0 && len(out.Entries) == 0 {
		return out, perrors.SessionFatal(op, session, perrors.ErrNoTranscripts)
	}
	sessions.SortByStart(out.Entries)
	return out, nil
}

// segmentFiles lists regular files in dir sorted by name.
func segmentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
