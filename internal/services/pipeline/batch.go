// Package pipeline runs recordings through diarization, segment extraction
// and transcription into the session store.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/internal/services/diarization"
	"github.com/killallgit/diarist/internal/services/segments"
	"github.com/killallgit/diarist/internal/services/sessions"
	"github.com/killallgit/diarist/internal/services/transcription"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

// Media is the ffmpeg surface the pipeline drives.
type Media interface {
	segments.Audio
	ExtractAudio(ctx context.Context, input, output string, sampleRate int) error
}

// Options configures a Batch
type Options struct {
	InputDir     string
	ProcessedDir string
	// SampleRate of the working audio; 0 keeps the source rate.
	SampleRate  int
	MinDuration float64
	Codec       string
	// Reprocess re-runs inputs whose session is already stored.
	Reprocess bool
	// KeepInputs leaves processed recordings in place.
	KeepInputs bool
	// WorkDir holds per-session scratch audio; empty means os.TempDir.
	WorkDir string
}

// SessionFailure is one session that did not reach the store.
type SessionFailure struct {
	Session string
	Input   string
	Kind    perrors.Kind
	Err     error
}

// Report counts the outcome of a run. Every discovered input ends up in
// exactly one of the three lists.
type Report struct {
	Succeeded []string
	Skipped   []string
	Failed    []SessionFailure
	// SummaryPath is where the run's batch_summary.json was written.
	SummaryPath string
}

func (r *Report) String() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d skipped", len(r.Succeeded), len(r.Failed), len(r.Skipped))
}

// Batch processes every recording in the input directory, one session at a
// time.
type Batch struct {
	opts      Options
	media     Media
	diarizer  diarization.Diarizer
	providers []transcription.Transcriber
	store     sessions.Store
	layout    sessions.Layout
	extractor *segments.Extractor
	tmpDir    string
	log       *logger.Logger
}

// NewBatch wires a batch run. providers are ranked, first available wins.
func NewBatch(opts Options, media Media, diarizer diarization.Diarizer, providers []transcription.Transcriber, store sessions.Store, layout sessions.Layout, log *logger.Logger) *Batch {
	if log == nil {
		log = logger.Nop()
	}
	ex := segments.NewExtractor(media, layout, segments.Options{MinDuration: opts.MinDuration, Codec: opts.Codec}, log)
	return &Batch{
		opts:      opts,
		media:     media,
		diarizer:  diarizer,
		providers: providers,
		store:     store,
		layout:    layout,
		extractor: ex,
		tmpDir:    opts.WorkDir,
		log:       log,
	}
}

// Prepare probes the diarizer and selects a transcription provider. Its
// errors are collaborator-unavailable and stop the run before any session
// is touched.
func (b *Batch) Prepare(ctx context.Context) (transcription.Transcriber, error) {
	if b.diarizer == nil {
		return nil, perrors.CollaboratorUnavailable("probe diarizer", fmt.Errorf("no diarizer configured"))
	}
	if err := b.diarizer.Probe(ctx); err != nil {
		return nil, perrors.CollaboratorUnavailable("probe diarizer "+b.diarizer.Name(), err)
	}
	return transcription.SelectProvider(ctx, b.providers, b.log)
}

// Run processes the input directory. The returned error is reserved for
// failures of the whole batch; per-session failures land in the report.
// Once sessions have been attempted the outcome is also written to
// batch_summary.json in the output root.
func (b *Batch) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report, err := b.run(ctx)
	if report != nil {
		b.writeSummary(report, started, err)
	}
	return report, err
}

func (b *Batch) run(ctx context.Context) (*Report, error) {
	t, err := b.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	inputs, err := Discover(b.opts.InputDir)
	if err != nil {
		return nil, err
	}
	tmp := b.tmpDir
	if tmp == "" {
		tmp = os.TempDir()
	}
	if n := SweepWorkDirs(tmp, StaleWorkDirAge, b.log); n > 0 {
		b.log.Info("removed stale work directories", "count", n)
	}
	b.log.Info("starting batch",
		"inputs", len(inputs),
		"input_dir", b.opts.InputDir,
		"diarizer", b.diarizer.Name(),
		"transcriber", transcription.Provenance(t))

	correlator := transcription.NewCorrelator(t, b.layout, b.log)
	report := &Report{}
	for i, input := range inputs {
		name := SessionName(input)
		log := b.log.With("session", name)
		log.Info("processing recording", "file", filepath.Base(input), "position", fmt.Sprintf("%d/%d", i+1, len(inputs)))

		skip, err := b.shouldSkip(ctx, name)
		if err != nil {
			report.Failed = append(report.Failed, failure(name, input, err))
			log.Error("session failed", "error", err)
			continue
		}
		if skip {
			log.Info("session already stored, skipping")
			report.Skipped = append(report.Skipped, name)
			continue
		}

		if err := b.process(ctx, name, input, correlator); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed = append(report.Failed, failure(name, input, err))
			log.Error("session failed", "kind", perrors.KindOf(err), "error", err)
			continue
		}
		report.Succeeded = append(report.Succeeded, name)

		if !b.opts.KeepInputs && b.opts.ProcessedDir != "" {
			dst, err := Archive(input, b.opts.ProcessedDir)
			if err != nil {
				log.Warn("could not archive recording", "file", input, "error", err)
			} else {
				log.Debug("recording archived", "path", dst)
			}
		}
	}

	b.log.Info("batch complete",
		"succeeded", len(report.Succeeded),
		"failed", len(report.Failed),
		"skipped", len(report.Skipped))
	return report, nil
}

func (b *Batch) shouldSkip(ctx context.Context, name string) (bool, error) {
	if err := sessions.ValidateName(name); err != nil {
		return false, err
	}
	session, err := b.store.Get(ctx, name)
	if perrors.Is(err, perrors.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !b.opts.Reprocess {
		return true, nil
	}
	if session.Status == models.StatusCompleted {
		return false, perrors.SessionFatal("reprocess", name, fmt.Errorf("%w: %s", perrors.ErrAlreadyCompleted, name))
	}
	return false, nil
}

// process runs one recording up to the stored raw transcript.
func (b *Batch) process(ctx context.Context, name, input string, correlator *transcription.Correlator) error {
	work, err := os.MkdirTemp(b.tmpDir, workDirPrefix+sanitize(name)+"-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	audio := filepath.Join(work, name+".wav")
	if err := b.media.ExtractAudio(ctx, input, audio, b.opts.SampleRate); err != nil {
		return perrors.SessionFatal("extract audio", name, err)
	}

	res, err := b.diarizer.Diarize(ctx, audio)
	if err != nil {
		return perrors.SessionFatal("diarize", name, err)
	}

	ex, err := b.extractor.Extract(ctx, name, audio, res, b.diarizer.Name())
	if err != nil {
		return perrors.SessionFatal("extract segments", name, err)
	}

	corr, err := correlator.TranscribeSession(ctx, name)
	if err != nil {
		return err
	}
	if len(corr.Entries) == 0 {
		return perrors.SessionFatal("transcribe session", name, fmt.Errorf("%w: %d segments kept", perrors.ErrNoTranscripts, len(ex.Segments)))
	}

	return b.save(ctx, name, filepath.Base(input), corr.Entries)
}

func (b *Batch) save(ctx context.Context, name, source string, entries []models.TranscriptEntry) error {
	session, err := b.store.SaveRaw(ctx, sessions.RawInput{Name: name, SourceFile: source, Entries: entries})
	if err != nil {
		return err
	}
	path, err := b.store.ExportRaw(ctx, b.layout, name, b.extractor.Codec())
	if err != nil {
		return err
	}
	b.log.Info("session awaiting speaker assignment",
		"session", name,
		"entries", len(entries),
		"speakers", session.Speakers(),
		"raw_transcript", path)
	return nil
}

// Retranscribe re-runs transcription over existing segments and replaces the
// stored entries wholesale. Without names every session awaiting assignment
// is redone.
func (b *Batch) Retranscribe(ctx context.Context, names []string) (*Report, error) {
	t, err := transcription.SelectProvider(ctx, b.providers, b.log)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		pending, err := b.store.ListByStatus(ctx, models.StatusAwaitingAssignment)
		if err != nil {
			return nil, err
		}
		for _, s := range pending {
			names = append(names, s.Name)
		}
	}

	correlator := transcription.NewCorrelator(t, b.layout, b.log)
	report := &Report{}
	for _, name := range names {
		err := b.retranscribe(ctx, name, correlator)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed = append(report.Failed, failure(name, "", err))
			b.log.Error("retranscription failed", "session", name, "kind", perrors.KindOf(err), "error", err)
			continue
		}
		report.Succeeded = append(report.Succeeded, name)
	}
	b.log.Info("retranscription complete", "succeeded", len(report.Succeeded), "failed", len(report.Failed))
	return report, nil
}

func (b *Batch) retranscribe(ctx context.Context, name string, correlator *transcription.Correlator) error {
	source := ""
	session, err := b.store.Get(ctx, name)
	switch {
	case err == nil:
		if session.Status == models.StatusCompleted {
			return perrors.SessionFatal("retranscribe", name, fmt.Errorf("%w: %s", perrors.ErrAlreadyCompleted, name))
		}
		source = session.SourceFile
	case !perrors.Is(err, perrors.ErrSessionNotFound):
		return err
	}

	corr, err := correlator.TranscribeSession(ctx, name)
	if err != nil {
		return err
	}
	if len(corr.Entries) == 0 {
		return perrors.SessionFatal("retranscribe", name, perrors.ErrNoTranscripts)
	}
	return b.save(ctx, name, source, corr.Entries)
}

func failure(name, input string, err error) SessionFailure {
	return SessionFailure{Session: name, Input: input, Kind: perrors.KindOf(err), Err: err}
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '*' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
}
