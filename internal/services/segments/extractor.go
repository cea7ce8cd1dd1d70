package segments

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/killallgit/diarist/internal/services/diarization"
	"github.com/killallgit/diarist/internal/services/sessions"
	"github.com/killallgit/diarist/pkg/ffmpeg"
	"github.com/killallgit/diarist/pkg/logger"
)

// Audio is the media glue the extractor needs.
type Audio interface {
	GetMetadata(ctx context.Context, filePath string) (*ffmpeg.AudioMetadata, error)
	SliceSamples(ctx context.Context, input, output string, startSample, endSample int64) error
}

// Extraction is what one Extract call produced.
type Extraction struct {
	Session   string
	Segments  []Segment
	Discarded int
	Timeline  []TimelineEntry
	Summary   Summary
}

// Summary is the per-recording statistics document.
type Summary struct {
	File              string                  `json:"file"`
	ProcessedAt       time.Time               `json:"processed_at"`
	Diarizer          string                  `json:"diarizer,omitempty"`
	TotalDuration     float64                 `json:"total_duration"`
	NumSpeakers       int                     `json:"num_speakers"`
	Speakers          []string                `json:"speakers"`
	SpeakerStatistics map[string]SpeakerStats `json:"speaker_statistics"`
	TotalSegments     int                     `json:"total_segments"`
	KeptSegments      int                     `json:"kept_segments"`
}

type SpeakerStats struct {
	Segments        int     `json:"segments"`
	TotalSpeechTime float64 `json:"total_speech_time"`
	SpeechRatio     float64 `json:"speech_ratio"`
}

// DiarizationDocument is the structured timeline record.
type DiarizationDocument struct {
	AudioFile     string          `json:"audio_file"`
	ProcessedAt   time.Time       `json:"processed_at"`
	NumSpeakers   int             `json:"num_speakers"`
	TotalDuration float64         `json:"total_duration"`
	Timeline      []TimelineEntry `json:"timeline"`
}

// Options configures an Extractor
type Options struct {
	MinDuration float64
	Codec       string
}

// Extractor slices kept segments out of a recording and writes the session's
// timeline artifacts.
type Extractor struct {
	audio  Audio
	layout sessions.Layout
	opts   Options
	log    *logger.Logger
	now    func() time.Time
}

func NewExtractor(audio Audio, layout sessions.Layout, opts Options, log *logger.Logger) *Extractor {
	if opts.MinDuration <= 0 {
		opts.MinDuration = DefaultMinDuration
	}
	if opts.Codec == "" {
		opts.Codec = "wav"
	}
	return &Extractor{audio: audio, layout: layout, opts: opts, log: log, now: time.Now}
}

// Codec returns the extension segment files are written with.
func (e *Extractor) Codec() string {
	return e.opts.Codec
}

// Extract writes one audio file per kept interval plus the timeline (CSV and
// JSON), the RTTM of the raw output and a summary. The segments directory is
// cleared first so a re-run replaces earlier output.
func (e *Extractor) Extract(ctx context.Context, session, audioPath string, res *diarization.Result, diarizer string) (*Extraction, error) {
	if res == nil {
		res = &diarization.Result{}
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	log := e.log.With("session", session)

	meta, err := e.audio.GetMetadata(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio metadata: %w", err)
	}

	segDir := e.layout.SegmentsDir(session)
	if err := os.RemoveAll(segDir); err != nil {
		return nil, fmt.Errorf("clear segments: %w", err)
	}
	for _, dir := range []string{segDir, e.layout.MetadataDir(session)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	kept, discarded := Filter(res.Intervals, e.opts.MinDuration)
	log.Info("filtered diarization intervals",
		"kept", len(kept),
		"discarded", len(discarded),
		"min_duration", e.opts.MinDuration)
	for _, iv := range discarded {
		log.Debug("dropped short interval", "speaker", iv.Label, "duration", fmt.Sprintf("%.2f", iv.Duration()))
	}

	segs := Build(session, kept)
	for _, s := range segs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := filepath.Join(segDir, s.Filename(e.opts.Codec))
		if err := e.audio.SliceSamples(ctx, audioPath, out, meta.SampleIndex(s.Start()), meta.SampleIndex(s.End())); err != nil {
			return nil, fmt.Errorf("slice %s: %w", s.Address, err)
		}
	}
	log.Info("extracted speaker segments", "segments", len(segs), "dir", segDir)

	totalDuration := meta.Duration
	if totalDuration <= 0 {
		totalDuration = maxEnd(res.Intervals)
	}
	speakers := speakerSet(res)
	prov := Provenance{TotalSpeakers: len(speakers), TotalDuration: totalDuration}
	timeline := Timeline(segs, e.opts.Codec, prov)
	now := e.now().UTC()

	if err := writeTimelineCSV(e.layout.TimelineCSV(session), timeline); err != nil {
		return nil, fmt.Errorf("write timeline: %w", err)
	}
	doc := DiarizationDocument{
		AudioFile:     filepath.Base(audioPath),
		ProcessedAt:   now,
		NumSpeakers:   len(speakers),
		TotalDuration: totalDuration,
		Timeline:      timeline,
	}
	if err := sessions.WriteJSONFile(e.layout.DiarizationJSON(session), doc); err != nil {
		return nil, fmt.Errorf("write diarization record: %w", err)
	}
	if err := writeRTTM(e.layout.RTTM(session), session, res.Intervals); err != nil {
		return nil, fmt.Errorf("write rttm: %w", err)
	}

	summary := Summarize(res.Intervals, speakers, totalDuration)
	summary.File = filepath.Base(audioPath)
	summary.ProcessedAt = now
	summary.Diarizer = diarizer
	summary.KeptSegments = len(segs)
	if err := sessions.WriteJSONFile(e.layout.Summary(session), summary); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	log.Info("diarization summary",
		"speakers", summary.NumSpeakers,
		"segments", summary.TotalSegments,
		"duration", fmt.Sprintf("%.1fs", totalDuration))

	return &Extraction{
		Session:   session,
		Segments:  segs,
		Discarded: len(discarded),
		Timeline:  timeline,
		Summary:   summary,
	}, nil
}

// Summarize computes per speaker statistics over every raw interval.
func Summarize(intervals []diarization.Interval, speakers []string, totalDuration float64) Summary {
	stats := make(map[string]SpeakerStats, len(speakers))
	for _, sp := range speakers {
		stats[sp] = SpeakerStats{}
	}
	for _, iv := range intervals {
		st := stats[iv.Label]
		st.Segments++
		st.TotalSpeechTime += iv.Duration()
		stats[iv.Label] = st
	}
	for sp, st := range stats {
		if totalDuration > 0 {
			st.SpeechRatio = st.TotalSpeechTime / totalDuration
		}
		stats[sp] = st
	}
	return Summary{
		TotalDuration:     totalDuration,
		NumSpeakers:       len(speakers),
		Speakers:          speakers,
		SpeakerStatistics: stats,
		TotalSegments:     len(intervals),
	}
}

func speakerSet(res *diarization.Result) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range res.Speakers {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, iv := range res.Intervals {
		if !seen[iv.Label] {
			seen[iv.Label] = true
			out = append(out, iv.Label)
		}
	}
	sort.Strings(out)
	return out
}

func maxEnd(intervals []diarization.Interval) float64 {
	var end float64
	for _, iv := range intervals {
		if iv.End > end {
			end = iv.End
		}
	}
	return end
}

func writeTimelineCSV(path string, rows []TimelineEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"start_time", "end_time", "duration", "speaker", "segment"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatFloat(r.Start, 'f', 2, 64),
			strconv.FormatFloat(r.End, 'f', 2, 64),
			strconv.FormatFloat(r.Duration, 'f', 2, 64),
			r.Speaker,
			r.Segment,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeRTTM(path, fileID string, intervals []diarization.Interval) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := diarization.WriteRTTM(f, fileID, intervals); err != nil {
		return err
	}
	return f.Close()
}
