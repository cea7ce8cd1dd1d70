package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/pkg/address"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// RawDocument is the on-disk raw transcript record of a session. Transcripts
// are keyed by segment file name.
type RawDocument struct {
	SessionName      string                   `json:"session_name"`
	GeneratedAt      time.Time                `json:"generated_at"`
	TotalSegments    int                      `json:"total_segments"`
	SpeakersDetected []string                 `json:"speakers_detected"`
	Status           models.SessionStatus     `json:"status"`
	Version          int                      `json:"version"`
	SpeakerMappings  map[string]string        `json:"speaker_mappings,omitempty"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty"`
	Transcripts      map[string]RawTranscript `json:"transcripts"`
}

// RawTranscript is one entry of RawDocument.Transcripts.
type RawTranscript struct {
	SpeakerID  string  `json:"speaker_id"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
	Provider   string  `json:"provider,omitempty"`
}

// NewRawDocument renders a stored session and its entries.
// ext is the segment codec, with or without its leading dot.
func NewRawDocument(session *models.Session, entries []models.TranscriptEntry, ext string) RawDocument {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	doc := RawDocument{
		SessionName:      session.Name,
		GeneratedAt:      session.GeneratedAt,
		TotalSegments:    len(entries),
		SpeakersDetected: session.Speakers(),
		Status:           session.Status,
		Version:          session.Version,
		SpeakerMappings:  session.Mapping(),
		CompletedAt:      session.CompletedAt,
		Transcripts:      make(map[string]RawTranscript, len(entries)),
	}
	for _, e := range entries {
		doc.Transcripts[e.Address+ext] = RawTranscript{
			SpeakerID:  e.Label,
			StartTime:  e.Start,
			EndTime:    e.End,
			Duration:   e.Duration,
			Text:       e.Text,
			Confidence: e.Confidence,
			Language:   e.Language,
			Provider:   e.Provider,
		}
	}
	return doc
}

// Entries converts the document back to transcript entries, sorted by start
// time with the file name as tie-break.
func (d RawDocument) Entries() []models.TranscriptEntry {
	names := make([]string, 0, len(d.Transcripts))
	for name := range d.Transcripts {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]models.TranscriptEntry, 0, len(names))
	for _, name := range names {
		t := d.Transcripts[name]
		entries = append(entries, models.TranscriptEntry{
			Address:    address.TrimExt(name),
			Label:      t.SpeakerID,
			Start:      t.StartTime,
			End:        t.EndTime,
			Duration:   t.Duration,
			Text:       t.Text,
			Confidence: t.Confidence,
			Language:   t.Language,
			Provider:   t.Provider,
		})
	}
	SortByStart(entries)
	return entries
}

// ExportRaw writes the raw transcript document of a stored session.
func (s *Service) ExportRaw(ctx context.Context, layout Layout, name, ext string) (string, error) {
	session, err := s.Get(ctx, name)
	if err != nil {
		return "", err
	}
	entries, err := s.Entries(ctx, name)
	if err != nil {
		return "", err
	}

	path := layout.RawTranscripts(name)
	if err := WriteJSONFile(path, NewRawDocument(session, entries, ext)); err != nil {
		return "", fmt.Errorf("exporting raw transcript of %s: %w", name, err)
	}
	s.log.Debug("raw transcript exported", "session", name, "path", path)
	return path, nil
}

// ImportRaw adopts a raw transcript document written by an earlier run. A
// completed document is completed in the store with its mapping.
func (s *Service) ImportRaw(ctx context.Context, path string) (*models.Session, error) {
	var doc RawDocument
	if err := ReadJSONFile(path, &doc); err != nil {
		return nil, perrors.SessionFatal("import_raw", filepath.Base(path), err)
	}
	if doc.SessionName == "" {
		return nil, perrors.Validation("import_raw", "%s has no session_name", path)
	}

	session, err := s.SaveRaw(ctx, RawInput{Name: doc.SessionName, Entries: doc.Entries()})
	if err != nil {
		return nil, err
	}
	if doc.Status == models.StatusCompleted && len(doc.SpeakerMappings) > 0 {
		return s.Complete(ctx, doc.SessionName, doc.SpeakerMappings, session.Version)
	}
	return session, nil
}

// WriteJSONFile writes v indented, creating parent directories.
func WriteJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadJSONFile decodes the JSON document at path into v.
func ReadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
