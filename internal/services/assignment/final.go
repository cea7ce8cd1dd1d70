package assignment

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/internal/services/sessions"
)

// FinalTranscript is the finalized, speaker-named transcript of a session.
type FinalTranscript struct {
	SessionName     string            `json:"session_name"`
	GeneratedAt     time.Time         `json:"generated_at"`
	TotalSegments   int               `json:"total_segments"`
	Speakers        []string          `json:"speakers"`
	SpeakerMappings map[string]string `json:"speaker_mappings"`
	Transcript      []FinalEntry      `json:"transcript"`
}

// FinalEntry keeps the numeric start next to its MM:SS rendering.
type FinalEntry struct {
	Timestamp          float64 `json:"timestamp"`
	TimestampFormatted string  `json:"timestamp_formatted"`
	Duration           float64 `json:"duration"`
	Speaker            string  `json:"speaker"`
	Text               string  `json:"text"`
}

// FormatTimestamp renders seconds as MM:SS; minutes are not wrapped at 60.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Finalize re-keys entries through mapping and sorts them by start time.
// Labels missing from mapping keep their ephemeral label.
func Finalize(session string, entries []models.TranscriptEntry, mapping map[string]string, now time.Time) FinalTranscript {
	sorted := append([]models.TranscriptEntry(nil), entries...)
	sessions.SortByStart(sorted)

	ft := FinalTranscript{
		SessionName:     session,
		GeneratedAt:     now.UTC(),
		TotalSegments:   len(sorted),
		SpeakerMappings: map[string]string{},
		Transcript:      make([]FinalEntry, 0, len(sorted)),
	}
	for label, name := range mapping {
		ft.SpeakerMappings[label] = name
	}

	seen := map[string]bool{}
	for _, label := range Labels(sorted) {
		name := resolve(mapping, label)
		ft.SpeakerMappings[label] = name
		if !seen[name] {
			seen[name] = true
			ft.Speakers = append(ft.Speakers, name)
		}
	}
	sort.Strings(ft.Speakers)

	for _, e := range sorted {
		ft.Transcript = append(ft.Transcript, FinalEntry{
			Timestamp:          e.Start,
			TimestampFormatted: FormatTimestamp(e.Start),
			Duration:           e.Duration,
			Speaker:            resolve(mapping, e.Label),
			Text:               e.Text,
		})
	}
	return ft
}

func resolve(mapping map[string]string, label string) string {
	if name, ok := mapping[label]; ok && name != "" {
		return name
	}
	return label
}

// FinalPaths lists the documents WriteFinal produced.
type FinalPaths struct {
	JSON string
	TXT  string
	CSV  string
}

// WriteFinal writes the transcript as JSON, plain text and CSV next to the
// session's other metadata.
func WriteFinal(layout sessions.Layout, ft FinalTranscript) (FinalPaths, error) {
	paths := FinalPaths{
		JSON: layout.FinalTranscript(ft.SessionName),
		TXT:  layout.FinalTranscriptTXT(ft.SessionName),
		CSV:  layout.FinalTranscriptCSV(ft.SessionName),
	}
	if err := sessions.WriteJSONFile(paths.JSON, ft); err != nil {
		return paths, fmt.Errorf("write final transcript: %w", err)
	}
	if err := os.WriteFile(paths.TXT, []byte(RenderText(ft)), 0644); err != nil {
		return paths, fmt.Errorf("write text transcript: %w", err)
	}
	if err := writeFinalCSV(paths.CSV, ft); err != nil {
		return paths, fmt.Errorf("write csv transcript: %w", err)
	}
	return paths, nil
}

// RenderText renders the human readable transcript.
func RenderText(ft FinalTranscript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting Transcript: %s\n", ft.SessionName)
	fmt.Fprintf(&b, "Generated: %s\n", ft.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Speakers: %s\n", strings.Join(ft.Speakers, ", "))
	b.WriteString(strings.Repeat("=", 80) + "\n\n")
	for _, e := range ft.Transcript {
		fmt.Fprintf(&b, "[%s] %s: %s\n\n", e.TimestampFormatted, e.Speaker, e.Text)
	}
	return b.String()
}

func writeFinalCSV(path string, ft FinalTranscript) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "timestamp_formatted", "duration", "speaker", "text"}); err != nil {
		return err
	}
	for _, e := range ft.Transcript {
		if err := w.Write([]string{
			strconv.FormatFloat(e.Timestamp, 'f', -1, 64),
			e.TimestampFormatted,
			strconv.FormatFloat(e.Duration, 'f', -1, 64),
			e.Speaker,
			e.Text,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
