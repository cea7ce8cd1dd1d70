package sessions

import (
	"os"
	"path/filepath"
	"sort"
)

// Layout maps a session to its directory tree under the output root:
//
//	<root>/<session>/segments/<address>.wav
//	<root>/<session>/metadata/<session>_timeline.csv
//	<root>/<session>/metadata/<session>_raw_transcripts.json
//	...
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) SessionDir(name string) string {
	return filepath.Join(l.Root, name)
}

func (l Layout) SegmentsDir(name string) string {
	return filepath.Join(l.SessionDir(name), "segments")
}

func (l Layout) MetadataDir(name string) string {
	return filepath.Join(l.SessionDir(name), "metadata")
}

func (l Layout) metadataFile(name, suffix string) string {
	return filepath.Join(l.MetadataDir(name), name+suffix)
}

func (l Layout) TimelineCSV(name string) string {
	return l.metadataFile(name, "_timeline.csv")
}

func (l Layout) DiarizationJSON(name string) string {
	return l.metadataFile(name, "_diarization.json")
}

func (l Layout) RTTM(name string) string {
	return l.metadataFile(name, ".rttm")
}

func (l Layout) Summary(name string) string {
	return l.metadataFile(name, "_summary.json")
}

func (l Layout) RawTranscripts(name string) string {
	return l.metadataFile(name, "_raw_transcripts.json")
}

func (l Layout) FinalTranscript(name string) string {
	return l.metadataFile(name, "_final_transcript.json")
}

func (l Layout) FinalTranscriptTXT(name string) string {
	return l.metadataFile(name, "_final_transcript.txt")
}

func (l Layout) FinalTranscriptCSV(name string) string {
	return l.metadataFile(name, "_final_transcript.csv")
}

// BatchSummary is the report of the latest batch run.
func (l Layout) BatchSummary() string {
	return filepath.Join(l.Root, "batch_summary.json")
}

// HasTimeline reports whether the diarization timeline of a session exists.
func (l Layout) HasTimeline(name string) bool {
	_, err := os.Stat(l.TimelineCSV(name))
	return err == nil
}

// DiscoverRaw lists session directories holding a raw transcript document.
func (l Layout) DiscoverRaw() ([]string, error) {
	dirs, err := os.ReadDir(l.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		if _, err := os.Stat(l.RawTranscripts(d.Name())); err == nil {
			names = append(names, d.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
