package speakers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/diarist/internal/database"
	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/internal/services/sessions"
	"github.com/killallgit/diarist/pkg/address"
	"github.com/killallgit/diarist/pkg/logger"
	"github.com/killallgit/diarist/pkg/storage"
)

type fixture struct {
	store    *sessions.Service
	runs     RunRepository
	layout   sessions.Layout
	registry *storage.Local
	agg      *Aggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open("", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		store:    sessions.NewService(sessions.NewRepository(db.DB), logger.Nop()),
		runs:     NewRunRepository(db.DB),
		layout:   sessions.NewLayout(t.TempDir()),
		registry: registry,
	}
	f.agg = NewAggregator(f.store, f.layout, registry, f.runs, "wav", logger.Nop())
	f.agg.now = func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }
	f.agg.newID = func() string { return "run-1" }
	return f
}

func segEntry(session, label string, idx int, start, end float64) models.TranscriptEntry {
	addr := address.Address{Session: session, Label: label, Index: idx, Start: start, End: end}
	return models.TranscriptEntry{
		Address:  addr.Format(),
		Label:    label,
		Start:    start,
		End:      end,
		Duration: end - start,
		Text:     "words",
	}
}

// addSession stores entries and writes their segment audio, except for the
// addresses listed in absent.
func (f *fixture) addSession(t *testing.T, name string, entries []models.TranscriptEntry, mapping map[string]string, absent ...string) {
	t.Helper()
	ctx := context.Background()
	dir := f.layout.SegmentsDir(name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	skip := map[string]bool{}
	for _, a := range absent {
		skip[a] = true
	}
	for _, e := range entries {
		if skip[e.Address] {
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Address+".wav"), []byte(e.Address), 0644))
	}
	s, err := f.store.SaveRaw(ctx, sessions.RawInput{Name: name, Entries: entries})
	require.NoError(t, err)
	if mapping != nil {
		_, err = f.store.Complete(ctx, name, mapping, s.Version)
		require.NoError(t, err)
	}
}

func TestTwoSessionsOneSpeaker(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "mon", []models.TranscriptEntry{
		segEntry("mon", "SPEAKER_00", 0, 1, 3),
		segEntry("mon", "SPEAKER_01", 1, 4, 7),
	}, map[string]string{"SPEAKER_00": "Alex", "SPEAKER_01": "Sam"})
	f.addSession(t, "tue", []models.TranscriptEntry{
		segEntry("tue", "SPEAKER_01", 0, 2, 6),
		segEntry("tue", "SPEAKER_00", 1, 8, 9.5),
	}, map[string]string{"SPEAKER_01": "Alex"})

	report, err := f.agg.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, report.Profiles, 3)
	alex := report.Profiles[0]
	assert.Equal(t, "Alex", alex.SpeakerName)
	assert.Equal(t, 2, alex.SessionsInvolved)
	assert.Equal(t, 2, alex.TotalSegments)
	assert.Equal(t, 6.0, alex.TotalDurationSeconds)
	assert.Equal(t, 3.0, alex.AverageSegmentDuration)
	assert.Equal(t, []string{"mon", "tue"}, alex.SessionsList)
	assert.Equal(t, []string{"SPEAKER_00"}, alex.SessionBreakdown["mon"].Labels)
	assert.Equal(t, []string{"SPEAKER_01"}, alex.SessionBreakdown["tue"].Labels)
	assert.Len(t, alex.Files, 2)

	// unmapped label of tue keeps its ephemeral label
	assert.Equal(t, "SPEAKER_00", report.Profiles[1].SpeakerName)
	assert.Equal(t, "Sam", report.Profiles[2].SpeakerName)

	assert.Equal(t, 4, report.Matched)
	assert.Equal(t, 4, report.NewCopies)
	assert.Zero(t, report.Missing)
	assert.Equal(t, report.Entries, report.Matched+report.Missing)

	ok, err := f.registry.Exists(context.Background(), "Alex/tue_"+segEntry("tue", "SPEAKER_01", 0, 2, 6).Address+".wav")
	require.NoError(t, err)
	assert.True(t, ok)

	var profile models.SpeakerProfile
	require.NoError(t, storage.ReadJSON(context.Background(), f.registry, "Alex/Alex_profile.json", &profile))
	assert.Equal(t, 2, profile.SessionsInvolved)

	summary, err := LoadSummary(context.Background(), f.registry)
	require.NoError(t, err)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 3, summary.TotalSpeakers)
	assert.Equal(t, 2, summary.SessionsProcessed)
	assert.Equal(t, 4, summary.TotalSegments)
	assert.Equal(t, 2, summary.SpeakersSummary["Alex"].Sessions)

	run, err := f.runs.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 4, run.TotalEntries)
	assert.Equal(t, ModeCompleted, run.Mode)
}

func TestMissingAudioIsCounted(t *testing.T) {
	f := newFixture(t)
	gone := segEntry("mon", "SPEAKER_00", 1, 5, 8)
	f.addSession(t, "mon", []models.TranscriptEntry{
		segEntry("mon", "SPEAKER_00", 0, 1, 3),
		gone,
	}, map[string]string{"SPEAKER_00": "Alex"}, gone.Address)

	report, err := f.agg.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.Missing)
	assert.Equal(t, 2, report.Entries)

	require.Len(t, report.Profiles, 1)
	assert.Equal(t, 1, report.Profiles[0].MissingSegments)
	assert.Equal(t, 1, report.Profiles[0].TotalSegments)
	assert.Equal(t, 1, report.Profiles[0].SessionsInvolved)
}

func TestRerunDoesNotDuplicate(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "mon", []models.TranscriptEntry{
		segEntry("mon", "SPEAKER_00", 0, 1, 3),
	}, map[string]string{"SPEAKER_00": "Alex"})

	first, err := f.agg.Run(context.Background(), Options{})
	require.NoError(t, err)
	second, err := f.agg.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, first.NewCopies)
	assert.Zero(t, second.NewCopies)
	assert.Equal(t, 1, second.Matched)
	assert.Equal(t, first.Profiles[0].TotalSegments, second.Profiles[0].TotalSegments)
}

func TestRawModeUsesEveryStoredSession(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, "mon", []models.TranscriptEntry{segEntry("mon", "SPEAKER_00", 0, 1, 3)}, map[string]string{"SPEAKER_00": "Alex"})
	f.addSession(t, "tue", []models.TranscriptEntry{segEntry("tue", "SPEAKER_00", 0, 1, 4)}, nil)

	completed, err := f.agg.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, completed.Summary.SessionsProcessed)

	raw, err := f.agg.Run(context.Background(), Options{UseRaw: true})
	require.NoError(t, err)
	assert.Equal(t, ModeRaw, raw.Summary.Mode)
	require.Len(t, raw.Profiles, 1)
	assert.Equal(t, "SPEAKER_00", raw.Profiles[0].SpeakerName)
	assert.Equal(t, 2, raw.Profiles[0].SessionsInvolved)
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	e := segEntry("mon", "SPEAKER_00", 2, 10.04, 12)

	t.Run("exact", func(t *testing.T) {
		touch(e.Address + ".wav")
		defer os.Remove(filepath.Join(dir, e.Address+".wav"))
		m, ok := Locate(dir, "mon", e, "wav")
		require.True(t, ok)
		assert.False(t, m.Fallback)
	})

	t.Run("fallback picks lowest index", func(t *testing.T) {
		touch("mon_SPEAKER_00_007_10.0s-12.1s.wav")
		touch("mon_SPEAKER_00_004_10.0s-11.9s.wav")
		touch("mon_SPEAKER_01_001_10.0s-12.0s.wav")
		touch("mon_SPEAKER_00_003_20.0s-22.0s.wav")
		m, ok := Locate(dir, "mon", e, "wav")
		require.True(t, ok)
		assert.True(t, m.Fallback)
		assert.Equal(t, "mon_SPEAKER_00_004_10.0s-11.9s.wav", filepath.Base(m.Path))
		assert.Equal(t, 1, m.Ambiguous)
	})

	t.Run("no candidate", func(t *testing.T) {
		_, ok := Locate(dir, "mon", segEntry("mon", "SPEAKER_02", 0, 1, 2), "wav")
		assert.False(t, ok)
	})
}

func TestInvert(t *testing.T) {
	got := Invert(map[string]string{"SPEAKER_00": "Alex", "SPEAKER_01": "Sam", "SPEAKER_02": "Alex"})
	assert.Equal(t, []string{"SPEAKER_00", "SPEAKER_02"}, got["Alex"])
	assert.Equal(t, []string{"SPEAKER_01"}, got["Sam"])
	assert.Empty(t, Invert(nil))
}

func TestLatestWithoutRuns(t *testing.T) {
	f := newFixture(t)
	run, err := f.runs.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, run)
}
