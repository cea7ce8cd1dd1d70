// Package speakers merges the segment evidence of every durable speaker
// across sessions into a registry of per-speaker audio and profiles.
package speakers

import (
	"context"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/internal/services/sessions"
	"github.com/killallgit/diarist/pkg/logger"
	"github.com/killallgit/diarist/pkg/storage"
)

const (
	// SummaryFile is the overall record of the latest run, at the registry root.
	SummaryFile = "speakers_summary.json"

	ModeCompleted = "completed"
	ModeRaw       = "raw"
)

// Options for one aggregation run
type Options struct {
	// UseRaw aggregates every stored session under its ephemeral labels.
	UseRaw bool
}

// Report is the outcome of one run. Matched + Missing equals the number of
// transcript entries across the processed sessions.
type Report struct {
	Profiles  []models.SpeakerProfile
	Summary   models.SpeakersSummary
	Matched   int
	NewCopies int
	Missing   int
	Entries   int
}

// Aggregator builds the speaker registry from the session store.
type Aggregator struct {
	store    sessions.Store
	layout   sessions.Layout
	registry storage.FileStore
	runs     RunRepository
	codec    string
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewAggregator wires an aggregator. runs may be nil to skip recording runs.
func NewAggregator(store sessions.Store, layout sessions.Layout, registry storage.FileStore, runs RunRepository, codec string, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{
		store:    store,
		layout:   layout,
		registry: registry,
		runs:     runs,
		codec:    codec,
		log:      log,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

type profileBuilder struct {
	profile  models.SpeakerProfile
	files    map[string]bool
	sessions map[string]bool
}

// Run recomputes every profile from scratch. Missing audio is counted and
// logged but never aborts the run; registry write failures do.
func (a *Aggregator) Run(ctx context.Context, opts Options) (*Report, error) {
	mode := ModeCompleted
	var list []models.Session
	var err error
	if opts.UseRaw {
		mode = ModeRaw
		list, err = a.store.List(ctx)
	} else {
		list, err = a.store.ListByStatus(ctx, models.StatusCompleted)
	}
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	now := a.now().UTC()
	report := &Report{}
	builders := map[string]*profileBuilder{}

	for i := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		session := &list[i]
		entries, err := a.store.Entries(ctx, session.Name)
		if err != nil {
			return nil, fmt.Errorf("loading entries of %s: %w", session.Name, err)
		}
		mapping := sessionMapping(session, opts.UseRaw)
		for name, labels := range Invert(mapping) {
			if len(labels) > 1 {
				a.log.Warn("several labels of one session share a speaker name",
					"session", session.Name, "speaker", name, "labels", labels)
			}
		}
		segmentsDir := a.layout.SegmentsDir(session.Name)

		for _, e := range entries {
			report.Entries++
			name := durableName(mapping, e.Label)
			b := builders[name]
			if b == nil {
				b = &profileBuilder{
					profile: models.SpeakerProfile{
						SpeakerName:      name,
						GeneratedAt:      now,
						SessionBreakdown: map[string]models.SessionContribution{},
					},
					files:    map[string]bool{},
					sessions: map[string]bool{},
				}
				builders[name] = b
			}
			contrib := b.profile.SessionBreakdown[session.Name]
			contrib.Labels = addLabel(contrib.Labels, e.Label)
			b.sessions[session.Name] = true

			match, ok := Locate(segmentsDir, session.Name, e, a.codec)
			if !ok {
				report.Missing++
				b.profile.MissingSegments++
				b.profile.SessionBreakdown[session.Name] = contrib
				a.log.Warn("segment audio not found",
					"session", session.Name,
					"segment", e.Address,
					"speaker", name)
				continue
			}
			if match.Fallback {
				a.log.Warn("segment audio matched by label and start time",
					"session", session.Name,
					"segment", e.Address,
					"file", filepath.Base(match.Path),
					"other_candidates", match.Ambiguous)
			}

			dst := path.Join(name, session.Name+"_"+filepath.Base(match.Path))
			copied, err := storage.PutFileIfAbsent(ctx, a.registry, match.Path, dst)
			if err != nil {
				return nil, fmt.Errorf("copying %s to the speaker registry: %w", match.Path, err)
			}
			if copied {
				report.NewCopies++
			}
			report.Matched++

			contrib.Segments++
			contrib.Duration += e.Duration
			b.profile.SessionBreakdown[session.Name] = contrib
			b.profile.TotalSegments++
			b.profile.TotalDurationSeconds += e.Duration
			b.files[dst] = true
		}
	}

	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)

	summary := models.SpeakersSummary{
		RunID:             a.newID(),
		GeneratedAt:       now,
		Mode:              mode,
		TotalSpeakers:     len(names),
		SessionsProcessed: len(list),
		MatchedSegments:   report.Matched,
		NewCopies:         report.NewCopies,
		MissingSegments:   report.Missing,
		SpeakersSummary:   make(map[string]models.SpeakerSummaryLine, len(names)),
	}

	for _, name := range names {
		b := builders[name]
		p := finishProfile(b)
		if err := storage.WriteJSON(ctx, a.registry, path.Join(name, name+"_profile.json"), p); err != nil {
			return nil, fmt.Errorf("writing profile of %s: %w", name, err)
		}
		report.Profiles = append(report.Profiles, p)

		summary.TotalSegments += p.TotalSegments
		summary.TotalDurationSeconds += p.TotalDurationSeconds
		summary.SpeakersSummary[name] = models.SpeakerSummaryLine{
			Segments:        p.TotalSegments,
			DurationMinutes: p.TotalDurationMinutes,
			Sessions:        p.SessionsInvolved,
		}
		a.log.Info("speaker profile written",
			"speaker", name,
			"segments", p.TotalSegments,
			"minutes", p.TotalDurationMinutes,
			"sessions", p.SessionsInvolved,
			"missing", p.MissingSegments)
	}
	summary.TotalDurationSeconds = round2(summary.TotalDurationSeconds)
	summary.TotalDurationMinutes = round2(summary.TotalDurationSeconds / 60)
	summary.TotalDurationHours = round2(summary.TotalDurationSeconds / 3600)

	if err := storage.WriteJSON(ctx, a.registry, SummaryFile, summary); err != nil {
		return nil, fmt.Errorf("writing speakers summary: %w", err)
	}
	report.Summary = summary

	if a.runs != nil {
		run := &models.AggregationRun{
			ID:                summary.RunID,
			Mode:              mode,
			SessionsProcessed: summary.SessionsProcessed,
			TotalSpeakers:     summary.TotalSpeakers,
			TotalEntries:      report.Entries,
			Matched:           report.Matched,
			NewCopies:         report.NewCopies,
			Missing:           report.Missing,
			Destination:       a.registry.Location(""),
			CreatedAt:         now,
		}
		if err := a.runs.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("recording aggregation run: %w", err)
		}
	}

	a.log.Info("speaker aggregation complete",
		"mode", mode,
		"sessions", summary.SessionsProcessed,
		"speakers", summary.TotalSpeakers,
		"matched", report.Matched,
		"new_copies", report.NewCopies,
		"missing", report.Missing,
		"destination", a.registry.Location(""))
	return report, nil
}

// LoadSummary reads the summary of the latest run from the registry.
func LoadSummary(ctx context.Context, registry storage.FileStore) (*models.SpeakersSummary, error) {
	var s models.SpeakersSummary
	if err := storage.ReadJSON(ctx, registry, SummaryFile, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func finishProfile(b *profileBuilder) models.SpeakerProfile {
	p := b.profile
	p.TotalDurationSeconds = round2(p.TotalDurationSeconds)
	p.TotalDurationMinutes = round2(p.TotalDurationSeconds / 60)
	if p.TotalSegments > 0 {
		p.AverageSegmentDuration = round2(p.TotalDurationSeconds / float64(p.TotalSegments))
	}
	for s, c := range p.SessionBreakdown {
		c.Duration = round2(c.Duration)
		p.SessionBreakdown[s] = c
	}
	p.SessionsInvolved = len(b.sessions)
	p.SessionsList = sortedKeys(b.sessions)
	p.Files = sortedKeys(b.files)
	return p
}

// sessionMapping is nil for raw runs, so every label names itself.
func sessionMapping(s *models.Session, raw bool) map[string]string {
	if raw {
		return nil
	}
	return s.Mapping()
}

func durableName(mapping map[string]string, label string) string {
	if name, ok := mapping[label]; ok && name != "" {
		return name
	}
	return label
}

// Invert groups a session's labels by durable name. A well formed session
// maps at most one label to each name.
func Invert(mapping map[string]string) map[string][]string {
	out := make(map[string][]string, len(mapping))
	for label, name := range mapping {
		out[name] = append(out[name], label)
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}

func addLabel(labels []string, label string) []string {
	for _, l := range labels {
		if l == label {
			return labels
		}
	}
	labels = append(labels, label)
	sort.Strings(labels)
	return labels
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
