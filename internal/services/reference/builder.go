// Package reference assembles a voice reference clip for one speaker from
// the segments aggregated into the speaker registry.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/killallgit/diarist/pkg/address"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/logger"
)

const (
	DefaultTargetDuration = 180.0
	DefaultPause          = 1.0
)

// Concatenator joins audio clips with silence in between.
type Concatenator interface {
	Concat(ctx context.Context, inputs []string, pause float64, output string, sampleRate int) error
}

// Options configures a Builder
type Options struct {
	TargetDuration float64
	Pause          float64
	SampleRate     int
	// Codec is the extension of registry segments, "wav" by default.
	Codec string
}

// Clip is one registry segment used in a reference.
type Clip struct {
	File     string  `json:"file"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Manifest describes a built reference clip.
type Manifest struct {
	Speaker        string    `json:"speaker"`
	GeneratedAt    time.Time `json:"generated_at"`
	Output         string    `json:"output"`
	TargetDuration float64   `json:"target_duration"`
	Pause          float64   `json:"pause"`
	SpeechDuration float64   `json:"speech_duration"`
	TotalDuration  float64   `json:"total_duration"`
	Clips          []Clip    `json:"clips"`
}

// Builder picks registry segments and concatenates them.
type Builder struct {
	media Concatenator
	root  string
	opts  Options
	log   *logger.Logger
	now   func() time.Time
}

// NewBuilder reads speakers from registryDir, one directory per name.
func NewBuilder(media Concatenator, registryDir string, opts Options, log *logger.Logger) *Builder {
	if opts.TargetDuration <= 0 {
		opts.TargetDuration = DefaultTargetDuration
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	opts.Codec = strings.TrimPrefix(opts.Codec, ".")
	if opts.Codec == "" {
		opts.Codec = "wav"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{media: media, root: registryDir, opts: opts, log: log, now: time.Now}
}

// OutputDir is where the reference of speaker is written.
func (b *Builder) OutputDir(speaker string) string {
	return filepath.Join(b.root, speaker, "reference")
}

// Select returns the speaker's clips in timestamp order, stopping once their
// speech reaches the target duration.
func (b *Builder) Select(speaker string) ([]Clip, error) {
	dir := filepath.Join(b.root, speaker)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.Validation("reference", "speaker %q has no registry directory", speaker)
		}
		return nil, err
	}

	var all []Clip
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), "."+b.opts.Codec) {
			continue
		}
		addr, err := address.Parse(e.Name())
		if err != nil {
			b.log.Debug("skipping registry file without a segment address", "file", e.Name())
			continue
		}
		all = append(all, Clip{
			File:     filepath.Join(dir, e.Name()),
			Start:    addr.Start,
			End:      addr.End,
			Duration: addr.Duration(),
		})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].File < all[j].File
	})

	var picked []Clip
	total := 0.0
	for _, c := range all {
		if total >= b.opts.TargetDuration {
			break
		}
		picked = append(picked, c)
		total += c.Duration
	}
	return picked, nil
}

// Build writes <speaker>_reference.<codec> and its manifest.
func (b *Builder) Build(ctx context.Context, speaker string) (*Manifest, error) {
	clips, err := b.Select(speaker)
	if err != nil {
		return nil, err
	}
	if len(clips) == 0 {
		return nil, perrors.Validation("reference", "speaker %q has no usable segments", speaker)
	}

	out := filepath.Join(b.OutputDir(speaker), speaker+"_reference."+b.opts.Codec)
	inputs := make([]string, len(clips))
	m := &Manifest{
		Speaker:        speaker,
		GeneratedAt:    b.now().UTC(),
		Output:         out,
		TargetDuration: b.opts.TargetDuration,
		Pause:          b.opts.Pause,
		Clips:          clips,
	}
	for i, c := range clips {
		inputs[i] = c.File
		m.SpeechDuration += c.Duration
	}
	m.TotalDuration = m.SpeechDuration + b.opts.Pause*float64(len(clips)-1)

	if err := os.MkdirAll(b.OutputDir(speaker), 0755); err != nil {
		return nil, err
	}
	if err := b.media.Concat(ctx, inputs, b.opts.Pause, out, b.opts.SampleRate); err != nil {
		return nil, fmt.Errorf("concatenating reference for %s: %w", speaker, err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(b.OutputDir(speaker), speaker+"_reference.json"), data, 0644); err != nil {
		return nil, fmt.Errorf("writing reference manifest: %w", err)
	}

	if m.SpeechDuration < b.opts.TargetDuration {
		b.log.Warn("reference shorter than target", "speaker", speaker, "speech", m.SpeechDuration, "target", b.opts.TargetDuration)
	}
	b.log.Info("reference clip written", "speaker", speaker, "clips", len(clips), "duration", m.TotalDuration, "path", out)
	return m, nil
}
