package assignment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/pkg/logger"
)

// Fallback records a label whose proposed name was rejected.
type Fallback struct {
	Label    string
	Proposed string
	Reason   string
}

// Resolution is the outcome of resolving one session.
type Resolution struct {
	Mapping   map[string]string
	Skipped   []string
	Fallbacks []Fallback
}

// Resolver obtains a durable name for every label of a session.
type Resolver struct {
	prompter Prompter
	samples  int
	log      *logger.Logger
}

func NewResolver(p Prompter, samples int, log *logger.Logger) *Resolver {
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &Resolver{prompter: p, samples: samples, log: log}
}

// Resolve asks for each label in lexicographic order. segmentsDir locates
// sample audio and may be empty. Zero labels yield an empty mapping.
func (r *Resolver) Resolve(ctx context.Context, session string, entries []models.TranscriptEntry, segmentsDir, ext string) (*Resolution, error) {
	res := &Resolution{Mapping: map[string]string{}}
	labels := Labels(entries)
	if len(labels) == 0 {
		return res, nil
	}

	isLabel := map[string]bool{}
	for _, l := range labels {
		isLabel[l] = true
	}
	owner := map[string]string{}
	for _, label := range labels {
		req := Request{Session: session, Label: label}
		for _, e := range Representatives(entries, label, r.samples) {
			req.Samples = append(req.Samples, Sample{Entry: e, AudioPath: sampleAudio(segmentsDir, e.Address, ext)})
		}

		answer, err := r.prompter.AskName(ctx, req)
		if err != nil {
			return nil, err
		}
		answer = strings.TrimSpace(answer)

		name := label
		switch {
		case answer == "" || strings.EqualFold(answer, SkipDirective):
			res.Skipped = append(res.Skipped, label)
		case ValidateName(answer) != nil:
			r.fallback(ctx, res, label, answer, ValidateName(answer).Error())
		case owner[answer] != "":
			r.fallback(ctx, res, label, answer, fmt.Sprintf("name %q is already assigned to %s in this session", answer, owner[answer]))
		case isLabel[answer] && answer != label:
			r.fallback(ctx, res, label, answer, fmt.Sprintf("name %q is another speaker label of this session", answer))
		default:
			name = answer
		}
		owner[name] = label
		res.Mapping[label] = name
		r.log.Info("speaker resolved", "session", session, "label", label, "name", name)
		if c, ok := r.prompter.(interface{ Confirm(label, name string) }); ok {
			c.Confirm(label, name)
		}
	}
	return res, nil
}

func (r *Resolver) fallback(ctx context.Context, res *Resolution, label, proposed, reason string) {
	res.Fallbacks = append(res.Fallbacks, Fallback{Label: label, Proposed: proposed, Reason: reason})
	r.log.Warn("speaker name rejected, keeping label", "label", label, "proposed", proposed, "reason", reason)
	r.prompter.Notify(ctx, fmt.Sprintf("%s: keeping %s", reason, label))
}

func sampleAudio(dir, addr, ext string) string {
	if dir == "" {
		return ""
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	path := filepath.Join(dir, addr+ext)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
