// Package assignment maps a session's ephemeral speaker labels to durable
// names and writes the finalized transcript.
package assignment

import (
	"sort"
	"strings"
	"unicode"

	"github.com/killallgit/diarist/internal/models"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// SkipDirective keeps a label unchanged.
const SkipDirective = "skip"

// DefaultSamples is how many representative entries are offered per label.
const DefaultSamples = 3

// ValidateName accepts a durable name when, with spaces, hyphens and
// underscores removed, it is non-empty and made of letters and digits.
func ValidateName(name string) error {
	stripped := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(name)
	if stripped == "" {
		return perrors.Validation("speaker_name", "speaker name %q is empty", name)
	}
	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return perrors.Validation("speaker_name", "speaker name %q may only use letters, numbers, spaces, hyphens and underscores", name)
		}
	}
	return nil
}

// Labels returns the distinct labels of entries in lexicographic order.
func Labels(entries []models.TranscriptEntry) []string {
	seen := map[string]bool{}
	var labels []string
	for _, e := range entries {
		if !seen[e.Label] {
			seen[e.Label] = true
			labels = append(labels, e.Label)
		}
	}
	sort.Strings(labels)
	return labels
}

// Representatives picks up to n entries of label, longest first. Entries of
// equal duration keep their order in the collection.
func Representatives(entries []models.TranscriptEntry, label string, n int) []models.TranscriptEntry {
	var out []models.TranscriptEntry
	for _, e := range entries {
		if e.Label == label {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Duration > out[j].Duration })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
