// Package address implements the segment addressing scheme shared by the
// segment extractor, the transcript correlator and the speaker aggregator.
//
// An address encodes session, speaker label, sequence index and the start/end
// times of a segment:
//
//	<session>_<label>_<index:03d>_<start:.1f>s-<end:.1f>s
//
// The same string is used as the audio file name (plus a codec extension), so
// it must round-trip through Format and Parse.
package address

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	perrors "github.com/killallgit/diarist/pkg/errors"
)

// ErrInvalid is returned when a string is not a well formed segment address.
var ErrInvalid = perrors.ErrInvalidAddress

// timeSuffix marks a value in the address as a time in seconds.
const timeSuffix = "s"

// Address identifies one segment of one session.
type Address struct {
	Session string
	Label   string
	Index   int
	Start   float64
	End     float64
}

// Format renders the address without any file extension.
func (a Address) Format() string {
	return fmt.Sprintf("%s_%s_%03d_%s-%s", a.Session, a.Label, a.Index, FormatTime(a.Start), FormatTime(a.End))
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Format()
}

// Filename returns the address with the given extension appended.
// ext may be given with or without the leading dot.
func (a Address) Filename(ext string) string {
	if ext == "" {
		return a.Format()
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return a.Format() + ext
}

// Duration returns End - Start.
func (a Address) Duration() float64 {
	return a.End - a.Start
}

// SameSegment reports whether b refers to the same segment as a once both are
// rounded to the precision the address format carries.
func (a Address) SameSegment(b Address) bool {
	return a.Session == b.Session &&
		a.Label == b.Label &&
		a.Index == b.Index &&
		Round(a.Start) == Round(b.Start) &&
		Round(a.End) == Round(b.End)
}

// ValidateLabel rejects speaker labels that cannot be embedded in a segment
// file name.
func ValidateLabel(label string) error {
	switch {
	case strings.TrimSpace(label) == "":
		return perrors.Validation("speaker_label", "speaker label is empty")
	case label == "." || label == "..":
		return perrors.Validation("speaker_label", "speaker label %q is not a file name", label)
	case strings.ContainsAny(label, `/\`+"\x00"):
		return perrors.Validation("speaker_label", "speaker label %q contains a path separator", label)
	}
	return nil
}

// FormatTime renders seconds the way they appear inside an address ("12.3s").
func FormatTime(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 1, 64) + timeSuffix
}

// Round rounds seconds to the one-decimal precision of the address format.
func Round(seconds float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(seconds, 'f', 1, 64), 64)
	return v
}

// Parse recovers an Address from an address string or file name. A trailing
// file extension is ignored. Fields are taken from the right so that session
// ids may contain underscores. A label shaped like the diarizer's SPEAKER_NN
// spans two tokens; any other label is the single token before the index. Use
// ParseInSession when the session id is known.
func Parse(name string) (Address, error) {
	base := TrimExt(name)
	head, index, start, end, err := splitTail(base)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalid, name, err)
	}

	labelTokens := 1
	if len(head) >= 2 && isNumeric(head[len(head)-1]) && strings.EqualFold(head[len(head)-2], "SPEAKER") {
		labelTokens = 2
	}
	if len(head) <= labelTokens {
		return Address{}, fmt.Errorf("%w: %q: missing session", ErrInvalid, name)
	}

	return Address{
		Session: strings.Join(head[:len(head)-labelTokens], "_"),
		Label:   strings.Join(head[len(head)-labelTokens:], "_"),
		Index:   index,
		Start:   start,
		End:     end,
	}, nil
}

// ParseInSession parses name knowing which session it belongs to, so labels
// of any shape are recovered exactly.
func ParseInSession(name, session string) (Address, error) {
	base := TrimExt(name)
	prefix := session + "_"
	if session == "" || !strings.HasPrefix(base, prefix) {
		return Address{}, fmt.Errorf("%w: %q does not belong to session %q", ErrInvalid, name, session)
	}
	head, index, start, end, err := splitTail(strings.TrimPrefix(base, prefix))
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalid, name, err)
	}
	label := strings.Join(head, "_")
	if label == "" {
		return Address{}, fmt.Errorf("%w: %q: missing label", ErrInvalid, name)
	}
	return Address{Session: session, Label: label, Index: index, Start: start, End: end}, nil
}

// splitTail peels the time range and index off base and returns the remaining
// underscore separated tokens.
func splitTail(base string) ([]string, int, float64, float64, error) {
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return nil, 0, 0, 0, errors.New("too few fields")
	}
	start, end, err := parseRange(parts[len(parts)-1])
	if err != nil {
		return nil, 0, 0, 0, err
	}
	idxToken := parts[len(parts)-2]
	if !isNumeric(idxToken) {
		return nil, 0, 0, 0, fmt.Errorf("bad index %q", idxToken)
	}
	index, err := strconv.Atoi(idxToken)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("bad index %q", idxToken)
	}
	return parts[:len(parts)-2], index, start, end, nil
}

// TrimExt returns the base name without its codec extension. The end time
// contains a dot itself, so nothing is removed from a name already ending in
// a time range.
func TrimExt(name string) string {
	base := filepath.Base(name)
	if i := strings.LastIndex(base, "_"); i >= 0 {
		if _, _, err := parseRange(base[i+1:]); err == nil {
			return base
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LabelGlob returns a glob pattern matching every segment file of one speaker
// label within a session.
func LabelGlob(session, label, ext string) string {
	pattern := escapeGlob(session) + "_" + escapeGlob(label) + "_*"
	if ext != "" {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		pattern += ext
	}
	return pattern
}

// StartToken returns the "_<start>s-" fragment an address with the given start
// time contains.
func StartToken(start float64) string {
	return "_" + FormatTime(start) + "-"
}

func parseRange(token string) (float64, float64, error) {
	startTok, endTok, ok := strings.Cut(token, "-")
	if !ok {
		return 0, 0, errors.New("missing time range")
	}
	start, err := parseTime(startTok)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTime(endTok)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("end %.1f before start %.1f", end, start)
	}
	return start, end, nil
}

func parseTime(token string) (float64, error) {
	if !strings.HasSuffix(token, timeSuffix) {
		return 0, fmt.Errorf("time %q lacks %q suffix", token, timeSuffix)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(token, timeSuffix), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("time %q out of range", token)
	}
	return v, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`)
	return r.Replace(s)
}
