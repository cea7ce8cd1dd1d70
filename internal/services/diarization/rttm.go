package diarization

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ParseRTTM reads SPEAKER lines of an RTTM document:
//
//	SPEAKER <file> <chan> <onset> <duration> <NA> <NA> <label> <NA> <NA>
//
// Other record types and blank lines are ignored.
func ParseRTTM(r io.Reader) (*Result, error) {
	res := &Result{}
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "SPEAKER" {
			continue
		}
		if len(fields) < 8 {
			return nil, fmt.Errorf("rttm line %d: expected at least 8 fields, got %d", line, len(fields))
		}
		onset, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("rttm line %d: onset: %w", line, err)
		}
		dur, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("rttm line %d: duration: %w", line, err)
		}
		label := fields[7]
		res.Intervals = append(res.Intervals, Interval{Start: onset, End: onset + dur, Label: label})
		if !seen[label] {
			seen[label] = true
			res.Speakers = append(res.Speakers, label)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.Strings(res.Speakers)
	return res, nil
}

// WriteRTTM writes one SPEAKER line per interval for the given file id.
func WriteRTTM(w io.Writer, fileID string, intervals []Interval) error {
	bw := bufio.NewWriter(w)
	for _, iv := range intervals {
		if _, err := fmt.Fprintf(bw, "SPEAKER %s 1 %.3f %.3f <NA> <NA> %s <NA> <NA>\n", fileID, iv.Start, iv.Duration(), iv.Label); err != nil {
			return err
		}
	}
	return bw.Flush()
}
