package speakers

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/pkg/address"
)

// Match is where the audio of one transcript entry was found.
type Match struct {
	Path string
	// Fallback is set when the exact file name was absent.
	Fallback bool
	// Ambiguous counts the extra candidates the fallback passed over.
	Ambiguous int
}

// Locate finds the segment audio of entry inside segmentsDir. The exact
// address is tried first. Otherwise files of the same session and label are
// parsed and the one whose start rounds to the entry's start wins, lowest
// sequence index first. The returned bool is false when nothing matched.
func Locate(segmentsDir, session string, entry models.TranscriptEntry, codec string) (Match, bool) {
	if codec != "" && !strings.HasPrefix(codec, ".") {
		codec = "." + codec
	}
	exact := filepath.Join(segmentsDir, entry.Address+codec)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return Match{Path: exact}, true
	}

	paths, err := filepath.Glob(filepath.Join(segmentsDir, address.LabelGlob(session, entry.Label, "")))
	if err != nil || len(paths) == 0 {
		return Match{}, false
	}

	want := address.Round(entry.Start)
	type candidate struct {
		path string
		addr address.Address
	}
	var found []candidate
	for _, p := range paths {
		addr, err := address.ParseInSession(filepath.Base(p), session)
		if err != nil {
			continue
		}
		if addr.Label != entry.Label || address.Round(addr.Start) != want {
			continue
		}
		found = append(found, candidate{path: p, addr: addr})
	}
	if len(found) == 0 {
		return Match{}, false
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].addr.Index != found[j].addr.Index {
			return found[i].addr.Index < found[j].addr.Index
		}
		return found[i].path < found[j].path
	})
	return Match{Path: found[0].path, Fallback: true, Ambiguous: len(found) - 1}, true
}
