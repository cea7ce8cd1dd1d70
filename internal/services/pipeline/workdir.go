package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/killallgit/diarist/pkg/logger"
)

const (
	workDirPrefix = "diarist-"
	// StaleWorkDirAge is how old an abandoned work directory must be before
	// a new run removes it.
	StaleWorkDirAge = 24 * time.Hour
)

// SweepWorkDirs removes work directories under tmpDir left behind by runs
// that were killed mid-session. Only directories carrying the work prefix
// and older than maxAge are touched.
func SweepWorkDirs(tmpDir string, maxAge time.Duration, log *logger.Logger) int {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), workDirPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || time.Since(info.ModTime()) <= maxAge {
			continue
		}
		path := filepath.Join(tmpDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Warn("failed to remove stale work directory", "path", path, "error", err)
			continue
		}
		log.Debug("removed stale work directory", "path", path)
		removed++
	}
	return removed
}
