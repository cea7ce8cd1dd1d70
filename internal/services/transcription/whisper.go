package transcription

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// WhisperOptions points at a whisper.cpp build and model.
type WhisperOptions struct {
	Path      string
	ModelPath string
	Language  string
	Threads   int
	Timeout   time.Duration
}

// WhisperCLI shells out to whisper.cpp (whisper-cli) once per clip.
type WhisperCLI struct {
	opts WhisperOptions
}

func NewWhisperCLI(opts WhisperOptions) *WhisperCLI {
	if opts.Path == "" {
		opts.Path = "whisper-cli"
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Threads <= 0 {
		opts.Threads = 4
	}
	return &WhisperCLI{opts: opts}
}

func (w *WhisperCLI) Name() string { return "whisper" }

func (w *WhisperCLI) Model() string {
	return strings.TrimSuffix(filepath.Base(w.opts.ModelPath), filepath.Ext(w.opts.ModelPath))
}

func (w *WhisperCLI) Available(_ context.Context) error {
	if _, err := exec.LookPath(w.opts.Path); err != nil {
		return fmt.Errorf("whisper binary %q not found: %w", w.opts.Path, err)
	}
	if _, err := os.Stat(w.opts.ModelPath); err != nil {
		return fmt.Errorf("whisper model %q: %w", w.opts.ModelPath, err)
	}
	return nil
}

func (w *WhisperCLI) Transcribe(ctx context.Context, clipPath string) (Result, error) {
	if w.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, w.opts.Path, w.args(clipPath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("whisper failed on %s: %w: %s", filepath.Base(clipPath), err, strings.TrimSpace(stderr.String()))
	}

	return Result{Text: cleanWhisperOutput(stdout.String()), Language: w.opts.Language}, nil
}

func (w *WhisperCLI) args(clipPath string) []string {
	return []string{
		"-m", w.opts.ModelPath,
		"-f", clipPath,
		"-l", w.opts.Language,
		"-t", strconv.Itoa(w.opts.Threads),
		"-nt", // no timestamps
		"-np", // no progress or system info
	}
}

// cleanWhisperOutput joins the printed lines and drops whisper's
// non-speech markers such as [BLANK_AUDIO].
func cleanWhisperOutput(out string) string {
	var parts []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isNonSpeechMarker(line) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func isNonSpeechMarker(line string) bool {
	if len(line) < 2 {
		return false
	}
	first, last := line[0], line[len(line)-1]
	return (first == '[' && last == ']') || (first == '(' && last == ')')
}
