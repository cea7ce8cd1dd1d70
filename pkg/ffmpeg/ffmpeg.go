package ffmpeg

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

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}
	return nil
}

// ExtractAudio decodes any input ffmpeg understands (including video
// containers) into a mono 16-bit PCM wav. sampleRate 0 keeps the source rate.
func (f *FFmpeg) ExtractAudio(ctx context.Context, input, output string, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return NewProcessingError("audio_extraction", input, err, "")
	}
	return f.run(ctx, "audio_extraction", input, extractArgs(input, output, sampleRate))
}

// SliceSamples writes the samples [startSample, endSample) of input to output.
// Sample indices are relative to the input's own sample rate.
func (f *FFmpeg) SliceSamples(ctx context.Context, input, output string, startSample, endSample int64) error {
	if startSample < 0 || endSample <= startSample {
		return NewProcessingError("slice", input, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, startSample, endSample), "")
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return NewProcessingError("slice", input, err, "")
	}
	return f.run(ctx, "slice", input, sliceArgs(input, output, startSample, endSample))
}

// Concat joins inputs in order into one mono wav, inserting pause seconds of
// silence between consecutive clips.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, pause float64, output string, sampleRate int) error {
	if len(inputs) == 0 {
		return NewProcessingError("concat", output, ErrNoInputs, "")
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return NewProcessingError("concat", output, err, "")
	}
	return f.run(ctx, "concat", output, concatArgs(inputs, pause, output, sampleRate))
}

func (f *FFmpeg) run(ctx context.Context, operation, file string, args []string) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = ErrProcessingTimeout
		}
		return NewProcessingError(operation, file, err, tail(stderr.String(), 2048))
	}
	return nil
}

func extractArgs(input, output string, sampleRate int) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", input, "-vn", "-ac", "1"}
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	return append(args, "-c:a", "pcm_s16le", "-y", output)
}

func sliceArgs(input, output string, startSample, endSample int64) []string {
	filter := fmt.Sprintf("atrim=start_sample=%d:end_sample=%d,asetpts=PTS-STARTPTS", startSample, endSample)
	return []string{"-hide_banner", "-loglevel", "error", "-i", input, "-af", filter, "-c:a", Encoder(output), "-y", output}
}

// Encoder picks the audio encoder for output's extension. Only lossless
// formats are produced: 16-bit PCM wav by default, flac for .flac.
func Encoder(output string) string {
	if strings.EqualFold(filepath.Ext(output), ".flac") {
		return "flac"
	}
	return "pcm_s16le"
}

func concatArgs(inputs []string, pause float64, output string, sampleRate int) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	var graph strings.Builder
	var labels strings.Builder
	parts := 0
	for i := range inputs {
		fmt.Fprintf(&graph, "[%d:a]aresample=%d,aformat=sample_fmts=s16:channel_layouts=mono[c%d];", i, sampleRate, i)
		fmt.Fprintf(&labels, "[c%d]", i)
		parts++
		if pause > 0 && i < len(inputs)-1 {
			fmt.Fprintf(&graph, "anullsrc=r=%d:cl=mono,atrim=duration=%s,aformat=sample_fmts=s16[p%d];",
				sampleRate, strconv.FormatFloat(pause, 'f', -1, 64), i)
			fmt.Fprintf(&labels, "[p%d]", i)
			parts++
		}
	}
	fmt.Fprintf(&graph, "%sconcat=n=%d:v=0:a=1[out]", labels.String(), parts)

	return append(args, "-filter_complex", graph.String(), "-map", "[out]", "-c:a", Encoder(output), "-y", output)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
