package diarization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/killallgit/diarist/pkg/logger"
)

// CommandOptions configures an external diarization command.
type CommandOptions struct {
	Command     string
	Args        []string
	HFToken     string
	MinSpeakers int
	MaxSpeakers int
	Timeout     time.Duration
}

// CommandDiarizer runs a diarization sidecar (for example a pyannote script)
// that prints its result on stdout, either as JSON
//
//	{"speakers": ["SPEAKER_00"], "segments": [{"start": 0.5, "end": 2.1, "speaker": "SPEAKER_00"}]}
//
// or as RTTM.
type CommandDiarizer struct {
	opts CommandOptions
	log  *logger.Logger
}

func NewCommandDiarizer(opts CommandOptions, log *logger.Logger) *CommandDiarizer {
	return &CommandDiarizer{opts: opts, log: log.With("diarizer", "command")}
}

func (d *CommandDiarizer) Name() string {
	return "command:" + d.opts.Command
}

// Probe verifies the command can be found on PATH.
func (d *CommandDiarizer) Probe(_ context.Context) error {
	if d.opts.Command == "" {
		return errors.New("no diarization command configured")
	}
	if _, err := exec.LookPath(d.opts.Command); err != nil {
		return fmt.Errorf("diarization command %q not found: %w", d.opts.Command, err)
	}
	return nil
}

func (d *CommandDiarizer) Diarize(ctx context.Context, audioPath string) (*Result, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.opts.Command, d.args(audioPath)...)
	cmd.Env = os.Environ()
	if d.opts.HFToken != "" {
		cmd.Env = append(cmd.Env, "HF_TOKEN="+d.opts.HFToken)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	d.log.Debug("running diarization", "audio", audioPath, "command", d.opts.Command)
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("diarization timed out after %s", d.opts.Timeout)
		}
		return nil, fmt.Errorf("diarization command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	res, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	d.log.Info("diarization finished",
		"audio", audioPath,
		"speakers", len(res.Speakers),
		"intervals", len(res.Intervals),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (d *CommandDiarizer) args(audioPath string) []string {
	args := append([]string{}, d.opts.Args...)
	args = append(args, audioPath)
	if d.opts.MinSpeakers > 0 {
		args = append(args, "--min-speakers", strconv.Itoa(d.opts.MinSpeakers))
	}
	if d.opts.MaxSpeakers > 0 {
		args = append(args, "--max-speakers", strconv.Itoa(d.opts.MaxSpeakers))
	}
	return args
}

// ParseOutput decodes sidecar output, detecting JSON by its leading brace and
// treating anything else as RTTM.
func ParseOutput(out []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return &Result{}, nil
	}
	if trimmed[0] != '{' {
		res, err := ParseRTTM(bytes.NewReader(trimmed))
		if err != nil {
			return nil, err
		}
		if err := res.Validate(); err != nil {
			return nil, err
		}
		return res, nil
	}

	var res Result
	if err := json.Unmarshal(trimmed, &res); err != nil {
		return nil, fmt.Errorf("parse diarization output: %w", err)
	}
	seen := make(map[string]bool, len(res.Speakers))
	for _, s := range res.Speakers {
		seen[s] = true
	}
	for _, iv := range res.Intervals {
		if iv.End < iv.Start {
			return nil, fmt.Errorf("parse diarization output: interval %.3f-%.3f ends before it starts", iv.Start, iv.End)
		}
		if !seen[iv.Label] {
			seen[iv.Label] = true
			res.Speakers = append(res.Speakers, iv.Label)
		}
	}
	sort.Strings(res.Speakers)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}
