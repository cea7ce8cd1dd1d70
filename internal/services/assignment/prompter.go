package assignment

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/killallgit/diarist/internal/models"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// Sample is one representative entry offered for a label.
type Sample struct {
	Entry     models.TranscriptEntry
	AudioPath string
}

// Request asks for the durable name of one label.
type Request struct {
	Session string
	Label   string
	Samples []Sample
}

// Prompter obtains durable names. The answer is a name or SkipDirective;
// returning perrors.ErrAborted stops the session without completing it.
type Prompter interface {
	AskName(ctx context.Context, req Request) (string, error)
	// Notify reports a rejected answer back to the operator
	Notify(ctx context.Context, msg string)
}

// StaticPrompter answers from a fixed mapping, for scripted use. Labels it
// does not know are skipped.
type StaticPrompter struct {
	Names    map[string]string
	Messages []string
}

func (p *StaticPrompter) AskName(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", perrors.ErrAborted
	}
	if name, ok := p.Names[req.Label]; ok {
		return name, nil
	}
	return SkipDirective, nil
}

func (p *StaticPrompter) Notify(_ context.Context, msg string) {
	p.Messages = append(p.Messages, msg)
}

// Player plays an audio file to completion.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer plays audio through an external program such as ffplay.
type CommandPlayer struct {
	Path string
	Args []string
}

func NewCommandPlayer(path string) *CommandPlayer {
	p := &CommandPlayer{Path: path}
	if strings.Contains(path, "ffplay") {
		p.Args = []string{"-nodisp", "-autoexit", "-loglevel", "error"}
	}
	return p
}

func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	if p.Path == "" {
		return fmt.Errorf("no audio player configured")
	}
	args := append(append([]string{}, p.Args...), path)
	out, err := exec.CommandContext(ctx, p.Path, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("play %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF00FF"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

const sampleTextWidth = 100

// TerminalPrompter runs the interactive assignment dialogue on a line based
// terminal. A number plays the matching sample, anything else is the answer.
type TerminalPrompter struct {
	out    io.Writer
	player Player

	once  sync.Once
	in    *bufio.Scanner
	lines chan string
}

func NewTerminalPrompter(in io.Reader, out io.Writer, player Player) *TerminalPrompter {
	return &TerminalPrompter{out: out, player: player, in: bufio.NewScanner(in)}
}

func (p *TerminalPrompter) AskName(ctx context.Context, req Request) (string, error) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, labelStyle.Render(req.Label)+dimStyle.Render("  session "+req.Session))

	var playable []Sample
	if len(req.Samples) > 0 {
		fmt.Fprintln(p.out, titleStyle.Render("Text samples:"))
		for i, s := range req.Samples {
			fmt.Fprintf(p.out, "  %d. %s %s\n", i+1,
				dimStyle.Render(fmt.Sprintf("[%.1fs, %.1fs]", s.Entry.Start, s.Entry.Duration)),
				truncate(s.Entry.Text, sampleTextWidth))
			if s.AudioPath != "" {
				playable = append(playable, s)
			}
		}
	}

	prompt := fmt.Sprintf("Name for %s (or '%s'): ", req.Label, SkipDirective)
	if len(playable) > 0 && p.player != nil {
		prompt = fmt.Sprintf("Play sample (1-%d) or enter a name for %s (or '%s'): ", len(playable), req.Label, SkipDirective)
	}

	for {
		fmt.Fprint(p.out, promptStyle.Render(prompt))
		line, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		n, convErr := strconv.Atoi(line)
		if convErr != nil || p.player == nil || len(playable) == 0 {
			return line, nil
		}
		if n < 1 || n > len(playable) {
			fmt.Fprintln(p.out, warnStyle.Render(fmt.Sprintf("Please enter a number between 1 and %d", len(playable))))
			continue
		}
		fmt.Fprintln(p.out, dimStyle.Render("Playing sample "+strconv.Itoa(n)+"..."))
		if err := p.player.Play(ctx, playable[n-1].AudioPath); err != nil {
			if ctx.Err() != nil {
				return "", perrors.ErrAborted
			}
			fmt.Fprintln(p.out, warnStyle.Render(err.Error()))
		}
	}
}

func (p *TerminalPrompter) Notify(_ context.Context, msg string) {
	fmt.Fprintln(p.out, warnStyle.Render(msg))
}

// Confirm prints the resolved mapping of one label.
func (p *TerminalPrompter) Confirm(label, name string) {
	fmt.Fprintln(p.out, okStyle.Render(label+" -> "+name))
}

// SelectSessions lets the operator pick sessions by index or "all".
func (p *TerminalPrompter) SelectSessions(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	fmt.Fprintln(p.out, titleStyle.Render("Sessions awaiting speaker assignment:"))
	for i, n := range names {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, n)
	}
	for {
		fmt.Fprint(p.out, promptStyle.Render(fmt.Sprintf("Select session (1-%d, 'all' for all): ", len(names))))
		line, err := p.readLine(ctx)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(line, "all") {
			return names, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(names) {
			fmt.Fprintln(p.out, warnStyle.Render(fmt.Sprintf("Please enter a number between 1 and %d or 'all'", len(names))))
			continue
		}
		return []string{names[n-1]}, nil
	}
}

// readLine returns the next trimmed input line. EOF and cancellation both
// abort the dialogue.
func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	p.once.Do(func() {
		p.lines = make(chan string)
		go func() {
			defer close(p.lines)
			for p.in.Scan() {
				p.lines <- p.in.Text()
			}
		}()
	})
	select {
	case <-ctx.Done():
		return "", perrors.ErrAborted
	case line, ok := <-p.lines:
		if !ok {
			return "", perrors.ErrAborted
		}
		return strings.TrimSpace(line), nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
