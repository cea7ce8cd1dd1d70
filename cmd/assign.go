package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/internal/services/assignment"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// assignCmd represents the assign command
var assignCmd = &cobra.Command{
	Use:   "assign [session...]",
	Short: "Name the speakers of pending sessions",
	Long: `Assign durable speaker names to the labels of sessions awaiting
speaker assignment, then write the final transcript and complete the
session.

Without --map the assignment is interactive: each label is shown with a few
representative lines, a number plays the matching clip, and anything else
is taken as the name ('skip' keeps the label). Without session arguments
the pending sessions are listed to choose from.

With --map the names are taken from the flag, labels not listed keep
their label, and session arguments are required.

Example:
  diarist assign
  diarist assign standup --map SPEAKER_00=Alex --map SPEAKER_01=Sam
  diarist assign standup --force`,
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().Bool("force", false, "regenerate the final transcript of a completed session")
	assignCmd.Flags().StringToString("map", nil, "label=name pairs for non-interactive assignment")
}

func runAssign(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	force, _ := cmd.Flags().GetBool("force")
	names, _ := cmd.Flags().GetStringToString("map")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var (
		prompter assignment.Prompter
		terminal *assignment.TerminalPrompter
	)
	if len(names) > 0 {
		if len(args) == 0 {
			return errors.New("--map needs at least one session argument")
		}
		prompter = &assignment.StaticPrompter{Names: names}
	} else {
		terminal = assignment.NewTerminalPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), assignment.NewCommandPlayer(appConfig.Assignment.Player))
		prompter = terminal
	}

	resolver := assignment.NewResolver(prompter, appConfig.Assignment.SamplesPerSpeaker, appLog)
	svc := assignment.NewService(e.store, e.layout, resolver, appConfig.Segments.Codec, appLog)

	targets := args
	if len(targets) == 0 {
		pending, err := svc.Pending(ctx)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions awaiting speaker assignment")
			return nil
		}
		targets, err = terminal.SelectSessions(ctx, pending)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, name := range targets {
		outcome, err := svc.Assign(ctx, name, assignment.Options{Force: force})
		if errors.Is(err, perrors.ErrAborted) {
			fmt.Fprintf(out, "Aborted; %s is still awaiting speaker assignment\n", name)
			return err
		}
		if err != nil {
			return fmt.Errorf("assigning %s: %w", name, err)
		}
		if static, ok := prompter.(*assignment.StaticPrompter); ok {
			for _, msg := range static.Messages {
				fmt.Fprintln(out, msg)
			}
			static.Messages = nil
		}
		printOutcome(cmd, name, outcome)
	}
	return nil
}

func printOutcome(cmd *cobra.Command, name string, o *assignment.Outcome) {
	out := cmd.OutOrStdout()
	if o.Final == nil {
		fmt.Fprintf(out, "%s: no speaker labels, left awaiting assignment\n", name)
		return
	}
	labels := make([]string, 0, len(o.Resolution.Mapping))
	for label := range o.Resolution.Mapping {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Fprintf(out, "%s: %s\n", name, o.Session.Status)
	for _, label := range labels {
		fmt.Fprintf(out, "  %s -> %s\n", label, o.Resolution.Mapping[label])
	}
	fmt.Fprintf(out, "  transcript: %s\n", o.Paths.TXT)
}
