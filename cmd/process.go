package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/internal/services/pipeline"
	perrors "github.com/killallgit/diarist/pkg/errors"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Diarize and transcribe new recordings",
	Long: `Process every recording in the input directory.

Each recording becomes a session: its audio is diarized, split into one
segment per speaker turn, and every segment is transcribed. The session is
stored awaiting speaker assignment and the recording is moved to the
processed directory. Recordings whose session is already stored are
skipped unless --reprocess is given.

Example:
  diarist process
  diarist process --input ./inbox --keep-inputs
  diarist process --reprocess`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("input", "", "input directory (overrides paths.input_dir)")
	processCmd.Flags().Bool("reprocess", false, "re-run recordings whose session is already awaiting assignment")
	processCmd.Flags().Bool("keep-inputs", false, "leave processed recordings in the input directory")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.media.ValidateBinaries(); err != nil {
		return perrors.CollaboratorUnavailable("validate ffmpeg", err)
	}

	opts := batchOptions()
	opts.InputDir = appConfig.Paths.InputDir
	if dir, _ := cmd.Flags().GetString("input"); dir != "" {
		opts.InputDir = dir
	}
	opts.Reprocess, _ = cmd.Flags().GetBool("reprocess")
	opts.KeepInputs, _ = cmd.Flags().GetBool("keep-inputs")

	batch, err := newBatch(ctx, e, opts)
	if err != nil {
		return err
	}
	return finishRun(ctx, cmd.OutOrStdout(), batch.Run)
}

func batchOptions() pipeline.Options {
	return pipeline.Options{
		ProcessedDir: appConfig.Paths.ProcessedDir,
		SampleRate:   appConfig.Segments.SampleRate,
		MinDuration:  appConfig.Segments.MinDuration,
		Codec:        appConfig.Segments.Codec,
	}
}

func newBatch(ctx context.Context, e *env, opts pipeline.Options) (*pipeline.Batch, error) {
	diarizer, err := e.diarizer(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewBatch(opts, e.media, diarizer, e.transcribers(ctx), e.store, e.layout, appLog), nil
}

// finishRun runs a batch and prints its report. An interrupted run still
// reports the sessions it finished before returning the interruption.
func finishRun(ctx context.Context, out io.Writer, run func(context.Context) (*pipeline.Report, error)) error {
	report, err := run(ctx)
	if report == nil {
		return err
	}
	if perr := printReport(out, report); err == nil {
		err = perr
	} else {
		fmt.Fprintf(out, "run interrupted: %v\n", err)
	}
	return err
}

func printReport(out io.Writer, report *pipeline.Report) error {
	for _, f := range report.Failed {
		fmt.Fprintf(out, "FAILED  %s (%s): %v\n", f.Session, f.Kind, f.Err)
	}
	fmt.Fprintln(out, report.String())
	if report.SummaryPath != "" {
		fmt.Fprintf(out, "summary written to %s\n", report.SummaryPath)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d session(s) failed", len(report.Failed))
	}
	return nil
}
