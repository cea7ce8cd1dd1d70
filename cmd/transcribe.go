package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/internal/services/pipeline"
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe [session...]",
	Short: "Re-run transcription for existing sessions",
	Long: `Transcribe the stored segments of existing sessions again and replace
their raw transcripts. Without arguments every session awaiting speaker
assignment is redone. Completed sessions are never touched.

Example:
  diarist transcribe
  diarist transcribe standup-2024-05-02`,
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
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

	batch, err := newBatch(ctx, e, batchOptions())
	if err != nil {
		return err
	}
	retranscribe := func(ctx context.Context) (*pipeline.Report, error) {
		return batch.Retranscribe(ctx, args)
	}
	return finishRun(ctx, cmd.OutOrStdout(), retranscribe)
}
