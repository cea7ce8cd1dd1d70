package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/internal/services/reference"
	perrors "github.com/killallgit/diarist/pkg/errors"
	"github.com/killallgit/diarist/pkg/ffmpeg"
)

// referenceCmd represents the reference command
var referenceCmd = &cobra.Command{
	Use:   "reference <speaker>",
	Short: "Build a voice reference clip for one speaker",
	Long: `Concatenate a speaker's registry segments, in timestamp order and with
a short pause between them, until the target duration is reached. The clip
and a JSON manifest are written to <speaker>/reference/ in the local
registry. Run 'diarist organize' first.

Example:
  diarist reference Alex
  diarist reference Alex --target 60 --pause 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runReference,
}

func init() {
	rootCmd.AddCommand(referenceCmd)

	referenceCmd.Flags().Float64("target", 0, "target speech duration in seconds (overrides reference.target_duration)")
	referenceCmd.Flags().Float64("pause", -1, "silence between clips in seconds (overrides reference.pause)")
}

func runReference(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	if appConfig.Storage.Backend != "local" {
		return errors.New("reference clips are built from a local speaker registry")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := reference.Options{
		TargetDuration: appConfig.Reference.TargetDuration,
		Pause:          appConfig.Reference.Pause,
		SampleRate:     appConfig.Segments.SampleRate,
		Codec:          appConfig.Segments.Codec,
	}
	if v, _ := cmd.Flags().GetFloat64("target"); v > 0 {
		opts.TargetDuration = v
	}
	if v, _ := cmd.Flags().GetFloat64("pause"); v >= 0 {
		opts.Pause = v
	}

	media := ffmpeg.New(appConfig.FFmpeg.Path, appConfig.FFmpeg.FFprobePath, appConfig.FFmpeg.Timeout)
	if err := media.ValidateBinaries(); err != nil {
		return perrors.CollaboratorUnavailable("validate ffmpeg", err)
	}

	builder := reference.NewBuilder(media, appConfig.Paths.SpeakersDir, opts, appLog)
	m, err := builder.Build(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d clips, %.1fs of speech -> %s\n", m.Speaker, len(m.Clips), m.SpeechDuration, m.Output)
	return nil
}
