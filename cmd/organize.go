package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/internal/services/speakers"
)

// organizeCmd represents the organize command
var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Aggregate named segments into the speaker registry",
	Long: `Copy the segments of every completed session into one registry folder
per durable speaker name and write a profile for each speaker plus an
overall summary. Files already in the registry are never overwritten, so
running it again only adds what is new.

With --raw every stored session is used under its ephemeral labels,
which is useful before any speaker has been named.

The registry lives in paths.speakers_dir, or in S3 when storage.backend
is s3.

Example:
  diarist organize
  diarist organize --raw`,
	RunE: runOrganize,
}

func init() {
	rootCmd.AddCommand(organizeCmd)

	organizeCmd.Flags().Bool("raw", false, "aggregate all sessions under their ephemeral labels")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw, _ := cmd.Flags().GetBool("raw")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	reg, err := registry()
	if err != nil {
		return fmt.Errorf("opening speaker registry: %w", err)
	}

	agg := speakers.NewAggregator(e.store, e.layout, reg, e.runs(), appConfig.Segments.Codec, appLog)
	report, err := agg.Run(ctx, speakers.Options{UseRaw: raw})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SPEAKER\tSEGMENTS\tMINUTES\tSESSIONS\tMISSING")
	for _, p := range report.Profiles {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%d\t%d\n", p.SpeakerName, p.TotalSegments, p.TotalDurationMinutes, p.SessionsInvolved, p.MissingSegments)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d speakers, %d matched, %d copied, %d missing (%s)\n",
		len(report.Profiles), report.Matched, report.NewCopies, report.Missing, report.Summary.Mode)
	return nil
}
