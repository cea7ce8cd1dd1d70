package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/internal/models"
	"github.com/killallgit/diarist/internal/services/sessions"
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	Long: `List stored sessions with their status, speaker labels and mappings.

Example:
  diarist sessions
  diarist sessions --status awaiting_speaker_assignment
  diarist sessions import`,
	RunE: runSessionsList,
}

// sessionsImportCmd adopts raw transcripts written by earlier runs
var sessionsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Adopt raw transcript documents from the output directory",
	Long: `Scan the output directory for <session>/metadata/<session>_raw_transcripts.json
documents and store every session that is not stored yet. Completed
documents keep their speaker mapping.`,
	RunE: runSessionsImport,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsImportCmd)

	sessionsCmd.Flags().String("status", "", "only list sessions in this status")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var list []models.Session
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		list, err = e.store.ListByStatus(ctx, models.SessionStatus(status))
	} else {
		list, err = e.store.List(ctx)
	}
	if err != nil {
		return err
	}
	return writeSessions(cmd, list)
}

func writeSessions(cmd *cobra.Command, list []models.Session) error {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No sessions stored")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTATUS\tSEGMENTS\tSPEAKERS\tVERSION")
	for i := range list {
		s := &list[i]
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", s.Name, s.Status, s.TotalSegments, speakerColumn(s), s.Version)
	}
	return w.Flush()
}

// speakerColumn shows labels, with their names once the session is completed.
func speakerColumn(s *models.Session) string {
	mapping := s.Mapping()
	labels := s.Speakers()
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if name, ok := mapping[label]; ok && name != label {
			parts = append(parts, label+"="+name)
			continue
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ",")
}

func runSessionsImport(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	names, err := e.layout.DiscoverRaw()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	imported, failed := 0, 0
	for _, name := range names {
		if err := sessions.ValidateName(name); err != nil {
			appLog.Warn("skipping session directory", "dir", name, "error", err)
			continue
		}
		exists, err := e.store.Exists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			appLog.Debug("session already stored", "session", name)
			continue
		}
		s, err := e.store.ImportRaw(ctx, e.layout.RawTranscripts(name))
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAILED  %s: %v\n", name, err)
			continue
		}
		imported++
		fmt.Fprintf(out, "imported %s (%s, %d segments)\n", s.Name, s.Status, s.TotalSegments)
	}
	fmt.Fprintf(out, "%d imported, %d failed, %d found\n", imported, failed, len(names))
	return nil
}
