package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/pkg/config"
	"github.com/killallgit/diarist/pkg/logger"
)

var (
	appConfig *config.Config
	appLog    = logger.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "diarist",
	Short: "Speaker diarization and transcription pipeline",
	Long: `diarist - speaker diarization, transcription and speaker registry

Recordings dropped into the input directory are split into per-speaker
segments, transcribed, and stored as sessions awaiting speaker assignment.
An operator then names the speakers of each session, and the named
segments of every session are gathered into a cross-session speaker
registry.

Workflow:
  • diarist process     diarize and transcribe new recordings
  • diarist assign      name the speakers of pending sessions
  • diarist organize    aggregate named segments per speaker
  • diarist reference   build a voice reference clip for one speaker`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Add persistent flags for logging configuration
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); defaults to logging.level")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
}

// loadConfig initializes configuration and the logger. Commands that need
// either call it first thing in RunE.
func loadConfig(cmd *cobra.Command) error {
	if appConfig != nil {
		return nil
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	jsonLogs := cfg.Logging.Format == "json"
	if cmd.Flags().Changed("json-logs") {
		jsonLogs, _ = cmd.Flags().GetBool("json-logs")
	}
	log, err := logger.New(level, jsonLogs)
	if err != nil {
		return err
	}

	appConfig = cfg
	appLog = log
	return nil
}
