package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/killallgit/diarist/api"
	"github.com/killallgit/diarist/api/types"
	"github.com/killallgit/diarist/pkg/storage"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only status API",
	Long: `Start an HTTP server exposing sessions, their transcripts and the
speaker registry summary. Interactive speaker assignment is not available
over HTTP.

Example:
  diarist serve
  diarist serve --port 9090
  diarist serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	// Use config values if flags not provided
	if serverHost == "" {
		serverHost = appConfig.Server.Host
	}
	if serverPort == 0 {
		serverPort = appConfig.Server.Port
	}
	if appConfig.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var reg storage.FileStore
	if r, err := registry(); err != nil {
		appLog.Warn("speaker registry unavailable, /api/v1/speakers disabled", "error", err)
	} else {
		reg = r
	}

	srv := api.NewServer(api.Options{
		Address:           fmt.Sprintf("%s:%d", serverHost, serverPort),
		ReadTimeout:       appConfig.Server.ReadTimeout,
		WriteTimeout:      appConfig.Server.WriteTimeout,
		RequestsPerSecond: appConfig.Server.RequestsPerSecond,
		Version:           Version,
	}, appLog)
	srv.SetDependencies(&types.Dependencies{
		DB:       e.db,
		Sessions: e.store,
		Registry: reg,
		Runs:     e.runs(),
		Log:      appLog,
	})
	if err := srv.Initialize(); err != nil {
		return err
	}

	// Channel to listen for interrupt signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	var runErr error
	select {
	case <-stop:
		appLog.Info("shutting down server")
	case runErr = <-serverErr:
		appLog.Error("server stopped", "error", runErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("server forced to shutdown", "error", err)
		return err
	}

	appLog.Info("server gracefully stopped")
	return runErr
}
