package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the Face Attendance HTTP server.

Endpoints:
  POST /register         multipart: email, images (one or more files)
  POST /authenticate     multipart: image, email, class
  GET  /history          every attendance record
  GET  /users/{email}    gallery status of one user
  GET  /health`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides server.host)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = mustGetString(cmd, "host")
	}

	ctx := context.Background()
	svc, l, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	server, err := web.NewServer(cfg, svc, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Printf("Starting Face Attendance on http://%s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	return serveUntilSignal(ctx, server, sigChan, constants.ShutdownTimeout, logger)
}

// httpServer is the part of web.Server that serveUntilSignal drives.
type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serveUntilSignal runs server until sig fires, then shuts it down and
// returns only after in-flight requests have drained, so deferred cleanup
// in the caller runs after the last handler.
func serveUntilSignal(ctx context.Context, server httpServer, sig <-chan os.Signal, timeout time.Duration, logger *logrus.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-sig
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, timeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("error during shutdown")
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	// Start returns nil only once Shutdown has begun.
	<-drained
	return nil
}
