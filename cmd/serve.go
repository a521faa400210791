package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/photo-framer/internal/config"
	"github.com/kozaktomas/photo-framer/internal/detector"
	"github.com/kozaktomas/photo-framer/internal/logging"
	"github.com/kozaktomas/photo-framer/internal/metrics"
	"github.com/kozaktomas/photo-framer/internal/web"
	"github.com/kozaktomas/photo-framer/internal/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Photo Framer web server.
The web server provides the browser editor for uploading, framing and
saving a profile photo, plus the JSON API and Prometheus metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().Bool("preload", true, "Load the face detection model at startup")
}

// newDetector builds the configured face detection backend.
func newDetector(cfg *config.Config) (detector.Detector, error) {
	return detector.New(detector.Options{
		Backend:    cfg.Detector.Backend,
		ModelPath:  cfg.Detector.ModelPath,
		MinQuality: cfg.Detector.MinQuality,
		RemoteURL:  cfg.Detector.RemoteURL,
	})
}

// resolveServeHostPort applies the --host and --port flags on top of the config.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.L()
	cfg := config.Load()
	resolveServeHostPort(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	det, err := newDetector(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	manager := workflow.NewManager(workflow.Options{
		Detector:      det,
		Policy:        cfg.Policy.Policy(),
		Frame:         cfg.Frame.Frame(),
		EditorSize:    cfg.Frame.EditorSize,
		DebounceDelay: cfg.Workflow.DebounceDelay,
		SessionTTL:    cfg.Workflow.SessionTTL,
		Metrics:       m,
		Logger:        log,
	})

	if mustGetBool(cmd, "preload") {
		// A failed preload is not fatal; the first evaluation retries the load.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := det.Load(ctx); err != nil {
				log.WithError(err).WithField("backend", det.Name()).Warn("Face model preload failed")
				return
			}
			log.WithField("backend", det.Name()).Info("Face model loaded")
		}()
	}

	server := web.NewServer(cfg, web.Deps{
		Manager:  manager,
		Metrics:  m,
		Gatherer: reg,
		Logger:   log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error during shutdown")
		}
	}()

	fmt.Printf("Starting Photo Framer on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
