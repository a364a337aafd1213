package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/crev/internal/api"
	"github.com/sprite-ai/crev/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the review engine.

Endpoints:
  GET  /health       Health check
  POST /api/review   Stream a review as server-sent events
  POST /api/analyze  Run the analyzers without narratives
  GET  /api/ws       Stream a review over a WebSocket
  GET  /metrics      Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	serveCmd.Flags().Bool("trace", false, "export review spans to stderr")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	if on, _ := cmd.Flags().GetBool("trace"); on {
		tp, err := tracing.Install(os.Stderr, "crev", version)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Warn("flushing spans", zap.Error(err))
			}
		}()
	}

	reviews, err := newOrchestrator()
	if err != nil {
		return err
	}

	info := api.Info{
		Provider: reviews.Narrator().Name(),
		ModelID:  cfg.Model.ID,
		Region:   cfg.Model.Region,
	}
	if m, ok := reviews.Narrator().(interface{ Model() string }); ok {
		info.ModelID = m.Model()
	}
	srv := api.New(addr, reviews, info, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
