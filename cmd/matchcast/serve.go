package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/matchcast/internal/config"
	"github.com/dgnsrekt/matchcast/internal/hub"
	"github.com/dgnsrekt/matchcast/internal/metrics"
	"github.com/dgnsrekt/matchcast/internal/notify"
	"github.com/dgnsrekt/matchcast/internal/playback"
	"github.com/dgnsrekt/matchcast/internal/replay"
	"github.com/dgnsrekt/matchcast/internal/server"
	"github.com/dgnsrekt/matchcast/internal/sse"
	"github.com/dgnsrekt/matchcast/internal/ws"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve PATH",
		Short: "Broadcast a replay directory to live viewers",
		Long: `Load a replay directory (static.json plus shards) and broadcast it.

Every viewer connected to /live/monitor receives the static payload, then
the current step, then each new step as the shared clock advances.

Examples:
  # Start after 10s, one step every 0.5s
  matchcast serve replays/final

  # Wait for the first viewer, then start after 3s at one step per second
  matchcast serve --gate --delay 3 --speed 1 replays/final

  # Serve the monitor UI too
  matchcast serve --www ./www --port 8080 replays/final`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.SourcePath = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, logger)
		},
	}

	// Defaults mirror the config defaults; flags only win when set.
	cmd.Flags().Int("start-step", 0, "step to start broadcasting from")
	cmd.Flags().Float64("delay", 10, "seconds to wait before the first step advance")
	cmd.Flags().Float64("speed", 0.5, "seconds between step advances")
	cmd.Flags().Bool("gate", false, "wait for the first viewer before starting the delay")
	cmd.Flags().String("address", "", "address to bind")
	cmd.Flags().Int("port", 8000, "port to bind")
	cmd.Flags().Int("shard-size", replay.DefaultShardSize, "steps per shard file")
	cmd.Flags().String("www", "", "directory with the monitor UI to serve at /")
	cmd.Flags().Bool("notify", false, "send an ntfy notification when the broadcast finishes")
	cmd.Flags().String("notify-topic", "", "ntfy topic")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	dataset, err := replay.Load(cfg.SourcePath, cfg.ShardSize, logger)
	if err != nil {
		return fmt.Errorf("loading replay: %w", err)
	}
	if err := cfg.CheckStartStep(dataset.StepCount()); err != nil {
		return err
	}

	m := metrics.New()
	m.SetStepCount(dataset.StepCount())

	cursor := playback.NewCursor(cfg.StartStep)
	h := hub.New(dataset, cursor, m, logger)
	notifier := notify.New(&cfg.Notify, logger)

	started := time.Now()
	pacer := playback.NewPacer(cursor, dataset.StepCount(), h.FirstAttach(), playback.Options{
		StartDelay: cfg.StartDelay(),
		Interval:   cfg.SpeedInterval(),
		Gated:      cfg.GateOnFirstSubscriber,
		OnFinish: func(steps int) {
			nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := notifier.SendPlaybackFinished(nctx, dataset.Name(), steps, h.Count(), time.Since(started)); err != nil {
				logger.Warn("failed to send finish notification", zap.Error(err))
			}
		},
	}, m, logger)

	encoder, err := ws.NewEncoder()
	if err != nil {
		return err
	}
	defer encoder.Close()

	router, err := server.NewRouter(server.Routes{
		Server:  server.NewServer(dataset, cursor, pacer, h, cfg.GateOnFirstSubscriber, logger),
		Monitor: ws.NewHandler(h, encoder, logger),
		Events:  sse.NewHandler(h, logger),
		Metrics: m.Handler(),
		WWWDir:  cfg.WWWDir,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}

	// No write timeout: live routes stream for the whole match.
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := pacer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("pacer: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server",
			zap.String("addr", httpServer.Addr),
			zap.String("match", dataset.Name()),
			zap.Int("steps", dataset.StepCount()),
			zap.Int("startStep", cfg.StartStep),
			zap.Bool("gated", cfg.GateOnFirstSubscriber),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		// Viewers first, so their handlers return before Shutdown waits on them.
		h.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
