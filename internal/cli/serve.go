package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/pulseboard/internal/api"
	"github.com/roach88/pulseboard/internal/config"
	"github.com/roach88/pulseboard/internal/digest"
	"github.com/roach88/pulseboard/internal/events"
	"github.com/roach88/pulseboard/internal/llm"
	"github.com/roach88/pulseboard/internal/schedule"
	"github.com/roach88/pulseboard/internal/sink"
	"github.com/roach88/pulseboard/internal/store"
)

// NewServeCommand creates the serve command: the HTTP API, the live-update
// broadcaster, and the digest scheduler in one process.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tracker API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)

			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
			}

			persister, cleanup, err := openPersister(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			st := store.Open(persister)
			bc := events.New()

			gin.SetMode(gin.ReleaseMode)
			server := api.NewServer(st, bc)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go bc.Run(ctx)

			if cfg.Digest.WebhookURL != "" {
				scheduler, err := buildScheduler(cfg, st, loc)
				if err != nil {
					return err
				}
				go func() {
					if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						slog.Error("scheduler stopped", "error", err)
					}
				}()
			} else {
				slog.Info("no webhook configured, digest scheduler disabled")
			}

			httpServer := &http.Server{Addr: cfg.Listen, Handler: server.Handler()}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					slog.Error("shutdown", "error", err)
				}
			}()

			slog.Info("server listening", "addr", cfg.Listen, "storage", cfg.Storage.Driver)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// openPersister builds the configured persistence backend. The returned
// cleanup closes the sqlite connection; for json it is a no-op.
func openPersister(cfg *config.Config) (store.Persister, func(), error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		p, err := store.OpenSQLite(filepath.Join(cfg.DataDir, cfg.Storage.Path))
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	default:
		p, err := store.NewJSONPersister(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	}
}

func buildScheduler(cfg *config.Config, st *store.Store, loc *time.Location) (*schedule.Scheduler, error) {
	triggers := make([]schedule.Trigger, 0, len(cfg.Digest.Times))
	for _, t := range cfg.Digest.Times {
		trigger, err := schedule.ParseTrigger(t)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, trigger)
	}

	gen := digest.New(st, loc)
	webhook := sink.NewWebhook(cfg.Digest.WebhookURL)

	var opts []schedule.Option
	if cfg.LLM.APIKey != "" {
		opts = append(opts, schedule.WithRewriter(llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)))
	}
	return schedule.New(triggers, loc, gen.Generate, webhook, opts...), nil
}
