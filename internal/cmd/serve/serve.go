package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mdubravic83/POtranslate/internal/config"
	"github.com/mdubravic83/POtranslate/internal/events"
	"github.com/mdubravic83/POtranslate/internal/server"
)

const statsInterval = time.Minute

func NewCommand() *cobra.Command {
	var configPath string
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the translation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := config.Load(configPath, v)
			if err != nil {
				return err
			}

			logger, err := config.NewLogger(c.Global.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("potranslate.serve")

			rt, err := config.Initialize(ctx, c, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(context.Background()); err != nil {
					l.Error("closing runtime", zap.Error(err))
				}
			}()

			l.Info("initialized",
				zap.String("store", c.Store.Type),
				zap.String("provider", c.Translator.Provider),
				zap.Int("workers", c.Translator.Workers),
				zap.Duration("pacing", c.Translator.Pacing),
			)

			srv := server.New(rt.Service,
				server.WithLogger(logger.Named("server")),
				server.WithCORSOrigins(server.ParseOrigins(c.Server.CORSOrigins)),
				server.WithMaxUploadBytes(c.Server.MaxUploadBytes),
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Start(gctx, c.Server.Listen)
			})
			g.Go(func() error {
				reportStats(gctx, rt.Publisher, l, statsInterval)
				return nil
			})
			return g.Wait()
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to config file")
	flags.String("listen", "", "Address to listen on, e.g. :8080")
	flags.String("store", "", "Store type: mongodb, postgres or memory")
	flags.String("provider", "", "Translation provider: google or echo")
	flags.Int("workers", 0, "Maximum concurrent provider calls")
	flags.Duration("pacing", 0, "Pause after each successful provider call")
	flags.String("events-url", "", "Event sink, e.g. kafka://localhost:9092/potranslate.jobs")

	v.BindPFlag("server.listen", flags.Lookup("listen"))
	v.BindPFlag("store.type", flags.Lookup("store"))
	v.BindPFlag("translator.provider", flags.Lookup("provider"))
	v.BindPFlag("translator.workers", flags.Lookup("workers"))
	v.BindPFlag("translator.pacing", flags.Lookup("pacing"))
	v.BindPFlag("events.url", flags.Lookup("events-url"))

	return cmd
}

// reportStats logs publisher delivery counters until ctx is done.
func reportStats(ctx context.Context, p events.Publisher, l *zap.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := p.Stats()
			l.Info("publisher stats",
				zap.Int64("total_events", s.TotalEvents),
				zap.Int64("error_count", s.ErrorCount),
				zap.Bool("healthy", s.ConnectionHealthy),
			)
		}
	}
}
