package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/OntoGround/internal/application/normalization"
	"github.com/turtacn/OntoGround/internal/config"
	"github.com/turtacn/OntoGround/internal/infrastructure/monitoring/logging"
	apihttp "github.com/turtacn/OntoGround/internal/interfaces/http"
	"github.com/turtacn/OntoGround/internal/interfaces/http/handlers"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the normalization API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cliCtx.Config.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, err := NewEngine(cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			if _, err := engine.Holder.Reload(ctx); err != nil {
				return err
			}
			return runServer(ctx, cliCtx, engine)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// routerConfig wires the HTTP handlers to engine.
func routerConfig(engine *Engine) apihttp.RouterConfig {
	cfg := apihttp.RouterConfig{
		NormalizeHandler: handlers.NewNormalizeHandler(engine.Normalization, engine.Logger),
		HealthHandler:    handlers.NewHealthHandler(Version, engine.Holder.Ready, engine.HealthCheckers()...),
		MaxBodyBytes:     engine.Config.Server.MaxBodyBytes,
		Logger:           engine.Logger.Named("http"),
	}
	if engine.Collector != nil {
		cfg.MetricsHandler = engine.Collector.Handler()
	}
	if engine.Metrics != nil {
		cfg.HTTPRecorder = engine.Metrics
	}
	return cfg
}

func runServer(ctx context.Context, cliCtx *CLIContext, engine *Engine) error {
	sc := engine.Config.Server
	srv := apihttp.NewServer(apihttp.ServerConfig{
		Addr:            sc.Addr,
		ReadTimeout:     sc.ReadTimeout,
		WriteTimeout:    sc.WriteTimeout,
		ShutdownTimeout: sc.ShutdownTimeout,
	}, apihttp.NewRouter(routerConfig(engine)), engine.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if engine.Config.Dictionary.Watch {
		r := normalization.NewReloader(engine.Holder, engine.Store.Path(), 0, engine.Logger)
		g.Go(func() error { return r.Run(gctx) })
	}
	if cliCtx.ConfigPath != "" {
		watchMatching(gctx, cliCtx.ConfigPath, engine)
	}
	return g.Wait()
}

// watchMatching re-applies matching options when the config file changes.
// Other sections need a restart.
func watchMatching(ctx context.Context, path string, engine *Engine) {
	log := engine.Logger.Named("config")
	err := config.Watch(path, func(next *config.Config) {
		opts := MatchingOptions(next, engine.Logger, engine.Metrics)
		cur := engine.Holder.Options()
		if opts.MinFuzzyScore == cur.MinFuzzyScore &&
			opts.ConflictPolicy == cur.ConflictPolicy &&
			opts.FoldUnicode == cur.FoldUnicode {
			log.Info("configuration changed; restart to apply non-matching settings")
			return
		}
		if _, err := engine.Holder.Retune(ctx, opts); err != nil {
			log.Error("matching options rejected; keeping previous", logging.Err(err))
			return
		}
		log.Info("matching options applied",
			logging.Float64("min_fuzzy_score", opts.MinFuzzyScore),
			logging.String("conflict_policy", string(opts.ConflictPolicy)))
	}, func(err error) {
		log.Warn("configuration reload failed", logging.Err(err))
	})
	if err != nil {
		log.Warn("configuration watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
