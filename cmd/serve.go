package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/giygas/slim-api/ai"
	"github.com/giygas/slim-api/auth"
	"github.com/giygas/slim-api/catalogue"
	"github.com/giygas/slim-api/config"
	"github.com/giygas/slim-api/data"
	"github.com/giygas/slim-api/handlers"
	"github.com/giygas/slim-api/health"
	"github.com/giygas/slim-api/logging"
	"github.com/giygas/slim-api/scheduler"
	"github.com/giygas/slim-api/server"
	"github.com/giygas/slim-api/store"
	"github.com/giygas/slim-api/validation"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// openStore opens the database and applies pending migrations
func openStore(ctx context.Context, cfg *config.Config) (*store.SQLiteStore, error) {
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func newAuthService(st *store.SQLiteStore, cfg *config.Config) (*auth.Service, error) {
	return auth.NewService(st, st, auth.Options{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
		Level:          cfg.LogLevel,
	})
	defer logging.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Error("Failed to open database", "path", cfg.DatabasePath, "error", err)
		return err
	}
	defer st.Close()

	cacheSize := cfg.AICacheSize
	if cacheSize == 0 {
		cacheSize = -1
	}
	predictor := ai.NewClient(ai.Options{
		BaseURL:   cfg.AIURL,
		Timeout:   cfg.AITimeout,
		CacheSize: cacheSize,
	})

	authService, err := newAuthService(st, cfg)
	if err != nil {
		return err
	}

	cat, err := catalogue.Default()
	if err != nil {
		return fmt.Errorf("failed to load action plan catalogue: %w", err)
	}

	state := data.NewServiceState()
	state.SetServerStartTime(time.Now())

	sched := scheduler.NewScheduler(st, st, predictor, state, cfg.AIHealthInterval)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	h := handlers.NewHTTPHandler(handlers.Deps{
		Store:        st,
		Auth:         authService,
		Predictor:    predictor,
		Catalogue:    cat,
		Validator:    validation.NewDataValidator(),
		Health:       health.NewHealthChecker(st, state, cfg.AIHealthInterval),
		State:        state,
		ExposeErrors: cfg.Env == config.EnvDevelopment,
	})
	srv := server.NewServer(cfg, h)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Error("Server stopped with error", "error", err)
		return err
	}
	return nil
}
