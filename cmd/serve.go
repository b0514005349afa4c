package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhisek/studypod/internal/cache"
	"github.com/abhisek/studypod/internal/config"
	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/grading"
	"github.com/abhisek/studypod/internal/judge0"
	"github.com/abhisek/studypod/internal/llm"
	"github.com/abhisek/studypod/internal/logger"
	"github.com/abhisek/studypod/internal/server"
	"github.com/abhisek/studypod/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the grading and execution gateway",
	Long: "Serve the HTTP gateway the player talks to: code runs and submissions through Judge0,\n" +
		"open-question feedback and chat through the configured LLM provider, and course data\n" +
		"from STUDYPOD_COURSE_DIR.",
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		if db, _ := cmd.Flags().GetString("db"); db != "" {
			cfg.DBPath = db
		}

		log, err := logger.New(cfg.Logging.Level, cfg.IsProduction())
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var events store.EventRepo
		if cfg.DBPath != "" {
			if err := store.EnsureDir(cfg.DBPath); err != nil {
				return fmt.Errorf("prepare database path: %w", err)
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			events = st.EventRepo()
		}

		provider, err := llm.NewProvider(ctx, llm.ConfigFromEnv(), events, log)
		switch {
		case errors.Is(err, llm.ErrNotConfigured):
			log.Warn("LLM provider not configured; feedback and chat are disabled", zap.Error(err))
			provider = nil
		case err != nil:
			return fmt.Errorf("llm provider: %w", err)
		}

		runCache, err := newRunCache(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer runCache.Close()

		exec := judge0.New(judge0.Config{
			URL:     cfg.Judge0.URL,
			APIKey:  cfg.Judge0.APIKey,
			Host:    cfg.Judge0.Host,
			Timeout: cfg.Judge0.Timeout,
		}, nil)
		if !exec.Configured() {
			log.Warn("JUDGE0_API_KEY is not set; run and submit will fail until it is")
		}

		gradingCfg := grading.DefaultConfig()
		gradingCfg.RunCacheTTL = cfg.Redis.CacheTTL
		svc := grading.NewService(exec, provider, runCache, gradingCfg, log)

		srv := server.New(svc, course.NewLibrary(cfg.CourseDir), log, server.Options{
			Environment:    cfg.Server.Environment,
			Production:     cfg.IsProduction(),
			RateLimit:      cfg.RateLimit.Requests,
			RateWindow:     cfg.RateLimit.Window,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		})
		return srv.ListenAndServe(ctx, cfg.Addr())
	},
}

// newRunCache connects to Redis when REDIS_URL is set and falls back to
// the in-process cache otherwise, or when Redis is unreachable.
func newRunCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.Cache, error) {
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err == nil {
			log.Info("using redis run cache")
			return rc, nil
		}
		log.Warn("redis unavailable, using in-process run cache", zap.Error(err))
	}

	return cache.NewMemory(cfg.Redis.CacheSize, cfg.Redis.CacheTTL), nil
}

func init() {
	serveCmd.Flags().Int("port", 0, "Listen port (overrides PORT)")
	serveCmd.Flags().String("env-file", "", "Load settings from this .env file instead of ./.env")
}
