package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/toolshelf/internal/config"
	"github.com/MrSnakeDoc/toolshelf/internal/extract"
	"github.com/MrSnakeDoc/toolshelf/internal/fetch"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/index"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
	"github.com/MrSnakeDoc/toolshelf/internal/redis"
	"github.com/MrSnakeDoc/toolshelf/internal/scrape"
	"github.com/MrSnakeDoc/toolshelf/internal/seed"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
	"github.com/MrSnakeDoc/toolshelf/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/toolshelf/internal/store/redis"
	"github.com/MrSnakeDoc/toolshelf/internal/store/sqlstore"
	"github.com/MrSnakeDoc/toolshelf/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	store       store.Store
	redisClient *goredis.Client
}

func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	base, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	checks := []deps.Check{{Name: "store", Ping: base.Ping}}

	// Redis is optional: without it each replica keeps its own snapshot.
	var (
		redisClient *goredis.Client
		backing     index.Backing
	)
	if cfg.RedisAddr != "" {
		redisClient, err = redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			_ = base.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cache := redisstore.NewCategoryCache(redisClient, cfg.RedisCacheTTL)
		backing = cache
		checks = append(checks, deps.Check{Name: "redis", Ping: cache.Ping})
	} else {
		loggerClient.Info("redis not configured, known categories cached per process")
	}

	known := index.NewCategoryIndex(base.ListCategories, backing, cfg.CategoryCacheTTL, loggerClient)

	// Every category mutation drops the snapshot before the response is sent.
	st := store.WithCategoryHooks(base, known.Invalidate)

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, st, loggerClient); err != nil {
			_ = base.Close()
			return nil, err
		}
	}

	capability, err := newCapability(ctx, cfg, loggerClient)
	if err != nil {
		_ = base.Close()
		return nil, err
	}
	model := cfg.GenAIModel
	if _, ok := capability.(extract.Unconfigured); ok {
		model = ""
	}

	analyzer := pipeline.New(
		fetch.New(fetch.Options{
			Timeout:      cfg.FetchTimeout,
			MaxBodyBytes: cfg.FetchMaxBytes,
			UserAgent:    cfg.FetchUserAgent,
		}, loggerClient),
		scrape.New(cfg.BodyBudget),
		extract.New(capability, extract.Options{FallbackCategoryID: cfg.FallbackCategoryID}, loggerClient),
		known,
		loggerClient,
	)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		RequestTimeout: cfg.RequestTimeout,
		AnalyzeTimeout: cfg.AnalyzeTimeout,
		AnalyzeRate:    cfg.AnalyzeRatePerMin,
		Store:          st,
		Analyzer:       analyzer,
		Model:          model,
		Checks:         checks,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		store:       base,
		redisClient: redisClient,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	if cfg.DBDriver == "memory" {
		log.Warn("using in-memory catalog, data is lost on restart")
		return memory.New(), nil
	}
	s, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return s, nil
}

func applySeed(ctx context.Context, path string, st store.Store, log logger.Logger) error {
	f, err := seed.NewLoader(path).Load()
	if err != nil {
		return err
	}
	if _, _, err := seed.Apply(ctx, st, f, log); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	return nil
}

// newCapability returns the hosted model, or a stand-in that reports
// ExtractionConfigError when no API key is set.
func newCapability(ctx context.Context, cfg *config.Config, log logger.Logger) (extract.Capability, error) {
	c, err := extract.NewGenAI(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	switch {
	case errors.Is(err, extract.ErrNotConfigured):
		log.Warn("TOOLSHELF_GENAI_API_KEY not set, /analyze-url will report ExtractionConfigError")
		return extract.Unconfigured{}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	log.Info("extraction model configured", logger.String("model", cfg.GenAIModel))
	return c, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting toolshelf %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("toolshelf %s", version.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.close()
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.close()
	a.logger.Info("✅ toolshelf stopped cleanly")
	return nil
}

func (a *App) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close catalog: %v", err)
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}
	_ = a.logger.Sync()
}
