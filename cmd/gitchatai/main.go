package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/josephsamijona/gitchatai-sub000/internal/cache"
	"github.com/josephsamijona/gitchatai-sub000/internal/config"
	dbRedis "github.com/josephsamijona/gitchatai-sub000/internal/db/redis"
	"github.com/josephsamijona/gitchatai-sub000/internal/domain"
	logpkg "github.com/josephsamijona/gitchatai-sub000/internal/logger"
	"github.com/josephsamijona/gitchatai-sub000/internal/metrics"
	"github.com/josephsamijona/gitchatai-sub000/internal/repository/embcache"
	"github.com/josephsamijona/gitchatai-sub000/internal/repository/querylog"
	"github.com/josephsamijona/gitchatai-sub000/internal/repository/sources"
	"github.com/josephsamijona/gitchatai-sub000/internal/tasks"
	chiTransport "github.com/josephsamijona/gitchatai-sub000/internal/transport/chi"
	openaiEmb "github.com/josephsamijona/gitchatai-sub000/internal/transport/openai"
	healthuc "github.com/josephsamijona/gitchatai-sub000/internal/usecase/health"
	searchuc "github.com/josephsamijona/gitchatai-sub000/internal/usecase/search"
	"github.com/josephsamijona/gitchatai-sub000/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gitchatai search server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Store not ready", zap.Error(err))
	}
	logger.Info("Connected to store")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterCacheMetrics()
	metrics.RegisterSearchMetrics()

	// Background task pool shared by the cache manager and analytics
	pool, err := tasks.NewPool(cfg.Cache.WorkerPoolSize, logger)
	if err != nil {
		logger.Fatal("Failed to create task pool", zap.Error(err))
	}

	// Cache strategy manager over the shared store
	catalogue := cache.DefaultCatalogue()
	opStats := cache.NewOpStats(cfg.Cache.AnalyticsCapacity)
	cacheManager := cache.NewManager(store, catalogue, opStats, pool, cfg.Database.KeyPrefix, logger).
		WithWriteBehindDelay(time.Duration(cfg.Cache.WriteBehindDelaySec) * time.Second).
		WithRefreshThreshold(cfg.Cache.RefreshThreshold)

	// Embedder chain: OpenAI -> Cached
	baseEmbedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := embcache.New(baseEmbedder, cacheManager, metrics.EmbeddingCacheTotal, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Content source adapters, one per index
	prefix := cfg.Database.KeyPrefix
	adapters := []searchuc.SourceAdapter{
		sources.NewMessages(store, prefix),
		sources.NewDocuments(store, prefix),
		sources.NewConcepts(store, prefix),
	}

	qlog := querylog.New(store, prefix, logger)

	ranking := domain.RankingConfig{
		VectorWeight:    cfg.Search.VectorWeight,
		TextWeight:      cfg.Search.TextWeight,
		FreshnessWeight: cfg.Search.FreshnessWeight,
		AuthorityWeight: cfg.Search.AuthorityWeight,
	}

	searchSvc := searchuc.New(adapters, embedder, cacheManager, qlog, pool, logger).
		WithFreshnessWindow(time.Duration(cfg.Search.FreshnessWindowDays) * 24 * time.Hour)

	healthSvc := healthuc.New(store, baseEmbedder)

	server := chiTransport.NewServer(searchSvc, healthSvc, opStats, catalogue, logger).
		WithDefaultRanking(ranking)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownTimeout := time.Duration(cfg.HTTP.ShutdownSec) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Drain deferred cache flushes and analytics before the store closes
	pool.Shutdown(shutdownTimeout)

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
