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

	"github.com/omnimind-labs/omnimind/internal/config"
	dbRedis "github.com/omnimind-labs/omnimind/internal/db/redis"
	logpkg "github.com/omnimind-labs/omnimind/internal/logger"
	"github.com/omnimind-labs/omnimind/internal/metrics"
	"github.com/omnimind-labs/omnimind/internal/repository/doccache"
	documentrepo "github.com/omnimind-labs/omnimind/internal/repository/document"
	vectorrepo "github.com/omnimind-labs/omnimind/internal/repository/vector"
	chiTransport "github.com/omnimind-labs/omnimind/internal/transport/chi"
	openaiTransport "github.com/omnimind-labs/omnimind/internal/transport/openai"
	documentuc "github.com/omnimind-labs/omnimind/internal/usecase/document"
	healthuc "github.com/omnimind-labs/omnimind/internal/usecase/health"
	ingestuc "github.com/omnimind-labs/omnimind/internal/usecase/ingest"
	searchuc "github.com/omnimind-labs/omnimind/internal/usecase/search"
	"github.com/omnimind-labs/omnimind/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting omnimind API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("documents_driver", cfg.Documents.Driver),
		zap.Strings("vector_addrs", cfg.Vectors.Addrs),
	)

	// Relational store for documents and tags
	docRepo, err := documentrepo.Open(cfg.Documents.Driver, cfg.Documents.DSN)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer func() { _ = docRepo.Close() }()

	// Redis store for vectors and the ingest-outcome cache
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Vectors.Addrs,
		Password: cfg.Vectors.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Vectors.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to stores")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	vecRepo := vectorrepo.New(store, cfg.Vectors.KeyPrefix)
	outcomeCache := doccache.New(
		store, cfg.Vectors.KeyPrefix,
		time.Duration(cfg.Cache.TTLSec)*time.Second,
		metrics.DocCacheTotal, logger,
	)

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.AI.APIKey,
		BaseURL:    cfg.AI.BaseURL,
		Model:      cfg.AI.EmbeddingModel,
		Dimensions: cfg.AI.Dimensions,
		Logger:     logger,
	})
	analyzer := openaiTransport.NewAnalyzer(&openaiTransport.AnalyzerConfig{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.TaggingModel,
		Logger:  logger,
	})
	logger.Info("Enrichment providers created",
		zap.String("embedding_model", cfg.AI.EmbeddingModel),
		zap.String("tagging_model", cfg.AI.TaggingModel),
		zap.Int("dimensions", cfg.AI.Dimensions),
	)

	// Create use case services
	ingestSvc := ingestuc.New(
		docRepo, vecRepo, analyzer, embedder, outcomeCache,
		time.Duration(cfg.AI.TaggingTimeoutSec)*time.Second,
		time.Duration(cfg.AI.EmbedTimeoutSec)*time.Second,
		logger,
	)
	searchSvc := searchuc.New(
		vecRepo, docRepo, embedder,
		cfg.Search.MinScore, cfg.Search.TopK,
		time.Duration(cfg.AI.EmbedTimeoutSec)*time.Second,
		logger,
	)
	documentSvc := documentuc.New(docRepo, vecRepo, outcomeCache, logger)
	healthSvc := healthuc.New(docRepo, store, embedder)

	server := chiTransport.NewServer(ingestSvc, documentSvc, searchSvc, healthSvc, logger)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

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

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
