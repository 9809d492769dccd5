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

	"github.com/bna-dev/prospector/internal/config"
	dbRedis "github.com/bna-dev/prospector/internal/db/redis"
	logpkg "github.com/bna-dev/prospector/internal/logger"
	"github.com/bna-dev/prospector/internal/metrics"
	documentrepo "github.com/bna-dev/prospector/internal/repository/document"
	"github.com/bna-dev/prospector/internal/repository/embcache"
	evalhistoryrepo "github.com/bna-dev/prospector/internal/repository/evalhistory"
	historyrepo "github.com/bna-dev/prospector/internal/repository/history"
	chiTransport "github.com/bna-dev/prospector/internal/transport/chi"
	openaiLLM "github.com/bna-dev/prospector/internal/transport/openai"
	"github.com/bna-dev/prospector/internal/transport/websearch"
	assembleruc "github.com/bna-dev/prospector/internal/usecase/assembler"
	chatuc "github.com/bna-dev/prospector/internal/usecase/chat"
	enrichmentuc "github.com/bna-dev/prospector/internal/usecase/enrichment"
	evaluatoruc "github.com/bna-dev/prospector/internal/usecase/evaluator"
	generatoruc "github.com/bna-dev/prospector/internal/usecase/generator"
	healthuc "github.com/bna-dev/prospector/internal/usecase/health"
	ingestuc "github.com/bna-dev/prospector/internal/usecase/ingest"
	retrieveruc "github.com/bna-dev/prospector/internal/usecase/retriever"
	sectionsuc "github.com/bna-dev/prospector/internal/usecase/sections"
	selectoruc "github.com/bna-dev/prospector/internal/usecase/selector"
	"github.com/bna-dev/prospector/internal/version"
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

	logger.Info("Starting prospector API server",
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
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register LLM metrics explicitly (no init())
	metrics.RegisterLLMMetrics()

	// LLM transports share one provider config
	llmCfg := &openaiLLM.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		ChatModel:      cfg.LLM.ChatModel,
		Dimensions:     cfg.LLM.Dimensions,
		Logger:         logger,
	}
	embedder := embcache.New(
		openaiLLM.NewEmbedder(llmCfg),
		store,
		cfg.Storage.KeyPrefix,
		metrics.EmbeddingCacheTotal,
		logger,
	)
	completer := openaiLLM.NewCompleter(llmCfg)
	logger.Info("LLM provider configured",
		zap.String("chat_model", cfg.LLM.ChatModel),
		zap.String("embedding_model", cfg.LLM.EmbeddingModel),
		zap.Int("dimensions", cfg.LLM.Dimensions),
	)

	// Repositories
	docRepo := documentrepo.New(store, cfg.Storage.KeyPrefix)
	histRepo := historyrepo.New(store, cfg.Storage.KeyPrefix)
	evalRepo := evalhistoryrepo.New(store, cfg.Storage.KeyPrefix)

	// Web provider. Page fetching always works (ingestion needs it);
	// live search in chat is gated separately below.
	web := websearch.NewClient(&websearch.Config{
		MaxResults: cfg.WebSearch.MaxResults,
		Timeout:    time.Duration(cfg.WebSearch.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	// Use case services
	retrieverSvc := retrieveruc.New(embedder, docRepo, cfg.LLM.Dimensions, cfg.Retrieval.TopK, logger)
	sectionsSvc := sectionsuc.New(completer, logger)
	selectorSvc := selectoruc.New(completer, logger)
	asm := assembleruc.New(cfg.Retrieval.MaxContextChars, cfg.Retrieval.MaxHistoryTurns)
	generatorSvc := generatoruc.New(completer, logger)
	evaluatorSvc := evaluatoruc.New(completer, evalRepo, logger)
	ingestSvc := ingestuc.New(web, completer, embedder, docRepo, logger)
	enrichmentSvc := enrichmentuc.New(completer, web, nil, logger)

	// Pass nil interface (not typed nil pointer!) when web search is off.
	var chatWeb chatuc.WebProvider
	if cfg.WebSearch.Enabled {
		chatWeb = web
	}
	chatSvc := chatuc.New(
		retrieverSvc,
		docRepo,
		sectionsSvc,
		selectorSvc,
		chatWeb,
		asm,
		generatorSvc,
		histRepo,
		cfg.Retrieval.TopK,
		logger,
	)

	healthSvc := healthuc.New(store, completer)

	server := chiTransport.NewServer(
		ingestSvc,
		docRepo,
		enrichmentSvc,
		chatSvc,
		evaluatorSvc,
		healthSvc,
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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

			// Set X-Request-ID in response header
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
