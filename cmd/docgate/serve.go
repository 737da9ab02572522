package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docgate/internal/config"
	"github.com/kailas-cloud/docgate/internal/db"
	dbRedis "github.com/kailas-cloud/docgate/internal/db/redis"
	dbValkey "github.com/kailas-cloud/docgate/internal/db/valkey"
	"github.com/kailas-cloud/docgate/internal/domain"
	logpkg "github.com/kailas-cloud/docgate/internal/logger"
	"github.com/kailas-cloud/docgate/internal/metrics"
	chromarepo "github.com/kailas-cloud/docgate/internal/repository/chroma"
	documentrepo "github.com/kailas-cloud/docgate/internal/repository/document"
	"github.com/kailas-cloud/docgate/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/docgate/internal/transport/chi"
	geminiChat "github.com/kailas-cloud/docgate/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/docgate/internal/transport/openai"
	chatuc "github.com/kailas-cloud/docgate/internal/usecase/chat"
	documentuc "github.com/kailas-cloud/docgate/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/docgate/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/docgate/internal/usecase/health"
	"github.com/kailas-cloud/docgate/internal/version"
)

// backend is the vector store selected by database.driver.
type backend struct {
	docs   documentuc.Store
	pinger healthuc.Pinger
	close  func()
}

func run(ctx context.Context, env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx = logpkg.ContextWithLogger(ctx, logger)

	logger.Info("Starting docgate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("collection", cfg.Collection.Name),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterChatMetrics()

	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	instrumented := embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Collection.Dimensions,
	)

	be, err := openBackend(ctx, &cfg, instrumented, logger)
	if err != nil {
		return err
	}
	defer be.close()

	strategy, err := documentuc.ParseIDStrategy(cfg.Collection.IDStrategy)
	if err != nil {
		return fmt.Errorf("collection.id_strategy: %w", err)
	}
	docSvc := documentuc.New(be.docs, strategy)

	completer, modelCheck, err := buildCompleter(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	chatSvc := chatuc.New(docSvc, completer, domain.ChatConfig{
		SystemPrompt: cfg.Chat.SystemPrompt,
		MaxTokens:    cfg.Chat.MaxTokens,
		Temperature:  *cfg.Chat.Temperature,
		ContextTopK:  cfg.Chat.ContextTopK,
	})

	healthSvc := healthuc.New(be.pinger, docSvc).
		WithCheck("embedding", instrumented).
		WithCheck("model", modelCheck)

	imagesDir := cfg.Extract.ImagesDir()
	if err := os.MkdirAll(imagesDir, 0o750); err != nil {
		return fmt.Errorf("create images dir %s: %w", imagesDir, err)
	}

	server := chiTransport.NewServer(docSvc, chatSvc, healthSvc)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		CORSOrigins:     cfg.HTTP.CORS.AllowedOrigins,
		CORSCredentials: cfg.HTTP.CORS.AllowCredentials,
		CORSMaxAgeSec:   cfg.HTTP.CORS.MaxAgeSec,
		APIKeys:         cfg.Auth.APIKeys,
		StaticImagesDir: imagesDir,
	}, logger)

	return serve(&cfg, handler, logger)
}

// openBackend connects the configured store. Redis/Valkey get the store-backed embedding cache tier.
func openBackend(ctx context.Context, cfg *config.Config, emb domain.Embedder, logger *zap.Logger) (*backend, error) {
	lruTTL := time.Duration(cfg.Embedding.Cache.LRUTTLSec) * time.Second

	if cfg.Database.Driver == "chroma" {
		embedder := embcache.WrapLRU(emb, cfg.Embedding.Cache.LRUSize, lruTTL, metrics.EmbeddingCacheTotal)
		repo, err := chromarepo.New(ctx, chromarepo.Config{
			URL:        cfg.Database.ChromaURL,
			Collection: cfg.Collection.Name,
		}, embedder)
		if err != nil {
			return nil, fmt.Errorf("open chroma: %w", err)
		}
		logger.Info("Connected to chroma", zap.String("url", cfg.Database.ChromaURL))
		return &backend{
			docs:   repo,
			pinger: repo,
			close: func() {
				if err := repo.Close(); err != nil {
					logger.Warn("Close chroma client", zap.Error(err))
				}
			},
		}, nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	embedder := emb
	if cfg.Embedding.Cache.Store {
		embedder = embcache.New(embedder, store, embcache.Options{
			Prefix:     cfg.Storage.KeyPrefix,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			TTL:        time.Duration(cfg.Embedding.Cache.StoreTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}
	embedder = embcache.WrapLRU(embedder, cfg.Embedding.Cache.LRUSize, lruTTL, metrics.EmbeddingCacheTotal)

	algo, err := db.ParseVectorAlgorithm(cfg.Collection.Algorithm)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("collection.algorithm: %w", err)
	}
	repo := documentrepo.New(store, embedder, documentrepo.Config{
		Prefix:     cfg.Storage.KeyPrefix,
		Collection: cfg.Collection.Name,
		Dimensions: cfg.Collection.Dimensions,
		Algorithm:  algo,
		HNSW: documentrepo.HNSWConfig{
			M:           cfg.Collection.HNSWM,
			EFConstruct: cfg.Collection.HNSWEFConstruct,
		},
	})
	if err := repo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	return &backend{docs: repo, pinger: store, close: store.Close}, nil
}

func openStore(cfg *config.Config) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	dial := time.Duration(cfg.Database.DialTimeout) * time.Second
	// CLIENT SETNAME rejects spaces
	name := strings.ReplaceAll(cfg.App.Name, " ", "_")
	switch cfg.Database.Driver {
	case "valkey":
		store, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:       cfg.Database.Addrs,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			ClientName:  name,
			DialTimeout: dial,
		})
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Database.Addrs,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			DB:          cfg.Database.DB,
			ClientName:  name,
			DialTimeout: dial,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
	}
	return store, nil
}

// buildCompleter returns the chat model client and, when the provider supports it, its health check.
func buildCompleter(
	ctx context.Context, cfg *config.Config, logger *zap.Logger,
) (domain.Completer, healthuc.Checker, error) {
	timeout := time.Duration(cfg.Chat.TimeoutSec) * time.Second

	switch cfg.Chat.Provider {
	case "gemini":
		c, err := geminiChat.NewCompleter(ctx, &geminiChat.Config{
			APIKey:  cfg.Chat.APIKey,
			BaseURL: cfg.Chat.BaseURL,
			Model:   cfg.Chat.Model,
			Timeout: timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create gemini completer: %w", err)
		}
		return c, nil, nil
	default:
		c := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
			APIKey:   cfg.Chat.APIKey,
			BaseURL:  cfg.Chat.BaseURL,
			Model:    cfg.Chat.Model,
			Provider: cfg.Chat.Provider,
			Timeout:  timeout,
			Logger:   logger,
		})
		return c, c, nil
	}
}

func serve(cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
