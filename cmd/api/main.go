package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"personal-kb/internal/backend"
	"personal-kb/internal/config"
	"personal-kb/internal/extract"
	"personal-kb/internal/http"
	"personal-kb/internal/indexer"
	"personal-kb/internal/llm"
	"personal-kb/internal/vectorstore"
	"personal-kb/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := extract.New()
	extensions := supportedExtensions(extractor, cfg.SupportedExtensions)

	// Choose the index backend once for the process lifetime
	collaborators, closeStore := newCollaborators(cfg)
	defer closeStore()
	b := backend.Select(ctx, collaborators)

	store := indexer.NewStore(extractor, b, indexer.Options{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		TopK:         cfg.TopK,
	})
	slog.Info("Knowledge store ready", "mode", store.Mode(), "chunk_size", cfg.ChunkSize, "chunk_overlap", cfg.ChunkOverlap)

	reconciler := watcher.New(store, watcher.Options{
		WatchPath:   cfg.WatchDir,
		Extensions:  extensions,
		Interval:    cfg.ScanInterval,
		StopTimeout: cfg.StopTimeout,
		Notify:      cfg.WatchNotify,
	})
	if cfg.WatchAutostart {
		if _, err := reconciler.Start(ctx); err != nil {
			slog.Error("Failed to start folder watcher", "error", err)
		}
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           http.NewRouter(&http.Deps{Store: store, Watcher: reconciler}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if reconciler.Running() {
			reconciler.Stop(shutdownCtx)
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}

// supportedExtensions keeps the configured extensions the extractor can read and warns about the rest.
func supportedExtensions(extractor *extract.Extractor, configured []string) []string {
	var exts []string
	for _, ext := range configured {
		if !extractor.Supports("file" + ext) {
			slog.Warn("Ignoring extension without an extractor", "extension", ext)
			continue
		}
		exts = append(exts, ext)
	}
	return exts
}

// newCollaborators builds the vector backend's services when both are configured.
// The returned func closes the Qdrant connection.
func newCollaborators(cfg *config.Config) (*backend.Collaborators, func()) {
	noop := func() {}
	if !cfg.VectorEnabled() {
		slog.Info("Vector collaborators not configured", "embedding_url_set", cfg.EmbeddingBaseURL != "", "qdrant_url_set", cfg.QdrantURL != "")
		return nil, noop
	}

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		slog.Warn("Failed to create Qdrant client", "error", err)
		return nil, noop
	}

	return &backend.Collaborators{
		Embedder:   llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize),
		Store:      vectorStore,
		Collection: cfg.QdrantCollection,
		VectorSize: cfg.QdrantVectorSize,
		CacheSize:  cfg.EmbeddingCacheSize,
	}, func() { _ = vectorStore.Close() }
}
