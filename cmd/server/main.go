package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sentex/internal/api"
	"github.com/dgallion1/sentex/internal/clowder"
	"github.com/dgallion1/sentex/internal/config"
	"github.com/dgallion1/sentex/internal/parser"
	"github.com/dgallion1/sentex/internal/pipeline"
	"github.com/dgallion1/sentex/internal/segment"
	"github.com/dgallion1/sentex/internal/walker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The sentence model is loaded once and shared by every worker.
	seg, err := segment.New(cfg.Segmenter, cfg.PunktTrainingFile, cfg.AnthropicAPIKey, cfg.AnthropicModel)
	if err != nil {
		log.Error("load segmenter", "backend", cfg.Segmenter, "error", err)
		os.Exit(1)
	}
	stats := segment.NewLatencyStats(1 * time.Hour)
	policy, err := walker.ParsePolicy(cfg.PageFailurePolicy)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	wk := walker.New(segment.Instrument(seg, stats), log, walker.Config{
		Policy:          policy,
		PageTimeout:     cfg.PageTimeout,
		EmitCoordinates: cfg.EmitCoordinates,
	})

	// Initialize clients.
	host := clowder.NewClient(cfg.ClowderURL, cfg.ClowderAPIKey)
	opener := &parser.PDFParser{FallbackPdftotext: cfg.PDFFallbackPdftotext}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, host, opener, wk, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		if c, ok := seg.(*segment.ClaudeClient); ok {
			c.Close()
		}
		host.Close()
	}()

	log.Info("starting sentex",
		"port", cfg.Port,
		"segmenter", cfg.Segmenter,
		"workers", cfg.WorkerCount,
		"page_failure_policy", policy,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
