package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camuig/fin-advisor/internal/advisor"
	"github.com/camuig/fin-advisor/internal/ai"
	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
	"github.com/camuig/fin-advisor/internal/market"
	"github.com/camuig/fin-advisor/internal/news"
	"github.com/camuig/fin-advisor/internal/risk"
	"github.com/camuig/fin-advisor/internal/scheduler"
	"github.com/camuig/fin-advisor/internal/sentiment"
	"github.com/camuig/fin-advisor/internal/storage"
	"github.com/camuig/fin-advisor/internal/telegram"
	"github.com/camuig/fin-advisor/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("starting fin-advisor", "model", cfg.Groq.Model, "sentiment_model", cfg.Sentiment.Model)

	db, err := storage.NewDatabase(cfg.Storage.SQLitePath)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The sentiment model is loaded once and shared by every request.
	model, err := sentiment.LoadInferenceModel(ctx, cfg, log.With("component", "sentiment"))
	if err != nil {
		log.Error("sentiment model load failed", "model", cfg.Sentiment.Model, "error", err)
		os.Exit(1)
	}

	marketClient := market.NewClient(cfg, log.With("component", "market"))
	evaluator := risk.NewEvaluator(marketClient, log.With("component", "risk"))
	svc := advisor.NewService(
		ai.NewAdviceClient(cfg, log.With("component", "groq")),
		marketClient,
		news.NewClient(cfg, log.With("component", "news")),
		sentiment.NewClassifier(model, log.With("component", "sentiment")),
		evaluator,
		repo,
		log.With("component", "advisor"),
	)
	notifier := telegram.NewNotifier(cfg, log.With("component", "telegram"))

	webServer, err := web.NewServer(svc, repo, cfg, log.With("component", "web"))
	if err != nil {
		log.Error("web server init failed", "error", err)
		os.Exit(1)
	}

	schedDone := make(chan struct{})
	if cfg.Watchlist.Enabled {
		sched := scheduler.NewScheduler(evaluator, repo, notifier, cfg, log.With("component", "scheduler"))
		go func() {
			defer close(schedDone)
			if err := sched.Run(ctx); err != nil {
				log.Error("scheduler error", "error", err)
			}
		}()
	} else {
		close(schedDone)
	}

	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus(fmt.Sprintf("📈 fin-advisor started, watching %d symbol(s)", len(cfg.Watchlist.Symbols)))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	select {
	case <-schedDone:
	case <-shutdownCtx.Done():
		log.Warn("scheduler did not stop in time")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	notifier.NotifyStatus("🛑 fin-advisor stopped")
	log.Info("fin-advisor stopped")
}
