package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/camuig/fin-advisor/internal/advisor"
	"github.com/camuig/fin-advisor/internal/ai"
	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
	"github.com/camuig/fin-advisor/internal/market"
	"github.com/camuig/fin-advisor/internal/news"
	"github.com/camuig/fin-advisor/internal/risk"
	"github.com/camuig/fin-advisor/internal/sentiment"
	"github.com/camuig/fin-advisor/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	price := flag.String("price", "", "print the latest price for a symbol")
	riskSym := flag.String("risk", "", "print the risk label for a symbol")
	trend := flag.String("trend", "", "print the daily closing prices for a symbol")
	newsSym := flag.String("news", "", "print headline sentiment for a symbol")
	question := flag.String("advice", "", "ask a general investment question")
	budgetPath := flag.String("budget", "", "path to a JSON budget to analyze")
	noJournal := flag.Bool("no-journal", false, "do not record the query in the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Only warnings and errors go to stdout so results stay readable.
	log := logger.NewWithWriter(os.Stderr, "warn")
	if cfg.Logging.Level == "debug" {
		log = logger.NewWithWriter(os.Stderr, "debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var journal advisor.Journal
	if !*noJournal {
		db, err := storage.NewDatabase(cfg.Storage.SQLitePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "database init error: %v\n", err)
			os.Exit(1)
		}
		journal = storage.NewRepository(db)
	}

	var classifier advisor.SentimentClassifier
	if *newsSym != "" {
		model, err := sentiment.LoadInferenceModel(ctx, cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sentiment model load error: %v\n", err)
			os.Exit(1)
		}
		classifier = sentiment.NewClassifier(model, log)
	}

	marketClient := market.NewClient(cfg, log)
	svc := advisor.NewService(
		ai.NewAdviceClient(cfg, log),
		marketClient,
		news.NewClient(cfg, log),
		classifier,
		risk.NewEvaluator(marketClient, log),
		journal,
		log,
	)

	var failed int
	run := func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "error [%s]: %s\n", apierr.KindOf(err), apierr.Message(err))
			failed++
		}
	}

	ran := false
	if *price != "" {
		ran = true
		run(printPrice(ctx, svc, *price))
	}
	if *riskSym != "" {
		ran = true
		a := svc.CheckRisk(ctx, *riskSym)
		fmt.Printf("%s: %s\n", a.Label, a.Message)
		if a.Err != nil {
			run(a.Err)
		}
	}
	if *trend != "" {
		ran = true
		run(printTrend(ctx, svc, *trend))
	}
	if *newsSym != "" {
		ran = true
		run(printNews(ctx, svc, *newsSym))
	}
	if *question != "" {
		ran = true
		advice, err := svc.AskAdvice(ctx, *question)
		if err == nil {
			fmt.Println(advice)
		}
		run(err)
	}
	if *budgetPath != "" {
		ran = true
		run(printBudget(ctx, svc, *budgetPath))
	}

	if !ran {
		flag.Usage()
		os.Exit(2)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func printPrice(ctx context.Context, svc *advisor.Service, symbol string) error {
	q, err := svc.StockPrice(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Printf("%s: $%.2f (as of %s)\n", q.Symbol, q.Price, q.ObservedAt.Format("2006-01-02 15:04 MST"))
	return nil
}

func printTrend(ctx context.Context, svc *advisor.Service, symbol string) error {
	series, err := svc.StockTrend(ctx, symbol)
	if err != nil {
		return err
	}
	for _, p := range series {
		fmt.Printf("%s  %10.2f\n", p.Date, p.Close)
	}
	return nil
}

func printNews(ctx context.Context, svc *advisor.Service, symbol string) error {
	headlines, err := svc.NewsSentiment(ctx, symbol)
	if err != nil {
		return err
	}
	if len(headlines) == 0 {
		fmt.Println("No headlines found.")
		return nil
	}
	for _, h := range headlines {
		label := string(h.Sentiment)
		if h.Error != "" {
			label = "unscored: " + h.Error
		}
		fmt.Printf("%s - %s\n", h.Title, label)
	}
	return nil
}

func printBudget(ctx context.Context, svc *advisor.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apierr.Wrap(apierr.KindInvalid, "", err)
	}
	var b ai.Budget
	if err := json.Unmarshal(data, &b); err != nil {
		return apierr.Wrap(apierr.KindInvalid, "", fmt.Errorf("parse budget: %w", err))
	}

	report, err := svc.AnalyzeBudget(ctx, b)
	if err != nil {
		return err
	}

	fmt.Printf("Savings: %s\n\n", report.Savings.StringFixed(2))
	for _, s := range report.Breakdown {
		fmt.Printf("  %-12s %12s  %5.1f%%\n", s.Label, s.Amount.StringFixed(2), s.Percent)
	}
	fmt.Println()
	fmt.Println(strings.TrimSpace(report.Advice))
	return nil
}
