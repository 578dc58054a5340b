// Package scheduler runs the watchlist monitor: on every cron tick it evaluates risk for
// the configured symbols, records a snapshot per symbol and alerts on label changes.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
	"github.com/camuig/fin-advisor/internal/risk"
	"github.com/camuig/fin-advisor/internal/storage"
)

type RiskEvaluator interface {
	Evaluate(ctx context.Context, symbol string) risk.Assessment
}

type SnapshotStore interface {
	GetLatestAvailableRiskSnapshot(symbol string) (*storage.RiskSnapshot, error)
	SaveRiskSnapshot(snapshot *storage.RiskSnapshot) error
}

type Alerter interface {
	NotifyRiskChange(symbol string, from, to risk.Label, price float64)
	NotifyError(context string, err error)
}

type Scheduler struct {
	cron      *cron.Cron
	job       cron.Job
	evaluator RiskEvaluator
	store     SnapshotStore
	alerter   Alerter
	symbols   []string
	schedule  string
	logger    *logger.Logger
	ctx       context.Context

	// first tracks the cycle started by Run, which cron does not own.
	first sync.WaitGroup
}

func NewScheduler(
	evaluator RiskEvaluator,
	store SnapshotStore,
	alerter Alerter,
	cfg *config.Config,
	log *logger.Logger,
) *Scheduler {
	symbols := make([]string, 0, len(cfg.Watchlist.Symbols))
	for _, sym := range cfg.Watchlist.Symbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			symbols = append(symbols, sym)
		}
	}

	s := &Scheduler{
		evaluator: evaluator,
		store:     store,
		alerter:   alerter,
		symbols:   symbols,
		schedule:  cfg.Watchlist.Schedule,
		logger:    log,
		ctx:       context.Background(),
	}

	cronLog := cronLogger{log}
	s.cron = cron.New(cron.WithSeconds(), cron.WithLogger(cronLog))
	s.job = cron.NewChain(cron.SkipIfStillRunning(cronLog)).Then(cron.FuncJob(func() {
		s.runCycle(s.ctx)
	}))
	return s
}

// Run evaluates once immediately, then on every tick until ctx is cancelled.
// It returns after the in-flight cycle, if any, has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	if _, err := s.cron.AddJob(s.schedule, s.job); err != nil {
		return fmt.Errorf("register watchlist job %q: %w", s.schedule, err)
	}

	s.logger.Info("scheduler started", "schedule", s.schedule, "symbols", s.symbols)
	s.cron.Start()
	s.first.Add(1)
	go func() {
		defer s.first.Done()
		s.job.Run()
	}()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.first.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce performs a single cycle synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runCycle(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in scheduler cycle", "panic", fmt.Sprint(r))
			s.alerter.NotifyError("scheduler panic", fmt.Errorf("%v", r))
		}
	}()

	s.logger.Info("starting watchlist cycle", "symbols", len(s.symbols))

	changed := 0
	for _, sym := range s.symbols {
		if ctx.Err() != nil {
			s.logger.Info("watchlist cycle cancelled")
			return
		}
		if s.checkSymbol(ctx, sym) {
			changed++
		}
	}

	s.logger.Info("watchlist cycle completed", "changed", changed)
}

// checkSymbol reports whether the label moved away from the last available snapshot.
// Unavailable results are recorded but never alert.
func (s *Scheduler) checkSymbol(ctx context.Context, symbol string) bool {
	prev, err := s.store.GetLatestAvailableRiskSnapshot(symbol)
	if err != nil {
		s.logger.Error("load previous snapshot", "symbol", symbol, "error", err)
	}

	a := s.evaluator.Evaluate(ctx, symbol)

	snapshot := &storage.RiskSnapshot{
		Symbol: symbol,
		Label:  string(a.Label),
		Price:  a.Price,
	}
	if a.Err != nil {
		snapshot.Error = a.Err.Error()
	}
	if err := s.store.SaveRiskSnapshot(snapshot); err != nil {
		s.logger.Error("save risk snapshot", "symbol", symbol, "error", err)
	}

	if a.Label == risk.Unavailable || prev == nil || risk.Label(prev.Label) == a.Label {
		return false
	}

	s.logger.Info("risk label changed", "symbol", symbol, "from", prev.Label, "to", a.Label, "price", a.Price)
	s.alerter.NotifyRiskChange(symbol, risk.Label(prev.Label), a.Label, a.Price)
	return true
}

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
