// Package advisor holds the command handlers the dashboard and CLI call, one per
// user action. Each handler makes its outbound calls sequentially, journals the
// outcome, and reports failures as *apierr.Error values.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/camuig/fin-advisor/internal/ai"
	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/logger"
	"github.com/camuig/fin-advisor/internal/market"
	"github.com/camuig/fin-advisor/internal/news"
	"github.com/camuig/fin-advisor/internal/risk"
	"github.com/camuig/fin-advisor/internal/sentiment"
	"github.com/camuig/fin-advisor/internal/storage"
)

const (
	ActionAskAdvice     = "ask_advice"
	ActionAnalyzeBudget = "analyze_budget"
	ActionStockPrice    = "stock_price"
	ActionCheckRisk     = "check_risk"
	ActionStockTrend    = "stock_trend"
	ActionNewsSentiment = "news_sentiment"
)

type AdviceSource interface {
	GeneralAdvice(ctx context.Context, question string) (string, error)
	BudgetAdvice(ctx context.Context, b ai.Budget) (string, error)
}

type MarketSource interface {
	Quote(ctx context.Context, symbol string) (*market.Quote, error)
	History(ctx context.Context, symbol string) (market.PriceSeries, error)
}

type HeadlineSource interface {
	Headlines(ctx context.Context, symbol string) ([]news.Headline, error)
}

type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (sentiment.Label, error)
}

type RiskEvaluator interface {
	Evaluate(ctx context.Context, symbol string) risk.Assessment
}

type Journal interface {
	SaveQueryLog(entry *storage.QueryLog) error
}

type Service struct {
	advice    AdviceSource
	market    MarketSource
	headlines HeadlineSource
	sentiment SentimentClassifier
	risk      RiskEvaluator
	journal   Journal
	logger    *logger.Logger
}

func NewService(
	advice AdviceSource,
	mkt MarketSource,
	headlines HeadlineSource,
	classifier SentimentClassifier,
	evaluator RiskEvaluator,
	journal Journal,
	log *logger.Logger,
) *Service {
	return &Service{
		advice:    advice,
		market:    mkt,
		headlines: headlines,
		sentiment: classifier,
		risk:      evaluator,
		journal:   journal,
		logger:    log,
	}
}

type BudgetReport struct {
	Savings   decimal.Decimal `json:"savings"`
	Breakdown []ai.Slice      `json:"breakdown"`
	Advice    string          `json:"advice"`
}

type ScoredHeadline struct {
	news.Headline
	Sentiment sentiment.Label `json:"sentiment,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func (s *Service) AskAdvice(ctx context.Context, question string) (string, error) {
	call := s.begin(ActionAskAdvice, "", question)

	question = strings.TrimSpace(question)
	if question == "" {
		err := apierr.New(apierr.KindInvalid, "", "please enter a valid investment strategy query")
		call.finish("", err)
		return "", err
	}

	advice, err := s.advice.GeneralAdvice(ctx, question)
	call.finish(advice, err)
	return advice, err
}

func (s *Service) AnalyzeBudget(ctx context.Context, b ai.Budget) (*BudgetReport, error) {
	input, _ := json.Marshal(b)
	call := s.begin(ActionAnalyzeBudget, "", string(input))

	if err := b.Validate(); err != nil {
		call.finish("", err)
		return nil, err
	}

	advice, err := s.advice.BudgetAdvice(ctx, b)
	call.finish(advice, err)
	if err != nil {
		return nil, err
	}

	return &BudgetReport{
		Savings:   b.Savings(),
		Breakdown: b.Breakdown(),
		Advice:    advice,
	}, nil
}

func (s *Service) StockPrice(ctx context.Context, symbol string) (*market.Quote, error) {
	symbol = normalize(symbol)
	call := s.begin(ActionStockPrice, symbol, symbol)

	if symbol == "" {
		err := missingSymbol()
		call.finish("", err)
		return nil, err
	}

	q, err := s.market.Quote(ctx, symbol)
	if err != nil {
		call.finish("", err)
		return nil, err
	}
	call.finish(fmt.Sprintf("%.2f", q.Price), nil)
	return q, nil
}

// CheckRisk never fails; an unavailable quote is reported through the label.
func (s *Service) CheckRisk(ctx context.Context, symbol string) risk.Assessment {
	symbol = normalize(symbol)
	call := s.begin(ActionCheckRisk, symbol, symbol)

	if symbol == "" {
		err := missingSymbol()
		call.finish("", err)
		return risk.Assessment{Label: risk.Unavailable, Message: risk.Message(risk.Unavailable, ""), Err: err}
	}

	a := s.risk.Evaluate(ctx, symbol)
	call.finish(string(a.Label), a.Err)
	return a
}

func (s *Service) StockTrend(ctx context.Context, symbol string) (market.PriceSeries, error) {
	symbol = normalize(symbol)
	call := s.begin(ActionStockTrend, symbol, symbol)

	if symbol == "" {
		err := missingSymbol()
		call.finish("", err)
		return nil, err
	}

	series, err := s.market.History(ctx, symbol)
	if err != nil {
		call.finish("", err)
		return nil, err
	}
	call.finish(fmt.Sprintf("%d points", len(series)), nil)
	return series, nil
}

// NewsSentiment classifies each headline in feed order. A headline the model cannot
// score keeps its text and carries the error instead of a label.
func (s *Service) NewsSentiment(ctx context.Context, symbol string) ([]ScoredHeadline, error) {
	symbol = normalize(symbol)
	call := s.begin(ActionNewsSentiment, symbol, symbol)

	if symbol == "" {
		err := missingSymbol()
		call.finish("", err)
		return nil, err
	}

	headlines, err := s.headlines.Headlines(ctx, symbol)
	if err != nil {
		call.finish("", err)
		return nil, err
	}

	scored := make([]ScoredHeadline, 0, len(headlines))
	var lines []string
	for _, h := range headlines {
		sh := ScoredHeadline{Headline: h}
		label, err := s.sentiment.Classify(ctx, h.Title)
		if err != nil {
			call.log.Warn("classify headline", "title", h.Title, "error", err)
			sh.Error = apierr.Message(err)
		} else {
			sh.Sentiment = label
		}
		scored = append(scored, sh)
		lines = append(lines, fmt.Sprintf("%s - %s", h.Title, sh.Sentiment))
	}

	call.finish(strings.Join(lines, "\n"), nil)
	return scored, nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func missingSymbol() *apierr.Error {
	return apierr.New(apierr.KindInvalid, "", "please enter a stock symbol")
}

type call struct {
	s     *Service
	entry *storage.QueryLog
	start time.Time
	log   *logger.Logger
}

func (s *Service) begin(action, symbol, input string) *call {
	id := uuid.NewString()
	entry := &storage.QueryLog{
		RequestID: id,
		Action:    action,
		Symbol:    symbol,
		Input:     input,
	}
	return &call{
		s:     s,
		entry: entry,
		start: time.Now(),
		log:   s.logger.With("request_id", id, "action", action),
	}
}

// finish journals the outcome. Journal failures are logged and never reach the user.
func (c *call) finish(output string, err error) {
	c.entry.Output = output
	c.entry.DurationMs = time.Since(c.start).Milliseconds()
	if err != nil {
		c.entry.ErrorKind = apierr.KindOf(err).String()
		c.entry.Error = err.Error()
		c.log.Warn("action failed", "symbol", c.entry.Symbol, "error", err, "duration_ms", c.entry.DurationMs)
	} else {
		c.log.Info("action completed", "symbol", c.entry.Symbol, "duration_ms", c.entry.DurationMs)
	}

	if c.s.journal == nil {
		return
	}
	if jerr := c.s.journal.SaveQueryLog(c.entry); jerr != nil {
		c.log.Error("save query log", "error", jerr)
	}
}
