package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
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

type fakeAdvice struct {
	answer    string
	err       error
	questions []string
	budgets   []ai.Budget
}

func (f *fakeAdvice) GeneralAdvice(_ context.Context, q string) (string, error) {
	f.questions = append(f.questions, q)
	return f.answer, f.err
}

func (f *fakeAdvice) BudgetAdvice(_ context.Context, b ai.Budget) (string, error) {
	f.budgets = append(f.budgets, b)
	return f.answer, f.err
}

type fakeMarket struct {
	quote   *market.Quote
	series  market.PriceSeries
	err     error
	symbols []string
}

func (f *fakeMarket) Quote(_ context.Context, symbol string) (*market.Quote, error) {
	f.symbols = append(f.symbols, symbol)
	return f.quote, f.err
}

func (f *fakeMarket) History(_ context.Context, symbol string) (market.PriceSeries, error) {
	f.symbols = append(f.symbols, symbol)
	return f.series, f.err
}

type fakeHeadlines struct {
	items []news.Headline
	err   error
}

func (f *fakeHeadlines) Headlines(_ context.Context, _ string) ([]news.Headline, error) {
	return f.items, f.err
}

type fakeClassifier map[string]sentiment.Label

func (f fakeClassifier) Classify(_ context.Context, text string) (sentiment.Label, error) {
	label, ok := f[text]
	if !ok {
		return "", apierr.New(apierr.KindMalformed, "sentiment", "unknown label")
	}
	return label, nil
}

type memJournal struct {
	entries []storage.QueryLog
	err     error
}

func (j *memJournal) SaveQueryLog(e *storage.QueryLog) error {
	j.entries = append(j.entries, *e)
	return j.err
}

type deps struct {
	advice    *fakeAdvice
	market    *fakeMarket
	headlines *fakeHeadlines
	sentiment fakeClassifier
	journal   *memJournal
}

func newService(d *deps) *Service {
	if d.advice == nil {
		d.advice = &fakeAdvice{}
	}
	if d.market == nil {
		d.market = &fakeMarket{}
	}
	if d.headlines == nil {
		d.headlines = &fakeHeadlines{}
	}
	if d.journal == nil {
		d.journal = &memJournal{}
	}
	log := logger.Discard()
	return NewService(d.advice, d.market, d.headlines, d.sentiment, risk.NewEvaluator(d.market, log), d.journal, log)
}

func TestAskAdvice(t *testing.T) {
	d := &deps{advice: &fakeAdvice{answer: "Buy index funds"}}
	s := newService(d)

	got, err := s.AskAdvice(context.Background(), "  How do I start investing?  ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got != "Buy index funds" {
		t.Errorf("advice = %q", got)
	}
	if diff := cmp.Diff([]string{"How do I start investing?"}, d.advice.questions); diff != "" {
		t.Errorf("questions (-want +got):\n%s", diff)
	}

	if len(d.journal.entries) != 1 {
		t.Fatalf("journal entries = %d", len(d.journal.entries))
	}
	e := d.journal.entries[0]
	if e.Action != ActionAskAdvice || e.Output != "Buy index funds" || e.RequestID == "" || e.Failed() {
		t.Errorf("journal entry = %+v", e)
	}
}

func TestAskAdvice_EmptyQuestion(t *testing.T) {
	d := &deps{}
	s := newService(d)

	_, err := s.AskAdvice(context.Background(), "   ")
	if apierr.KindOf(err) != apierr.KindInvalid {
		t.Errorf("kind = %s", apierr.KindOf(err))
	}
	if len(d.advice.questions) != 0 {
		t.Error("advice client called for empty question")
	}
	if d.journal.entries[0].ErrorKind != "invalid" {
		t.Errorf("journal = %+v", d.journal.entries[0])
	}
}

func TestAskAdvice_UpstreamError(t *testing.T) {
	d := &deps{advice: &fakeAdvice{err: apierr.New(apierr.KindRateLimited, "groq", "rate limited")}}
	s := newService(d)

	_, err := s.AskAdvice(context.Background(), "anything")
	if apierr.Message(err) != "rate limited" {
		t.Errorf("message = %q", apierr.Message(err))
	}
	if e := d.journal.entries[0]; e.ErrorKind != "rate_limited" || e.Error != "groq: rate limited" {
		t.Errorf("journal = %+v", e)
	}
}

func TestAnalyzeBudget(t *testing.T) {
	d := &deps{advice: &fakeAdvice{answer: "Increase SIP contributions"}}
	s := newService(d)

	b := ai.Budget{
		Income:           decimal.NewFromInt(80000),
		Sources:          []ai.IncomeSource{{Name: "Salary", Amount: decimal.NewFromInt(80000)}},
		LivingExpenses:   decimal.NewFromInt(40000),
		InvestmentArea:   "stocks",
		InvestmentAmount: decimal.NewFromInt(15000),
		Goal:             "retire early",
	}
	report, err := s.AnalyzeBudget(context.Background(), b)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !report.Savings.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("savings = %s", report.Savings)
	}
	if len(report.Breakdown) != 4 || report.Advice != "Increase SIP contributions" {
		t.Errorf("report = %+v", report)
	}
}

func TestAnalyzeBudget_Invalid(t *testing.T) {
	d := &deps{}
	s := newService(d)

	b := ai.Budget{
		Income:           decimal.NewFromInt(1000),
		LivingExpenses:   decimal.NewFromInt(2000),
		InvestmentAmount: decimal.Zero,
	}
	_, err := s.AnalyzeBudget(context.Background(), b)
	if apierr.KindOf(err) != apierr.KindInvalid {
		t.Errorf("kind = %s", apierr.KindOf(err))
	}
	if len(d.advice.budgets) != 0 {
		t.Error("advice requested for invalid budget")
	}
}

func TestStockPrice(t *testing.T) {
	d := &deps{market: &fakeMarket{quote: &market.Quote{Symbol: "AAPL", Price: 187.5}}}
	s := newService(d)

	q, err := s.StockPrice(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if q.Price != 187.5 {
		t.Errorf("price = %v", q.Price)
	}
	if d.market.symbols[0] != "AAPL" {
		t.Errorf("symbol = %q", d.market.symbols[0])
	}
	if e := d.journal.entries[0]; e.Symbol != "AAPL" || e.Output != "187.50" {
		t.Errorf("journal = %+v", e)
	}
}

func TestStockPrice_EmptySymbol(t *testing.T) {
	d := &deps{}
	s := newService(d)
	if _, err := s.StockPrice(context.Background(), ""); apierr.KindOf(err) != apierr.KindInvalid {
		t.Errorf("kind = %s", apierr.KindOf(err))
	}
	if len(d.market.symbols) != 0 {
		t.Error("market called for empty symbol")
	}
}

func TestCheckRisk(t *testing.T) {
	tests := []struct {
		name   string
		market *fakeMarket
		want   risk.Label
	}{
		{"high", &fakeMarket{quote: &market.Quote{Symbol: "F", Price: 12.3}}, risk.HighRisk},
		{"moderate", &fakeMarket{quote: &market.Quote{Symbol: "AAPL", Price: 187.5}}, risk.Moderate},
		{"stable", &fakeMarket{quote: &market.Quote{Symbol: "AVGO", Price: 1320}}, risk.Stable},
		{"unavailable", &fakeMarket{err: apierr.New(apierr.KindNotFound, "alphavantage", "no data")}, risk.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &deps{market: tt.market}
			a := newService(d).CheckRisk(context.Background(), "x")
			if a.Label != tt.want {
				t.Errorf("label = %s, want %s", a.Label, tt.want)
			}
			if got := d.journal.entries[0].Output; got != string(tt.want) {
				t.Errorf("journal output = %q", got)
			}
		})
	}
}

func TestStockTrend(t *testing.T) {
	series := market.PriceSeries{{Date: "2024-01-02", Close: 10}, {Date: "2024-01-03", Close: 11}}
	d := &deps{market: &fakeMarket{series: series}}

	got, err := newService(d).StockTrend(context.Background(), "msft")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if diff := cmp.Diff(series, got); diff != "" {
		t.Errorf("series (-want +got):\n%s", diff)
	}
}

func TestStockTrend_NoChart(t *testing.T) {
	d := &deps{market: &fakeMarket{err: apierr.New(apierr.KindNotFound, "alphavantage", "no data for ZZ")}}
	got, err := newService(d).StockTrend(context.Background(), "ZZ")
	if got != nil || apierr.KindOf(err) != apierr.KindNotFound {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestNewsSentiment(t *testing.T) {
	d := &deps{
		headlines: &fakeHeadlines{items: []news.Headline{
			{Title: "Apple beats estimates"},
			{Title: "Apple faces antitrust probe"},
			{Title: "Mystery headline"},
			{Title: "Apple to hold annual meeting"},
		}},
		sentiment: fakeClassifier{
			"Apple beats estimates":        sentiment.Positive,
			"Apple faces antitrust probe":  sentiment.Negative,
			"Apple to hold annual meeting": sentiment.Neutral,
		},
	}

	got, err := newService(d).NewsSentiment(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("news: %v", err)
	}

	want := []sentiment.Label{sentiment.Positive, sentiment.Negative, "", sentiment.Neutral}
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i, h := range got {
		if h.Sentiment != want[i] {
			t.Errorf("%d: %q = %s, want %s", i, h.Title, h.Sentiment, want[i])
		}
	}
	if got[2].Error == "" {
		t.Error("unclassified headline should carry an error")
	}
	if d.journal.entries[0].Failed() {
		t.Errorf("partial classification should not fail the action: %+v", d.journal.entries[0])
	}
}

func TestNewsSentiment_FeedError(t *testing.T) {
	d := &deps{headlines: &fakeHeadlines{err: apierr.New(apierr.KindTransport, "news", "timeout")}}
	_, err := newService(d).NewsSentiment(context.Background(), "AAPL")
	if apierr.KindOf(err) != apierr.KindTransport {
		t.Errorf("kind = %s", apierr.KindOf(err))
	}
}

func TestJournalFailureIsNotFatal(t *testing.T) {
	d := &deps{
		advice:  &fakeAdvice{answer: "ok"},
		journal: &memJournal{err: errors.New("database is locked")},
	}
	got, err := newService(d).AskAdvice(context.Background(), "q")
	if err != nil || got != "ok" {
		t.Errorf("got %q, %v", got, err)
	}
}
