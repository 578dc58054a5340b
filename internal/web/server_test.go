package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

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

type stubAdvisor struct {
	err error
}

func (a *stubAdvisor) AskAdvice(_ context.Context, q string) (string, error) {
	if strings.TrimSpace(q) == "" {
		return "", apierr.New(apierr.KindInvalid, "", "please enter a valid investment strategy query")
	}
	return "Buy index funds", a.err
}

func (a *stubAdvisor) AnalyzeBudget(_ context.Context, b ai.Budget) (*advisor.BudgetReport, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &advisor.BudgetReport{Savings: b.Savings(), Breakdown: b.Breakdown(), Advice: "save more"}, nil
}

func (a *stubAdvisor) StockPrice(_ context.Context, symbol string) (*market.Quote, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &market.Quote{Symbol: symbol, Price: 187.5}, nil
}

func (a *stubAdvisor) CheckRisk(_ context.Context, symbol string) risk.Assessment {
	if symbol == "" {
		return risk.Assessment{Label: risk.Unavailable, Err: apierr.New(apierr.KindInvalid, "", "please enter a stock symbol")}
	}
	if a.err != nil {
		return risk.Assessment{Symbol: symbol, Label: risk.Unavailable, Message: risk.Message(risk.Unavailable, symbol), Err: a.err}
	}
	return risk.Assessment{Symbol: symbol, Label: risk.Moderate, Price: 187.5, Message: risk.Message(risk.Moderate, symbol)}
}

func (a *stubAdvisor) StockTrend(_ context.Context, _ string) (market.PriceSeries, error) {
	return market.PriceSeries{{Date: "2024-01-02", Close: 10}}, a.err
}

func (a *stubAdvisor) NewsSentiment(_ context.Context, _ string) ([]advisor.ScoredHeadline, error) {
	return []advisor.ScoredHeadline{
		{Headline: news.Headline{Title: "Stocks rally"}, Sentiment: sentiment.Positive},
	}, a.err
}

type stubHistory struct{}

func (stubHistory) GetRecentQueries(int) ([]storage.QueryLog, error) {
	return []storage.QueryLog{
		{CreatedAt: time.Now(), Action: advisor.ActionStockPrice, Symbol: "AAPL", Output: "187.50"},
		{CreatedAt: time.Now(), Action: advisor.ActionAskAdvice, ErrorKind: "rate_limited", Error: "groq: rate limited"},
	}, nil
}

func (stubHistory) GetRecentRiskSnapshots(int) ([]storage.RiskSnapshot, error) {
	return []storage.RiskSnapshot{{CreatedAt: time.Now(), Symbol: "TSLA", Label: "Moderate", Price: 242.1}}, nil
}

func (stubHistory) CountFailedQueries() (int64, error) { return 1, nil }

func newTestServer(t *testing.T, adv Advisor) *httptest.Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Groq.Model = "llama-3.3-70b-versatile"
	s, err := NewServer(adv, stubHistory{}, cfg, logger.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	page := string(body)
	for _, want := range []string{"llama-3.3-70b-versatile", "TSLA", "187.50", "groq: rate limited", "1 failed"} {
		if !strings.Contains(page, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	resp, err = http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path status = %d", resp.StatusCode)
	}
}

func TestAdvice(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{})

	resp, err := http.Post(srv.URL+"/api/advice", "application/json", strings.NewReader(`{"question":"How to start?"}`))
	if err != nil {
		t.Fatal(err)
	}
	var got adviceResponse
	decodeBody(t, resp, &got)
	if got.Advice != "Buy index funds" {
		t.Errorf("advice = %q", got.Advice)
	}
}

func TestAdvice_Errors(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty question", `{"question":"  "}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/advice", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e errorResponse
			decodeBody(t, resp, &e)
			if e.Kind != "invalid" || e.Error == "" {
				t.Errorf("error body = %+v", e)
			}
		})
	}
}

func TestBudget(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{})

	body := `{"income":"5000","sources":[{"name":"Salary","amount":"5000"}],"living_expenses":"3000","investment_area":"stocks","investment_amount":"1000","goal":"house"}`
	resp, err := http.Post(srv.URL+"/api/budget", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var report advisor.BudgetReport
	decodeBody(t, resp, &report)
	if report.Savings.String() != "1000" || len(report.Breakdown) != 4 {
		t.Errorf("report = %+v", report)
	}

	resp, err = http.Post(srv.URL+"/api/budget", "application/json", strings.NewReader(`{"income":"100","living_expenses":"500","investment_amount":"0"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("negative savings status = %d", resp.StatusCode)
	}
}

func TestQuote_ErrorStatus(t *testing.T) {
	tests := []struct {
		kind   apierr.Kind
		status int
	}{
		{apierr.KindNotFound, http.StatusNotFound},
		{apierr.KindRateLimited, http.StatusTooManyRequests},
		{apierr.KindTransport, http.StatusGatewayTimeout},
		{apierr.KindMalformed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			srv := newTestServer(t, &stubAdvisor{err: apierr.New(tt.kind, "alphavantage", "boom")})
			resp, err := http.Get(srv.URL + "/api/quote?symbol=AAPL")
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e errorResponse
			decodeBody(t, resp, &e)
			if e.Kind != tt.kind.String() || e.Error != "boom" {
				t.Errorf("error body = %+v", e)
			}
		})
	}
}

func TestRisk(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{})

	resp, err := http.Get(srv.URL + "/api/risk?symbol=AAPL")
	if err != nil {
		t.Fatal(err)
	}
	var got riskResponse
	decodeBody(t, resp, &got)
	if got.Label != risk.Moderate || got.Price != 187.5 {
		t.Errorf("risk = %+v", got)
	}

	resp, err = http.Get(srv.URL + "/api/risk?symbol=")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty symbol status = %d", resp.StatusCode)
	}
}

func TestRisk_UnavailableIsOK(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{err: apierr.New(apierr.KindNotFound, "alphavantage", "no data for ZZZZ")})

	resp, err := http.Get(srv.URL + "/api/risk?symbol=ZZZZ")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	var got riskResponse
	decodeBody(t, resp, &got)
	if got.Label != risk.Unavailable || got.Error != "no data for ZZZZ" {
		t.Errorf("risk = %+v", got)
	}
}

func TestNewsAndHistory(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{})

	resp, err := http.Get(srv.URL + "/api/news?symbol=AAPL")
	if err != nil {
		t.Fatal(err)
	}
	var headlines []advisor.ScoredHeadline
	decodeBody(t, resp, &headlines)
	if len(headlines) != 1 || headlines[0].Sentiment != sentiment.Positive {
		t.Errorf("headlines = %+v", headlines)
	}

	resp, err = http.Get(srv.URL + "/api/history?symbol=AAPL")
	if err != nil {
		t.Fatal(err)
	}
	var series market.PriceSeries
	decodeBody(t, resp, &series)
	if len(series) != 1 || series[0].Close != 10 {
		t.Errorf("series = %+v", series)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{})
	resp, err := http.Get(srv.URL + "/api/advice")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestWriteTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.Groq.TimeoutSeconds = 60
	cfg.AlphaVantage.TimeoutSeconds = 30
	cfg.News.TimeoutSeconds = 30
	cfg.Sentiment.TimeoutSeconds = 30

	if got, want := writeTimeout(cfg), 250*time.Second; got != want {
		t.Errorf("write timeout = %s, want %s", got, want)
	}

	cfg.Groq.TimeoutSeconds = 600
	if got, want := writeTimeout(cfg), 610*time.Second; got != want {
		t.Errorf("write timeout = %s, want %s", got, want)
	}
}
