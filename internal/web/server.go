package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/camuig/fin-advisor/internal/advisor"
	"github.com/camuig/fin-advisor/internal/ai"
	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
	"github.com/camuig/fin-advisor/internal/market"
	"github.com/camuig/fin-advisor/internal/news"
	"github.com/camuig/fin-advisor/internal/risk"
	"github.com/camuig/fin-advisor/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// Advisor is the set of command handlers the API exposes.
type Advisor interface {
	AskAdvice(ctx context.Context, question string) (string, error)
	AnalyzeBudget(ctx context.Context, b ai.Budget) (*advisor.BudgetReport, error)
	StockPrice(ctx context.Context, symbol string) (*market.Quote, error)
	CheckRisk(ctx context.Context, symbol string) risk.Assessment
	StockTrend(ctx context.Context, symbol string) (market.PriceSeries, error)
	NewsSentiment(ctx context.Context, symbol string) ([]advisor.ScoredHeadline, error)
}

// History feeds the dashboard tables.
type History interface {
	GetRecentQueries(limit int) ([]storage.QueryLog, error)
	GetRecentRiskSnapshots(limit int) ([]storage.RiskSnapshot, error)
	CountFailedQueries() (int64, error)
}

type Server struct {
	httpServer *http.Server
	advisor    Advisor
	history    History
	dashboard  *template.Template
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(adv Advisor, history History, cfg *config.Config, log *logger.Logger) (*Server, error) {
	tmpl, err := template.New("dashboard.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	s := &Server{
		advisor:   adv,
		history:   history,
		dashboard: tmpl,
		config:    cfg,
		logger:    log,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout(cfg),
	}

	return s, nil
}

// writeTimeout covers the slowest handler: one feed call followed by one sentiment
// call per headline, all sequential.
func writeTimeout(cfg *config.Config) time.Duration {
	slowest := max(
		cfg.GroqTimeout(),
		cfg.AlphaVantageTimeout(),
		cfg.NewsTimeout()+news.MaxHeadlines*cfg.SentimentTimeout(),
	)
	return slowest + 10*time.Second
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/advice", s.handleAdvice)
	mux.HandleFunc("POST /api/budget", s.handleBudget)
	mux.HandleFunc("GET /api/quote", s.handleQuote)
	mux.HandleFunc("GET /api/risk", s.handleRisk)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/news", s.handleNews)
	return mux
}

// Handler exposes the routes without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
