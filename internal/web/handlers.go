package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/camuig/fin-advisor/internal/ai"
	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/risk"
	"github.com/camuig/fin-advisor/internal/storage"
)

const recentLimit = 20

var templateFuncs = template.FuncMap{
	"ts": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04:05") },
}

type DashboardData struct {
	RecentQueries []storage.QueryLog
	RiskSnapshots []storage.RiskSnapshot
	FailedCount   int64
	Model         string
	Watchlist     []string
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type adviceRequest struct {
	Question string `json:"question"`
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

type riskResponse struct {
	risk.Assessment
	Error string `json:"error,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{
		Model: s.config.Groq.Model,
	}
	if s.config.Watchlist.Enabled {
		data.Watchlist = s.config.Watchlist.Symbols
	}

	if queries, err := s.history.GetRecentQueries(recentLimit); err == nil {
		data.RecentQueries = queries
	} else {
		s.logger.Error("get recent queries", "error", err)
	}
	if snapshots, err := s.history.GetRecentRiskSnapshots(recentLimit); err == nil {
		data.RiskSnapshots = snapshots
	} else {
		s.logger.Error("get risk snapshots", "error", err)
	}
	if failed, err := s.history.CountFailedQueries(); err == nil {
		data.FailedCount = failed
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.dashboard.Execute(w, data); err != nil {
		s.logger.Error("execute template", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	if !s.decode(w, r, &req) {
		return
	}
	advice, err := s.advisor.AskAdvice(r.Context(), req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, adviceResponse{Advice: advice})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	var b ai.Budget
	if !s.decode(w, r, &b) {
		return
	}
	report, err := s.advisor.AnalyzeBudget(r.Context(), b)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.advisor.StockPrice(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

// handleRisk answers 200 for an Unavailable label unless the symbol itself was rejected.
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	a := s.advisor.CheckRisk(r.Context(), r.URL.Query().Get("symbol"))
	if apierr.Is(a.Err, apierr.KindInvalid) {
		s.writeError(w, a.Err)
		return
	}
	resp := riskResponse{Assessment: a}
	if a.Err != nil {
		resp.Error = apierr.Message(a.Err)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	series, err := s.advisor.StockTrend(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	headlines, err := s.advisor.NewsSentiment(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, headlines)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		s.writeError(w, apierr.New(apierr.KindInvalid, "", "invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := apierr.KindOf(err)
	status := kind.HTTPStatus()
	if kind == apierr.KindUnknown {
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, errorResponse{Error: apierr.Message(err), Kind: kind.String()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
