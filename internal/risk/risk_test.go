package risk

import (
	"context"
	"strings"
	"testing"

	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/logger"
	"github.com/camuig/fin-advisor/internal/market"
)

type stubQuotes struct {
	price float64
	err   error
}

func (s stubQuotes) Quote(_ context.Context, symbol string) (*market.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &market.Quote{Symbol: symbol, Price: s.price}, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		price float64
		want  Label
	}{
		{0, HighRisk},
		{42.5, HighRisk},
		{99.99, HighRisk},
		{100, Moderate},
		{187.5, Moderate},
		{500, Moderate},
		{500.01, Stable},
		{3200, Stable},
	}
	for _, tt := range tests {
		if got := Classify(tt.price); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		quotes  stubQuotes
		want    Label
		message string
	}{
		{"high risk", stubQuotes{price: 20}, HighRisk, "Warning: F is trading below $100. High risk!"},
		{"moderate", stubQuotes{price: 250}, Moderate, "Monitor F. Moderate risk."},
		{"stable", stubQuotes{price: 900}, Stable, "F is performing well!"},
		{"unavailable", stubQuotes{err: apierr.New(apierr.KindRateLimited, "alphavantage", "quota")}, Unavailable, "Unable to fetch stock data."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewEvaluator(tt.quotes, logger.Discard()).Evaluate(context.Background(), "F")
			if a.Label != tt.want {
				t.Errorf("label = %s, want %s", a.Label, tt.want)
			}
			if a.Message != tt.message {
				t.Errorf("message = %q", a.Message)
			}
			if (a.Err != nil) != (tt.want == Unavailable) {
				t.Errorf("err = %v", a.Err)
			}
		})
	}
}

func TestEvaluate_KeepsErrorKind(t *testing.T) {
	e := NewEvaluator(stubQuotes{err: apierr.New(apierr.KindNotFound, "alphavantage", "no data for XX")}, logger.Discard())
	a := e.Evaluate(context.Background(), "XX")
	if apierr.KindOf(a.Err) != apierr.KindNotFound {
		t.Errorf("kind = %s", apierr.KindOf(a.Err))
	}
	if !strings.Contains(a.Err.Error(), "no data") {
		t.Errorf("err = %v", a.Err)
	}
}
