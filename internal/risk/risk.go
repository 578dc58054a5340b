package risk

import (
	"context"
	"fmt"

	"github.com/camuig/fin-advisor/internal/logger"
	"github.com/camuig/fin-advisor/internal/market"
)

type Label string

const (
	HighRisk    Label = "HighRisk"
	Stable      Label = "Stable"
	Moderate    Label = "Moderate"
	Unavailable Label = "Unavailable"
)

// Price thresholds in USD. These are the whole risk model; nothing is derived from history.
const (
	HighRiskBelow = 100.0
	StableAbove   = 500.0
)

// Classify maps a price onto a label. It never returns Unavailable.
func Classify(price float64) Label {
	switch {
	case price < HighRiskBelow:
		return HighRisk
	case price > StableAbove:
		return Stable
	default:
		return Moderate
	}
}

type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*market.Quote, error)
}

type Assessment struct {
	Symbol  string  `json:"symbol"`
	Label   Label   `json:"label"`
	Price   float64 `json:"price,omitempty"`
	Message string  `json:"message"`
	// Err is why the label is Unavailable.
	Err error `json:"-"`
}

type Evaluator struct {
	quotes QuoteSource
	logger *logger.Logger
}

func NewEvaluator(quotes QuoteSource, log *logger.Logger) *Evaluator {
	return &Evaluator{quotes: quotes, logger: log}
}

// Evaluate always returns an assessment; a failed quote yields Unavailable.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string) Assessment {
	q, err := e.quotes.Quote(ctx, symbol)
	if err != nil {
		e.logger.Warn("risk unavailable", "symbol", symbol, "error", err)
		return Assessment{
			Symbol:  symbol,
			Label:   Unavailable,
			Message: Message(Unavailable, symbol),
			Err:     err,
		}
	}

	label := Classify(q.Price)
	e.logger.Info("risk evaluated", "symbol", q.Symbol, "price", q.Price, "label", label)

	return Assessment{
		Symbol:  q.Symbol,
		Label:   label,
		Price:   q.Price,
		Message: Message(label, q.Symbol),
	}
}

// Message is the dashboard text for a label.
func Message(label Label, symbol string) string {
	switch label {
	case HighRisk:
		return fmt.Sprintf("Warning: %s is trading below $100. High risk!", symbol)
	case Stable:
		return fmt.Sprintf("%s is performing well!", symbol)
	case Moderate:
		return fmt.Sprintf("Monitor %s. Moderate risk.", symbol)
	default:
		return "Unable to fetch stock data."
	}
}
