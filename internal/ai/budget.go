package ai

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/camuig/fin-advisor/internal/apierr"
)

type IncomeSource struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Budget is one month of the user's figures as entered on the dashboard.
type Budget struct {
	Income           decimal.Decimal `json:"income"`
	Sources          []IncomeSource  `json:"sources"`
	LivingExpenses   decimal.Decimal `json:"living_expenses"`
	InvestmentArea   string          `json:"investment_area"`
	InvestmentAmount decimal.Decimal `json:"investment_amount"`
	Goal             string          `json:"goal"`
}

// Slice is one wedge of the budget pie chart.
type Slice struct {
	Label   string          `json:"label"`
	Amount  decimal.Decimal `json:"amount"`
	Percent float64         `json:"percent"`
}

func (b Budget) Savings() decimal.Decimal {
	return b.Income.Sub(b.LivingExpenses).Sub(b.InvestmentAmount)
}

func (b Budget) SourcesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range b.Sources {
		total = total.Add(s.Amount)
	}
	return total
}

func (b Budget) parts() []Slice {
	return []Slice{
		{Label: "Income", Amount: b.SourcesTotal()},
		{Label: "Expenses", Amount: b.LivingExpenses},
		{Label: "Investments", Amount: b.InvestmentAmount},
		{Label: "Savings", Amount: b.Savings()},
	}
}

// Breakdown returns the chart slices in display order: Income, Expenses, Investments, Savings.
// Income is the sum of the listed sources.
func (b Budget) Breakdown() []Slice {
	parts := b.parts()

	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p.Amount)
	}
	if total.IsZero() {
		return parts
	}

	hundred := decimal.NewFromInt(100)
	for i := range parts {
		parts[i].Percent = parts[i].Amount.Div(total).Mul(hundred).Round(1).InexactFloat64()
	}
	return parts
}

// Validate rejects negative chart values and names every offending field.
func (b Budget) Validate() error {
	var invalid []string
	for _, p := range b.parts() {
		if p.Amount.IsNegative() {
			invalid = append(invalid, p.Label)
		}
	}
	if b.Income.IsNegative() && !slices.Contains(invalid, "Income") {
		invalid = append([]string{"Income"}, invalid...)
	}

	if len(invalid) > 0 {
		return apierr.New(apierr.KindInvalid, service,
			fmt.Sprintf("some financial values are invalid (negative), check your inputs. Invalid fields: %s",
				strings.Join(invalid, ", ")))
	}
	return nil
}
