package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/camuig/fin-advisor/internal/apierr"
)

const (
	dailySeriesKey = "Time Series (Daily)"
	dailyLayout    = "2006-01-02"
)

// History returns one closing price per trading day, oldest first. A NotFound error
// means no chart can be drawn for the symbol.
func (c *Client) History(ctx context.Context, symbol string) (PriceSeries, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", sym)

	doc, err := c.query(ctx, params, dailySeriesKey)
	if err != nil {
		return nil, err
	}

	var series map[string]dailyBar
	if err := json.Unmarshal(doc[dailySeriesKey], &series); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse daily series: %w", err))
	}

	type dated struct {
		at    time.Time
		point PricePoint
	}
	rows := make([]dated, 0, len(series))
	for date, bar := range series {
		at, err := time.Parse(dailyLayout, date)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse date %q: %w", date, err))
		}
		closePrice, err := parsePrice(bar.Close)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse close on %s: %w", date, err))
		}
		rows = append(rows, dated{at: at, point: PricePoint{Date: date, Close: closePrice}})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })

	result := make(PriceSeries, len(rows))
	for i, r := range rows {
		result[i] = r.point
	}

	c.logger.Info("history fetched", "symbol", sym, "points", len(result))
	return result, nil
}

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}

// Dates returns the dates in series order.
func (s PriceSeries) Dates() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}
