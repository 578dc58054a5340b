package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/camuig/fin-advisor/internal/apierr"
)

const (
	intradaySeriesKey = "Time Series (5min)"
	intradayLayout    = "2006-01-02 15:04:05"
)

// Quote returns the opening price of the most recent 5-minute bar for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_INTRADAY")
	params.Set("symbol", sym)
	params.Set("interval", "5min")

	doc, err := c.query(ctx, params, intradaySeriesKey)
	if err != nil {
		return nil, err
	}

	var series map[string]intradayBar
	if err := json.Unmarshal(doc[intradaySeriesKey], &series); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse intraday series: %w", err))
	}
	if len(series) == 0 {
		return nil, apierr.New(apierr.KindNotFound, service, fmt.Sprintf("no intraday data for %s", sym))
	}

	loc := seriesLocation(doc)

	// Map order is random and the feed order is unverified, so compare timestamps.
	var (
		latestKey string
		latestAt  time.Time
	)
	for key := range series {
		at, err := time.ParseInLocation(intradayLayout, key, loc)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse timestamp %q: %w", key, err))
		}
		if latestKey == "" || at.After(latestAt) {
			latestKey, latestAt = key, at
		}
	}

	price, err := parsePrice(series[latestKey].Open)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse open price: %w", err))
	}

	c.logger.Info("quote fetched", "symbol", sym, "price", price, "observed_at", latestAt)

	return &Quote{Symbol: sym, Price: price, ObservedAt: latestAt}, nil
}

// seriesLocation reads the exchange time zone from the response metadata, falling back to UTC.
func seriesLocation(doc map[string]json.RawMessage) *time.Location {
	var meta metaData
	if raw, ok := doc["Meta Data"]; ok {
		_ = json.Unmarshal(raw, &meta)
	}
	if meta.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(meta.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
