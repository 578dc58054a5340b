package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
)

const service = "alphavantage"

// Client talks to the Alpha Vantage query endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.AlphaVantageTimeout()},
		baseURL:    strings.TrimRight(cfg.AlphaVantage.BaseURL, "/"),
		apiKey:     cfg.AlphaVantage.APIKey,
		logger:     log,
	}
}

// query issues GET /query and returns the top-level JSON object. The named series key
// must be present, otherwise the body is inspected for Alpha Vantage's error envelopes.
func (c *Client) query(ctx context.Context, params url.Values, seriesKey string) (map[string]json.RawMessage, error) {
	params.Set("apikey", c.apiKey)
	u := c.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInvalid, service, fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("alpha vantage request failed",
			"function", params.Get("function"), "symbol", params.Get("symbol"), "error", err)
		return nil, apierr.FromTransport(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.FromTransport(service, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("alpha vantage response",
		"function", params.Get("function"), "symbol", params.Get("symbol"),
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.New(apierr.KindUpstream, service,
			fmt.Sprintf("status %d", resp.StatusCode))
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse response: %w", err))
	}

	if _, ok := doc[seriesKey]; !ok {
		return nil, missingSeries(doc, params.Get("symbol"))
	}
	return doc, nil
}

// missingSeries explains why the series key is absent. Alpha Vantage answers 200 for
// throttling and bad symbols alike, with the reason in a text field.
func missingSeries(doc map[string]json.RawMessage, symbol string) *apierr.Error {
	for _, key := range []string{"Note", "Information"} {
		if msg := stringField(doc, key); msg != "" {
			return apierr.New(apierr.KindRateLimited, service, msg)
		}
	}
	if msg := stringField(doc, "Error Message"); msg != "" {
		return apierr.New(apierr.KindUpstream, service, msg)
	}
	return apierr.New(apierr.KindNotFound, service, fmt.Sprintf("no data for %s", symbol))
}

func stringField(doc map[string]json.RawMessage, key string) string {
	raw, ok := doc[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func normalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", apierr.New(apierr.KindInvalid, service, "symbol is required")
	}
	return s, nil
}

// parsePrice rejects NaN and infinities, which strconv accepts.
func parsePrice(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite price %q", raw)
	}
	return v, nil
}
