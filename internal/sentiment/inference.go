package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
)

const service = "sentiment"

const warmupText = "Stocks rallied after strong quarterly earnings."

// InferenceModel calls a hosted text-classification model (FinBERT by default)
// through the Hugging Face Inference API contract.
type InferenceModel struct {
	httpClient *http.Client
	url        string
	token      string
	name       string
	logger     *logger.Logger
}

// LoadInferenceModel builds the model client and, unless disabled, blocks on one
// classification so startup fails when the model cannot serve.
func LoadInferenceModel(ctx context.Context, cfg *config.Config, log *logger.Logger) (*InferenceModel, error) {
	m := &InferenceModel{
		httpClient: &http.Client{Timeout: cfg.SentimentTimeout()},
		url:        strings.TrimRight(cfg.Sentiment.Endpoint, "/") + "/models/" + cfg.Sentiment.Model,
		token:      cfg.Sentiment.APIToken,
		name:       cfg.Sentiment.Model,
		logger:     log,
	}

	if cfg.Sentiment.SkipWarmup {
		return m, nil
	}

	log.Info("loading sentiment model", "model", m.name)
	if _, err := m.Scores(ctx, warmupText); err != nil {
		return nil, fmt.Errorf("warm up sentiment model %s: %w", m.name, err)
	}
	log.Info("sentiment model ready", "model", m.name)
	return m, nil
}

func (m *InferenceModel) Name() string {
	return m.name
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type inferenceError struct {
	Error string `json:"error"`
}

func (m *InferenceModel) Scores(ctx context.Context, text string) ([]Score, error) {
	payload, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInvalid, service, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInvalid, service, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Error("sentiment request failed", "model", m.name, "error", err)
		return nil, apierr.FromTransport(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.FromTransport(service, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		var e inferenceError
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		kind := apierr.KindUpstream
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = apierr.KindRateLimited
		}
		return nil, apierr.New(kind, service, msg)
	}

	return decodeScores(body)
}

// decodeScores accepts both the batched [[...]] and the flat [...] response shapes.
func decodeScores(body []byte) ([]Score, error) {
	var batched [][]Score
	if err := json.Unmarshal(body, &batched); err == nil {
		if len(batched) == 0 {
			return nil, nil
		}
		return batched[0], nil
	}

	var flat []Score
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, apierr.Wrap(apierr.KindMalformed, service, fmt.Errorf("parse scores: %w", err))
	}
	return flat, nil
}
