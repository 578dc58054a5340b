package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/config"
	"github.com/camuig/fin-advisor/internal/logger"
)

const (
	service = "groq"

	unknownIssue = "unknown issue"

	defaultTemperature  = 0.7
	generalAdviceTokens = 800
	budgetAdviceTokens  = 1000
)

type AdviceRequest struct {
	SystemPrompt string
	UserPrompt   string
	// Model falls back to the configured model when empty.
	Model       string
	Temperature float32
	MaxTokens   int
}

// AdviceClient sends chat completions to Groq's OpenAI-compatible endpoint.
type AdviceClient struct {
	client *openai.Client
	model  string
	cfg    *config.Config
	logger *logger.Logger
}

func NewAdviceClient(cfg *config.Config, log *logger.Logger) *AdviceClient {
	ocfg := openai.DefaultConfig(cfg.Groq.APIKey)
	ocfg.BaseURL = strings.TrimRight(cfg.Groq.BaseURL, "/")
	ocfg.HTTPClient = &http.Client{
		Timeout:   cfg.GroqTimeout(),
		Transport: &envelopeTransport{base: http.DefaultTransport},
	}

	return &AdviceClient{
		client: openai.NewClientWithConfig(ocfg),
		model:  cfg.Groq.Model,
		cfg:    cfg,
		logger: log,
	}
}

// Advise sends one system+user conversation and returns the first completion's text.
func (a *AdviceClient) Advise(ctx context.Context, req AdviceRequest) (string, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return "", apierr.New(apierr.KindInvalid, service, "prompt is required")
	}

	model := req.Model
	if model == "" {
		model = a.model
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.GroqTimeout())
	defer cancel()

	a.logger.Info("sending advice request",
		"model", model, "prompt_length", len(req.UserPrompt), "max_tokens", req.MaxTokens)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		a.logger.Error("advice request failed", "model", model, "error", err)
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", apierr.New(apierr.KindMalformed, service, unknownIssue)
	}

	content := StripThinkTags(resp.Choices[0].Message.Content)
	a.logger.Info("received advice", "length", len(content))
	a.logger.Debug("advice raw response", "content", resp.Choices[0].Message.Content)

	return content, nil
}

func (a *AdviceClient) GeneralAdvice(ctx context.Context, question string) (string, error) {
	return a.Advise(ctx, AdviceRequest{
		SystemPrompt: generalSystemPrompt,
		UserPrompt:   question,
		Temperature:  defaultTemperature,
		MaxTokens:    generalAdviceTokens,
	})
}

// BudgetAdvice validates the budget before any request is made.
func (a *AdviceClient) BudgetAdvice(ctx context.Context, b Budget) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	return a.Advise(ctx, AdviceRequest{
		SystemPrompt: budgetSystemPrompt,
		UserPrompt:   BuildBudgetPrompt(b),
		Temperature:  defaultTemperature,
		MaxTokens:    budgetAdviceTokens,
	})
}

// classifyError maps go-openai failures onto apierr kinds. Upstream messages are kept
// when the service sent one, otherwise the text is "unknown issue".
func classifyError(err error) *apierr.Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = unknownIssue
		}
		return &apierr.Error{Kind: kindForStatus(apiErr.HTTPStatusCode), Service: service, Message: msg, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apierr.Error{Kind: kindForStatus(reqErr.HTTPStatusCode), Service: service, Message: unknownIssue, Err: err}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apierr.Wrap(apierr.KindTransport, service, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &apierr.Error{Kind: apierr.KindMalformed, Service: service, Message: unknownIssue, Err: err}
	}

	return &apierr.Error{Kind: apierr.KindUpstream, Service: service, Message: unknownIssue, Err: err}
}

func kindForStatus(status int) apierr.Kind {
	switch status {
	case http.StatusTooManyRequests:
		return apierr.KindRateLimited
	case http.StatusNotFound:
		return apierr.KindNotFound
	default:
		return apierr.KindUpstream
	}
}
