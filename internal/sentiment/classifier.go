package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/camuig/fin-advisor/internal/apierr"
	"github.com/camuig/fin-advisor/internal/logger"
)

type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"
)

type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Model scores text against the model's label set.
type Model interface {
	Scores(ctx context.Context, text string) ([]Score, error)
}

// Classifier picks the top label produced by a shared, read-only Model.
type Classifier struct {
	model  Model
	logger *logger.Logger
}

func NewClassifier(model Model, log *logger.Logger) *Classifier {
	return &Classifier{model: model, logger: log}
}

// Classify returns the highest-scoring label. Ties keep the first label the model listed.
func (c *Classifier) Classify(ctx context.Context, text string) (Label, error) {
	if strings.TrimSpace(text) == "" {
		return "", apierr.New(apierr.KindInvalid, service, "text is required")
	}

	scores, err := c.model.Scores(ctx, text)
	if err != nil {
		return "", err
	}
	if len(scores) == 0 {
		return "", apierr.New(apierr.KindMalformed, service, "model returned no scores")
	}

	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}

	label, err := normalizeLabel(best.Label)
	if err != nil {
		return "", err
	}

	c.logger.Debug("sentiment classified", "label", label, "score", best.Score)
	return label, nil
}

func normalizeLabel(raw string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive", "pos", "bullish":
		return Positive, nil
	case "negative", "neg", "bearish":
		return Negative, nil
	case "neutral", "neu":
		return Neutral, nil
	default:
		return "", apierr.New(apierr.KindMalformed, service, fmt.Sprintf("unknown label %q", raw))
	}
}
