package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueryLog is one dashboard action and its outcome.
type QueryLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RequestID string `gorm:"uniqueIndex;size:36;not null" json:"request_id"`
	Action    string `gorm:"index;not null" json:"action"`
	Symbol    string `gorm:"index" json:"symbol,omitempty"`
	Input     string `gorm:"type:text" json:"input,omitempty"`
	Output    string `gorm:"type:text" json:"output,omitempty"`

	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (q *QueryLog) BeforeCreate(_ *gorm.DB) error {
	if q.RequestID == "" {
		q.RequestID = uuid.NewString()
	}
	return nil
}

func (q *QueryLog) Failed() bool {
	return q.Error != ""
}

// RiskSnapshot is one watchlist evaluation.
type RiskSnapshot struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Symbol string  `gorm:"index;not null" json:"symbol"`
	Label  string  `gorm:"not null" json:"label"`
	Price  float64 `json:"price"`
	Error  string  `json:"error,omitempty"`
}
