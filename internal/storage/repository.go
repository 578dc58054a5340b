package storage

import (
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Query log

func (r *Repository) SaveQueryLog(entry *QueryLog) error {
	return r.db.Create(entry).Error
}

func (r *Repository) GetRecentQueries(limit int) ([]QueryLog, error) {
	var entries []QueryLog
	err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *Repository) GetQueriesBySymbol(symbol string, limit int) ([]QueryLog, error) {
	var entries []QueryLog
	err := r.db.Where("symbol = ?", symbol).
		Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *Repository) CountFailedQueries() (int64, error) {
	var n int64
	err := r.db.Model(&QueryLog{}).Where("error <> ''").Count(&n).Error
	return n, err
}

// Risk snapshots

func (r *Repository) SaveRiskSnapshot(snapshot *RiskSnapshot) error {
	return r.db.Create(snapshot).Error
}

// GetLatestRiskSnapshot returns nil without error when the symbol has no snapshot yet.
func (r *Repository) GetLatestRiskSnapshot(symbol string) (*RiskSnapshot, error) {
	var snapshot RiskSnapshot
	err := r.db.Where("symbol = ?", symbol).Order("created_at DESC, id DESC").First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetLatestAvailableRiskSnapshot skips snapshots recorded for a failed quote.
func (r *Repository) GetLatestAvailableRiskSnapshot(symbol string) (*RiskSnapshot, error) {
	var snapshot RiskSnapshot
	err := r.db.Where("symbol = ? AND error = ?", symbol, "").Order("created_at DESC, id DESC").First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *Repository) GetRecentRiskSnapshots(limit int) ([]RiskSnapshot, error) {
	var snapshots []RiskSnapshot
	err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&snapshots).Error
	return snapshots, err
}
