package market

import "time"

type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// PriceSeries is ordered by date, oldest first.
type PriceSeries []PricePoint

type metaData struct {
	Symbol   string `json:"2. Symbol"`
	TimeZone string `json:"6. Time Zone"`
}

type intradayBar struct {
	Open string `json:"1. open"`
}

type dailyBar struct {
	Close string `json:"4. close"`
}
