package models

import "time"

// Requests and rows for the read API. Defined in domain for consistency and reuse.

type RecommendationsRequest struct {
	MinStrength float64 `query:"min_strength" json:"min_strength" default:"0.7" validate:"gte=0,lte=1"`
	Limit       int     `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type PerformanceRequest struct {
	MinStrength float64 `query:"min_strength" json:"min_strength" default:"0.7" validate:"gte=0,lte=1"`
}

// Recommendation is one stored signal row served by the read API.
type Recommendation struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	Price      float64   `json:"recommended_price"`
	SignalType string    `json:"signal_type"`
	Strength   float64   `json:"signal_strength"`
	EntryPrice float64   `json:"buy_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"target"`
}
