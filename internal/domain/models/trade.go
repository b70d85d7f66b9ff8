package models

import "time"

// TradeSide is the executed side of a trade as reported by the tape.
type TradeSide string

const (
	SideBuy     TradeSide = "BUY"
	SideSell    TradeSide = "SELL"
	SideUnknown TradeSide = "UNKNOWN"
)

// Trade is one executed trade from the recent-trades feed, already
// normalized at the ingestion boundary: Value is always populated (explicit
// notional or price*volume) and Side is one of the three constants.
type Trade struct {
	Side   TradeSide
	Price  float64
	Volume float64
	Value  float64
	Time   time.Time // zero when the feed omitted a timestamp
}

// DepthSnapshot aggregates the order book for one instrument and cycle.
// Zero-valued on fetch failure.
type DepthSnapshot struct {
	BidVolume float64 `json:"bid_volume"`
	AskVolume float64 `json:"ask_volume"`
	Spread    float64 `json:"spread"`
}
