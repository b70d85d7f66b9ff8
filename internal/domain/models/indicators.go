package models

// IndicatorSet holds the derived indicators for one instrument and cycle.
// A nil pointer means the indicator could not be computed from the series;
// values that are present are always finite.
type IndicatorSet struct {
	RSI        *float64 `json:"rsi"`
	RSIFast    *float64 `json:"rsi_fast"`
	StochK     *float64 `json:"stoch_k"`
	StochD     *float64 `json:"stoch_d"`
	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_hist"`
	ADX        *float64 `json:"adx"`
	BBUpper    *float64 `json:"bb_upper"`
	BBMid      *float64 `json:"bb_mid"`
	BBLower    *float64 `json:"bb_lower"`
	ATR        *float64 `json:"atr"`
	MFI        *float64 `json:"mfi"`
	VWAP       *float64 `json:"vwap"`
	SMA20      *float64 `json:"sma_20"`
	SMA50      *float64 `json:"sma_50"`
	EMA12      *float64 `json:"ema_12"`
	EMA26      *float64 `json:"ema_26"`

	// Pass-through fields from the last bar of the series.
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}
