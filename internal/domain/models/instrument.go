package models

// Instrument is one tradable security in the scan universe.
// Live fields (price, change) are refreshed every cycle; static attributes
// (market cap, sector, average volume) are refreshed once per trading day.
type Instrument struct {
	AssetID        string
	Symbol         string
	Name           string
	Sector         string
	LastPrice      float64
	ChangePct      float64
	MarketCap      float64
	AvgDailyVolume float64
}

// StaticAttrs are the once-daily attributes fetched from the detail feed.
type StaticAttrs struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Sector         string  `json:"sector"`
	MarketCap      float64 `json:"market_cap"`
	AvgDailyVolume float64 `json:"avg_daily_volume"`
}
