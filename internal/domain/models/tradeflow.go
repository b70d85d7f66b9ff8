package models

// TradePatterns are boolean flags derived from the recent trade tape.
type TradePatterns struct {
	InstitutionalBuying  bool `json:"institutional_buying"`
	InstitutionalSelling bool `json:"institutional_selling"`
	RetailAccumulation   bool `json:"retail_accumulation"`
	RetailDistribution   bool `json:"retail_distribution"`
	VolumeSurge          bool `json:"volume_surge"`
}

// TradeFlow holds flow metrics for one instrument and cycle. An empty tape
// yields the zero value.
type TradeFlow struct {
	BuyPressure        float64       `json:"buy_pressure"`
	SellPressure       float64       `json:"sell_pressure"`
	InstitutionalRatio float64       `json:"institutional_ratio"`
	PriceImpact        float64       `json:"price_impact"`
	Patterns           TradePatterns `json:"patterns"`
	TotalTrades        int           `json:"total_trades"`
}
