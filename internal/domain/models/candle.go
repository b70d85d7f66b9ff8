package models

import (
	"sort"
	"time"
)

// PricePoint is a single OHLCV bar from the historical chart feed.
type PricePoint struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// SortPricePoints orders a series time-ascending in place.
func SortPricePoints(ps []PricePoint) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Time.Before(ps[j].Time) })
}
