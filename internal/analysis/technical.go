package analysis

import (
	"fmt"
	"math"

	"StockPulse/internal/domain/models"
)

// MinHistoryPoints is the smallest candle count the indicator engine
// accepts. Below it the slow EMA and ADX have no meaningful value.
const MinHistoryPoints = 26

// Indicator periods follow common charting defaults.
const (
	rsiPeriod     = 14
	rsiFastPeriod = 7
	stochPeriod   = 14
	stochSmooth   = 3
	macdFast      = 12
	macdSlow      = 26
	macdSignalLen = 9
	adxPeriod     = 14
	bbPeriod      = 20
	bbStdDev      = 2.0
	atrPeriod     = 14
	mfiPeriod     = 14
	smaShort      = 20
	smaLong       = 50
)

// ComputeIndicators derives the full indicator set from a candle
// series sorted oldest-first. Individual indicators that cannot be
// computed (short series, flat prices, non-finite intermediates) come
// back nil; the call only fails outright when the series is too short
// to compute anything.
func ComputeIndicators(points []models.PricePoint) (*models.IndicatorSet, error) {
	clean := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if usableBar(p) {
			clean = append(clean, p)
		}
	}
	if len(clean) < MinHistoryPoints {
		return nil, fmt.Errorf("insufficient history: %d usable points, need %d", len(clean), MinHistoryPoints)
	}
	points = clean

	n := len(points)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, p := range points {
		closes[i] = p.Close
		highs[i] = p.High
		lows[i] = p.Low
		volumes[i] = p.Volume
	}

	set := &models.IndicatorSet{
		Close:  closes[n-1],
		High:   highs[n-1],
		Low:    lows[n-1],
		Volume: volumes[n-1],
	}

	set.RSI = finite(rsi(closes, rsiPeriod))
	set.RSIFast = finite(rsi(closes, rsiFastPeriod))

	k, d, ok := stochastic(highs, lows, closes, stochPeriod, stochSmooth)
	if ok {
		set.StochK = finite(k, true)
		set.StochD = finite(d, true)
	}

	macdLine, signal, hist, ok := macd(closes, macdFast, macdSlow, macdSignalLen)
	if ok {
		set.MACD = finite(macdLine, true)
		set.MACDSignal = finite(signal, true)
		set.MACDHist = finite(hist, true)
	}

	set.ADX = finite(adx(highs, lows, closes, adxPeriod))

	upper, mid, lower, ok := bollinger(closes, bbPeriod, bbStdDev)
	if ok {
		set.BBUpper = finite(upper, true)
		set.BBMid = finite(mid, true)
		set.BBLower = finite(lower, true)
	}

	set.ATR = finite(atr(highs, lows, closes, atrPeriod))
	set.MFI = finite(mfi(highs, lows, closes, volumes, mfiPeriod))
	set.VWAP = finite(vwap(highs, lows, closes, volumes))
	set.SMA20 = finite(sma(closes, smaShort))
	set.SMA50 = finite(sma(closes, smaLong))
	set.EMA12 = finite(emaLast(closes, macdFast))
	set.EMA26 = finite(emaLast(closes, macdSlow))

	return set, nil
}

// usableBar reports whether a bar carries positive finite prices and a
// non-negative finite volume. Rows that fail are dropped before the
// minimum-history check rather than defaulted to zero.
func usableBar(p models.PricePoint) bool {
	for _, v := range []float64{p.Open, p.High, p.Low, p.Close} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.Volume >= 0 && !math.IsNaN(p.Volume) && !math.IsInf(p.Volume, 0)
}

// finite returns a pointer to v only when v is a finite number and the
// computation reported success.
func finite(v float64, ok bool) *float64 {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// sma returns the simple moving average of the trailing period.
func sma(values []float64, period int) (float64, bool) {
	if len(values) < period || period <= 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// emaSeries computes the exponential moving average seeded with the
// SMA of the first period values.
func emaSeries(values []float64, period int) ([]float64, bool) {
	if len(values) < period || period <= 0 {
		return nil, false
	}
	out := make([]float64, len(values)-period+1)
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	out[0] = seed / float64(period)
	alpha := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(values); i++ {
		out[i-period+1] = alpha*values[i] + (1-alpha)*out[i-period]
	}
	return out, true
}

func emaLast(values []float64, period int) (float64, bool) {
	series, ok := emaSeries(values, period)
	if !ok {
		return 0, false
	}
	return series[len(series)-1], true
}

// rsi computes the Wilder-smoothed relative strength index.
func rsi(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, true
		}
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// stochastic returns the smoothed %K and %D of a fast stochastic.
func stochastic(highs, lows, closes []float64, period, smooth int) (k, d float64, ok bool) {
	if len(closes) < period+2*smooth-2 {
		return 0, 0, false
	}
	raw := make([]float64, 0, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		hh := highs[i-period+1]
		ll := lows[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			raw = append(raw, 50)
			continue
		}
		raw = append(raw, (closes[i]-ll)/(hh-ll)*100)
	}

	kSeries := rollingMean(raw, smooth)
	dSeries := rollingMean(kSeries, smooth)
	if len(kSeries) == 0 || len(dSeries) == 0 {
		return 0, 0, false
	}
	return kSeries[len(kSeries)-1], dSeries[len(dSeries)-1], true
}

func rollingMean(values []float64, window int) []float64 {
	if len(values) < window || window <= 0 {
		return nil
	}
	out := make([]float64, 0, len(values)-window+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// macd returns the MACD line, signal line, and histogram.
func macd(closes []float64, fast, slow, signalLen int) (line, signal, hist float64, ok bool) {
	fastSeries, okF := emaSeries(closes, fast)
	slowSeries, okS := emaSeries(closes, slow)
	if !okF || !okS {
		return 0, 0, 0, false
	}
	// Align: the slow series starts slow-fast bars later.
	offset := len(fastSeries) - len(slowSeries)
	macdSeries := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdSeries[i] = fastSeries[i+offset] - slowSeries[i]
	}
	signalSeries, okSig := emaSeries(macdSeries, signalLen)
	if !okSig {
		// Not enough bars for a signal line; report the MACD line alone.
		last := macdSeries[len(macdSeries)-1]
		return last, 0, 0, false
	}
	line = macdSeries[len(macdSeries)-1]
	signal = signalSeries[len(signalSeries)-1]
	return line, signal, line - signal, true
}

// adx computes the Wilder average directional index.
func adx(highs, lows, closes []float64, period int) (float64, bool) {
	if len(closes) < 2*period+1 {
		return 0, false
	}

	n := len(closes)
	tr := make([]float64, n-1)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		tr[i-1] = trueRange(highs[i], lows[i], closes[i-1])
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	smTR := wilderSum(tr, period)
	smPlus := wilderSum(plusDM, period)
	smMinus := wilderSum(minusDM, period)

	dx := make([]float64, len(smTR))
	for i := range smTR {
		if smTR[i] == 0 {
			dx[i] = 0
			continue
		}
		pdi := 100 * smPlus[i] / smTR[i]
		mdi := 100 * smMinus[i] / smTR[i]
		if pdi+mdi == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
	}
	if len(dx) < period {
		return 0, false
	}

	// ADX is the Wilder moving average of DX.
	var adxVal float64
	for _, v := range dx[:period] {
		adxVal += v
	}
	adxVal /= float64(period)
	for _, v := range dx[period:] {
		adxVal = (adxVal*float64(period-1) + v) / float64(period)
	}
	return adxVal, true
}

// wilderSum produces the Wilder smoothed running sum series.
func wilderSum(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	out := make([]float64, len(values)-period+1)
	var sum float64
	for _, v := range values[:period] {
		sum += v
	}
	out[0] = sum
	for i := period; i < len(values); i++ {
		sum = sum - sum/float64(period) + values[i]
		out[i-period+1] = sum
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if d := math.Abs(high - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// bollinger returns the upper, middle, and lower bands.
func bollinger(closes []float64, period int, stdDevs float64) (upper, mid, lower float64, ok bool) {
	mid, ok = sma(closes, period)
	if !ok {
		return 0, 0, 0, false
	}
	var variance float64
	for _, v := range closes[len(closes)-period:] {
		d := v - mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return mid + stdDevs*sd, mid, mid - stdDevs*sd, true
}

// atr computes the Wilder average true range.
func atr(highs, lows, closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	var sum float64
	for i := 1; i <= period; i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	val := sum / float64(period)
	for i := period + 1; i < len(closes); i++ {
		val = (val*float64(period-1) + trueRange(highs[i], lows[i], closes[i-1])) / float64(period)
	}
	return val, true
}

// mfi computes the money flow index over the trailing period.
func mfi(highs, lows, closes, volumes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	start := len(closes) - period
	var posFlow, negFlow float64
	for i := start; i < len(closes); i++ {
		tp := (highs[i] + lows[i] + closes[i]) / 3
		prevTP := (highs[i-1] + lows[i-1] + closes[i-1]) / 3
		flow := tp * volumes[i]
		if tp > prevTP {
			posFlow += flow
		} else if tp < prevTP {
			negFlow += flow
		}
	}
	if negFlow == 0 {
		if posFlow == 0 {
			return 50, true
		}
		return 100, true
	}
	ratio := posFlow / negFlow
	return 100 - 100/(1+ratio), true
}

// vwap computes the session volume-weighted average price across the
// whole series.
func vwap(highs, lows, closes, volumes []float64) (float64, bool) {
	var pv, vol float64
	for i := range closes {
		tp := (highs[i] + lows[i] + closes[i]) / 3
		pv += tp * volumes[i]
		vol += volumes[i]
	}
	if vol == 0 {
		return 0, false
	}
	return pv / vol, true
}
