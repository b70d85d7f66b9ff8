package telegram

import (
	"fmt"
	"strings"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// FormatSignalMessage builds the Markdown signal card broadcast to
// subscribers.
func FormatSignalMessage(sig *models.Signal) string {
	rsi := deref(sig.Indicators.RSI)
	macd := deref(sig.Indicators.MACD)
	atr := deref(sig.Indicators.ATR)

	riskReward := 0.0
	if dist := sig.Risk.EntryPrice - sig.Risk.StopLoss; dist > 0 {
		riskReward = (sig.Risk.TakeProfit - sig.Risk.EntryPrice) / dist
	}

	sigType := strings.ReplaceAll(string(sig.Type), "_", " ")

	var b strings.Builder
	fmt.Fprintf(&b, "\U0001F680 *%s SIGNAL*\n", sigType)
	fmt.Fprintf(&b, "*%s (%s)*\n\n", sig.Name, sig.Symbol)
	fmt.Fprintf(&b, "\U0001F4B0 *Price:* `%.2f EGP`\n", sig.Price)
	fmt.Fprintf(&b, "\U0001F4CA *Change:* `%.2f%%`\n", sig.ChangePct)
	fmt.Fprintf(&b, "\U0001F3E2 *Market Cap:* `%s`\n", util.FormatMarketCap(sig.MarketCap))
	fmt.Fprintf(&b, "\U0001F3ED *Sector:* %s\n\n", sig.Sector)
	fmt.Fprintf(&b, "\U0001F4CA *Technical Indicators:*\n")
	fmt.Fprintf(&b, "• RSI(14): `%.1f`\n", rsi)
	fmt.Fprintf(&b, "• MACD: `%.3f`\n", macd)
	fmt.Fprintf(&b, "• ATR: `%.2f`\n\n", atr)
	fmt.Fprintf(&b, "\U0001F3AF *Signal Strength:* `%s`\n", strengthLabel(sig.Strength))
	fmt.Fprintf(&b, "• Technical: `%d`\n", sig.Scores.Technical)
	fmt.Fprintf(&b, "• Trade Flow: `%d/2`\n", sig.Scores.TradeFlow)
	fmt.Fprintf(&b, "• Market Depth: `%d/2`\n\n", sig.Scores.MarketDepth)
	fmt.Fprintf(&b, "\U0001F3AF *Exit Strategy:*\n")
	fmt.Fprintf(&b, "\U0001F535 *Entry:* `%.2f EGP`\n", sig.Risk.EntryPrice)
	fmt.Fprintf(&b, "\U0001F534 *Stop-Loss:* `%.2f EGP`\n", sig.Risk.StopLoss)
	fmt.Fprintf(&b, "\U0001F7E2 *Take-Profit:* `%.2f EGP`\n", sig.Risk.TakeProfit)
	fmt.Fprintf(&b, "\U0001F4CF *Risk/Reward:* `1:%.1f`", riskReward)
	return b.String()
}

// strengthLabel mirrors the strength buckets used in alert cards.
func strengthLabel(v float64) string {
	switch {
	case v >= 0.8:
		return fmt.Sprintf("Strong (%.0f%%)", v*100)
	case v >= 0.6:
		return fmt.Sprintf("Good (%.0f%%)", v*100)
	case v >= 0.4:
		return fmt.Sprintf("Moderate (%.0f%%)", v*100)
	default:
		return fmt.Sprintf("Weak (%.0f%%)", v*100)
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
