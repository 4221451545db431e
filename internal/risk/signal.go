package risk

import (
	"fmt"
	"time"

	"solana-token-sentinel/internal/domain"
)

// Signal thresholds.
const (
	AvoidRiskScore    = 75
	ElevatedRiskScore = 50
	LowRiskScore      = 25
	signalBaseline    = 50
)

// deriveSignal applies the short-circuit rules, then the point-based fallback.
// Reasons are appended in evaluation order.
func deriveSignal(m *domain.TokenMarketSnapshot, riskScore int, now time.Time) (domain.Signal, []string) {
	h24 := m.PriceChange.H24
	h1 := m.PriceChange.H1

	switch {
	case riskScore >= AvoidRiskScore:
		return domain.SignalAvoid, []string{fmt.Sprintf("Critical risk score (%d/100)", riskScore)}
	case h24 < -30 && riskScore > ElevatedRiskScore:
		return domain.SignalStrongSell, []string{
			fmt.Sprintf("Price down %.1f%% in 24h with elevated risk (%d/100)", h24, riskScore),
		}
	case h24 < -15 && h1 < -5:
		return domain.SignalSell, []string{
			fmt.Sprintf("Downtrend: %.1f%% in 24h and %.1f%% in 1h", h24, h1),
		}
	}

	points := signalBaseline
	var reasons []string
	add := func(delta int, format string, args ...interface{}) {
		points += delta
		reasons = append(reasons, fmt.Sprintf(format, args...))
	}

	age, ageKnown := m.Age(now)
	liq := m.LiquidityUSD

	if riskScore <= LowRiskScore {
		add(15, "Low risk profile (%d/100)", riskScore)
	}
	if h24 >= 10 && h24 <= 80 {
		add(10, "Healthy 24h uptrend (+%.1f%%)", h24)
	}
	if h1 >= 2 && h1 <= 30 {
		add(5, "Short-term momentum (+%.1f%% 1h)", h1)
	}
	if liq > 0 {
		if r := m.Volume24h / liq; r >= 0.5 && r <= 10 {
			add(5, "Healthy volume/liquidity ratio (%.1fx)", r)
		}
	}
	if float64(m.Buys24h) > 1.3*float64(m.Sells24h) {
		add(10, "Buy pressure (%d buys vs %d sells)", m.Buys24h, m.Sells24h)
	}
	if ageKnown && age > 168*time.Hour && m.MarketCap > 500_000 {
		add(5, "Established token")
	}
	if liq > 100_000 {
		add(5, "Solid liquidity ($%.0f)", liq)
	}
	if riskScore > ElevatedRiskScore {
		add(-20, "Elevated risk (%d/100)", riskScore)
	}
	if h24 > 200 {
		add(-10, "Parabolic move (+%.1f%% 24h)", h24)
	}
	if liq < 10_000 {
		add(-10, "Low liquidity ($%.0f)", liq)
	}
	if ageKnown && age < 6*time.Hour {
		add(-10, "Very new token (%.1f hours)", age.Hours())
	}
	if float64(m.Sells24h) > 1.5*float64(m.Buys24h) {
		add(-10, "Heavy sell pressure (%d sells vs %d buys)", m.Sells24h, m.Buys24h)
	}

	return signalBucket(points), reasons
}

func signalBucket(points int) domain.Signal {
	switch {
	case points >= 80:
		return domain.SignalStrongBuy
	case points >= 60:
		return domain.SignalBuy
	case points >= 40:
		return domain.SignalHold
	case points >= 25:
		return domain.SignalSell
	default:
		return domain.SignalStrongSell
	}
}
