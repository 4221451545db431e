// Package risk scores a token's market and security snapshots into a 0..100 risk
// score, a list of named factors and a trade signal.
package risk

import (
	"fmt"
	"strings"
	"time"

	"solana-token-sentinel/internal/domain"
)

// Factor names, in evaluation order.
const (
	FactorTokenAge        = "Token Age"
	FactorLiquidity       = "Liquidity"
	FactorVolumeMCap      = "Volume/MCap"
	FactorSellPressure    = "Sell Pressure"
	FactorPriceAction     = "Price Action 24h"
	FactorMintAuthority   = "Mint Authority"
	FactorFreezeAuthority = "Freeze Authority"
	FactorLiquidityLock   = "Liquidity Lock"
	FactorTopHolder       = "Top Holder %"
	FactorHoneypot        = "Honeypot"
)

// MinSellPressureTxns is the 24h transaction count below which sell pressure is not judged.
const MinSellPressureTxns = 10

// evaluateFactors returns every factor in evaluation order. Passing factors carry weight 0.
func evaluateFactors(m *domain.TokenMarketSnapshot, s *domain.TokenSecuritySnapshot, now time.Time) []domain.RiskFactor {
	return []domain.RiskFactor{
		ageFactor(m, now),
		liquidityFactor(m),
		volumeMCapFactor(m),
		sellPressureFactor(m),
		priceActionFactor(m),
		authorityFactor(FactorMintAuthority, "Mint", s.MintAuthority, 20),
		authorityFactor(FactorFreezeAuthority, "Freeze", s.FreezeAuthority, 15),
		liquidityLockFactor(s),
		topHolderFactor(s),
		honeypotFactor(s),
	}
}

func factor(name string, status domain.FactorStatus, weight int, format string, args ...interface{}) domain.RiskFactor {
	return domain.RiskFactor{
		Name:   name,
		Status: status,
		Detail: fmt.Sprintf(format, args...),
		Weight: weight,
	}
}

func ageFactor(m *domain.TokenMarketSnapshot, now time.Time) domain.RiskFactor {
	age, ok := m.Age(now)
	switch {
	case !ok:
		// Unknown age is treated like a token under a day old.
		return factor(FactorTokenAge, domain.FactorWarn, 12, "Pair creation time unknown")
	case age < time.Hour:
		return factor(FactorTokenAge, domain.FactorFail, 20, "Created %d minutes ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return factor(FactorTokenAge, domain.FactorWarn, 12, "Created %.1f hours ago", age.Hours())
	case age < 72*time.Hour:
		return factor(FactorTokenAge, domain.FactorWarn, 5, "Created %.1f days ago", age.Hours()/24)
	default:
		return factor(FactorTokenAge, domain.FactorPass, 0, "Established %d days", int(age.Hours()/24))
	}
}

func liquidityFactor(m *domain.TokenMarketSnapshot) domain.RiskFactor {
	liq := m.LiquidityUSD
	switch {
	case liq < 1_000:
		return factor(FactorLiquidity, domain.FactorFail, 25, "Extremely low liquidity ($%.0f)", liq)
	case liq < 10_000:
		return factor(FactorLiquidity, domain.FactorWarn, 15, "Low liquidity ($%.0f)", liq)
	case liq < 50_000:
		return factor(FactorLiquidity, domain.FactorWarn, 5, "Moderate liquidity ($%.0f)", liq)
	default:
		return factor(FactorLiquidity, domain.FactorPass, 0, "Healthy liquidity ($%.0f)", liq)
	}
}

func volumeMCapFactor(m *domain.TokenMarketSnapshot) domain.RiskFactor {
	if m.MarketCap <= 0 {
		return factor(FactorVolumeMCap, domain.FactorPass, 0, "Market cap unavailable")
	}
	ratio := m.Volume24h / m.MarketCap
	switch {
	case ratio > 5:
		return factor(FactorVolumeMCap, domain.FactorWarn, 10, "Volume %.1fx market cap, possible wash trading", ratio)
	case ratio < 0.01 && m.MarketCap > 100_000:
		return factor(FactorVolumeMCap, domain.FactorWarn, 8, "Very low trading activity (%.3fx market cap)", ratio)
	default:
		return factor(FactorVolumeMCap, domain.FactorPass, 0, "Volume %.2fx market cap", ratio)
	}
}

func sellPressureFactor(m *domain.TokenMarketSnapshot) domain.RiskFactor {
	total := m.TotalTxns24h()
	if total < MinSellPressureTxns {
		return factor(FactorSellPressure, domain.FactorPass, 0, "Too few transactions to judge (%d)", total)
	}
	ratio := float64(m.Sells24h) / float64(total)
	switch {
	case ratio > 0.7:
		return factor(FactorSellPressure, domain.FactorFail, 15, "Heavy selling (%.0f%% sells)", ratio*100)
	case ratio > 0.55:
		return factor(FactorSellPressure, domain.FactorWarn, 5, "Elevated selling (%.0f%% sells)", ratio*100)
	default:
		return factor(FactorSellPressure, domain.FactorPass, 0, "Balanced order flow (%.0f%% sells)", ratio*100)
	}
}

func priceActionFactor(m *domain.TokenMarketSnapshot) domain.RiskFactor {
	ch := m.PriceChange.H24
	switch {
	case ch < -50:
		return factor(FactorPriceAction, domain.FactorFail, 15, "Price collapsed %.1f%% in 24h", ch)
	case ch < -20:
		return factor(FactorPriceAction, domain.FactorWarn, 8, "Price down %.1f%% in 24h", ch)
	case ch > 100:
		return factor(FactorPriceAction, domain.FactorWarn, 5, "Price up %.1f%% in 24h, parabolic", ch)
	default:
		return factor(FactorPriceAction, domain.FactorPass, 0, "Price change %.1f%% in 24h", ch)
	}
}

// authorityFactor charges the full weight and fails anything but a confirmed
// revocation. An unknown state says so in the detail.
func authorityFactor(name, label string, state domain.AuthorityState, weight int) domain.RiskFactor {
	switch state {
	case domain.AuthorityRevoked:
		return factor(name, domain.FactorPass, 0, "%s authority revoked", label)
	case domain.AuthorityActive:
		return factor(name, domain.FactorFail, weight, "%s authority is active", label)
	default:
		return factor(name, domain.FactorFail, weight, "Unable to verify %s authority", strings.ToLower(label))
	}
}

func liquidityLockFactor(s *domain.TokenSecuritySnapshot) domain.RiskFactor {
	switch {
	case s.LPBurned:
		return factor(FactorLiquidityLock, domain.FactorPass, 0, "LP tokens burned")
	case s.LiquidityLocked:
		return factor(FactorLiquidityLock, domain.FactorPass, 0, "Liquidity locked")
	case !s.ChecksLiquidityLock():
		return factor(FactorLiquidityLock, domain.FactorWarn, 10, "Unable to verify liquidity lock")
	default:
		return factor(FactorLiquidityLock, domain.FactorWarn, 10, "Liquidity not locked")
	}
}

func topHolderFactor(s *domain.TokenSecuritySnapshot) domain.RiskFactor {
	pct := s.TopHolderPct
	switch {
	case pct > 30:
		return factor(FactorTopHolder, domain.FactorFail, 15, "Top holder owns %.1f%%", pct)
	case pct > 15:
		return factor(FactorTopHolder, domain.FactorWarn, 8, "Top holder owns %.1f%%", pct)
	case !s.HasHolderData():
		return factor(FactorTopHolder, domain.FactorPass, 0, "Holder data unavailable")
	default:
		return factor(FactorTopHolder, domain.FactorPass, 0, "Top holder owns %.1f%%", pct)
	}
}

func honeypotFactor(s *domain.TokenSecuritySnapshot) domain.RiskFactor {
	if s.Honeypot {
		return factor(FactorHoneypot, domain.FactorFail, 25, "Honeypot indicators detected")
	}
	if !s.ChecksHoneypot() {
		return factor(FactorHoneypot, domain.FactorPass, 0, "Honeypot check unavailable")
	}
	return factor(FactorHoneypot, domain.FactorPass, 0, "No honeypot indicators")
}

// score sums factor weights and clamps to [0,100].
func score(factors []domain.RiskFactor) int {
	total := 0
	for _, f := range factors {
		total += f.Weight
	}
	return clamp(total, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
