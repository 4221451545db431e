package domain

import "time"

// FactorStatus is the qualitative outcome of one risk factor.
type FactorStatus string

const (
	FactorPass FactorStatus = "pass"
	FactorWarn FactorStatus = "warn"
	FactorFail FactorStatus = "fail"
)

// RiskFactor is one evaluated risk category and its contribution to the score.
type RiskFactor struct {
	Name   string       `json:"name"`
	Status FactorStatus `json:"status"`
	Detail string       `json:"detail"`
	Weight int          `json:"weight"`
}

// RiskLevel buckets a 0..100 risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevelFor maps a score to its level. Bounds are inclusive: 25 is LOW, 26 is MEDIUM.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score <= 25:
		return RiskLow
	case score <= 50:
		return RiskMedium
	case score <= 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Signal is the discrete trade signal derived from risk and market action.
type Signal string

const (
	SignalStrongBuy  Signal = "STRONG_BUY"
	SignalBuy        Signal = "BUY"
	SignalHold       Signal = "HOLD"
	SignalSell       Signal = "SELL"
	SignalStrongSell Signal = "STRONG_SELL"
	SignalAvoid      Signal = "AVOID"
)

// TokenAnalysisResult aggregates both snapshots with the derived risk and signal.
// A result is never mutated after it is built; cached copies are shared.
type TokenAnalysisResult struct {
	Market        *TokenMarketSnapshot   `json:"market"`
	Security      *TokenSecuritySnapshot `json:"security"`
	RiskScore     int                    `json:"riskScore"`
	RiskLevel     RiskLevel              `json:"riskLevel"`
	Factors       []RiskFactor           `json:"factors"`
	Signal        Signal                 `json:"signal"`
	SignalReasons []string               `json:"signalReasons"`
	Honeypot      bool                   `json:"honeypot"`
	LastChecked   time.Time              `json:"lastChecked"`
}

// Mint returns the analysed mint address.
func (r *TokenAnalysisResult) Mint() string {
	if r == nil || r.Market == nil {
		return ""
	}
	return r.Market.Mint
}
