package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/upstream"
)

// DefaultRugCheckURL is the public RugCheck API.
const DefaultRugCheckURL = "https://api.rugcheck.xyz"

// LP lock thresholds, in percent of LP tokens.
const (
	LPLockedPct = 50.0
	LPBurnedPct = 99.0
)

// Holder labels.
const (
	LabelProgram = "program"
	labelAMM     = "AMM"
)

// RugCheck maps RugCheck token reports into security snapshots.
type RugCheck struct {
	baseURL string
	http    *upstream.Client
}

// NewRugCheck creates a client against baseURL (DefaultRugCheckURL when empty).
func NewRugCheck(baseURL string, opts ...upstream.Option) *RugCheck {
	if baseURL == "" {
		baseURL = DefaultRugCheckURL
	}
	return &RugCheck{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    upstream.New("rugcheck", opts...),
	}
}

// Name identifies the source in logs.
func (r *RugCheck) Name() string { return "rugcheck" }

// Security fetches the token report for mint.
func (r *RugCheck) Security(ctx context.Context, mint string) (*domain.TokenSecuritySnapshot, error) {
	endpoint := fmt.Sprintf("%s/v1/tokens/%s/report", r.baseURL, url.PathEscape(mint))

	var rep rugReport
	if err := r.http.GetJSON(ctx, endpoint, nil, &rep); err != nil {
		return nil, fmt.Errorf("rugcheck report %s: %w", mint, err)
	}
	return rep.snapshot(), nil
}

type rugReport struct {
	Mint            string                     `json:"mint"`
	MintAuthority   *string                    `json:"mintAuthority"`
	FreezeAuthority *string                    `json:"freezeAuthority"`
	TopHolders      []rugHolder                `json:"topHolders"`
	KnownAccounts   map[string]rugKnownAccount `json:"knownAccounts"`
	Markets         []rugMarket                `json:"markets"`
	Risks           []rugRisk                  `json:"risks"`
	Rugged          bool                       `json:"rugged"`
}

type rugHolder struct {
	Address string  `json:"address"`
	Owner   string  `json:"owner"`
	Pct     float64 `json:"pct"`
	Insider bool    `json:"insider"`
}

type rugKnownAccount struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rugMarket struct {
	MarketType string `json:"marketType"`
	LP         *struct {
		LPLockedPct float64 `json:"lpLockedPct"`
	} `json:"lp"`
}

type rugRisk struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Score       int    `json:"score"`
}

func authorityState(v *string) domain.AuthorityState {
	if v == nil || *v == "" {
		return domain.AuthorityRevoked
	}
	return domain.AuthorityActive
}

func (rep *rugReport) snapshot() *domain.TokenSecuritySnapshot {
	s := &domain.TokenSecuritySnapshot{
		MintAuthority:   authorityState(rep.MintAuthority),
		FreezeAuthority: authorityState(rep.FreezeAuthority),
		Source:          domain.SecuritySourceRugCheck,
	}

	for _, h := range rep.TopHolders {
		owner := h.Owner
		if owner == "" {
			owner = h.Address
		}
		rec := domain.HolderRecord{Owner: owner, Percent: h.Pct, Insider: h.Insider}
		if ka, ok := rep.knownAccount(h.Owner, h.Address); ok {
			rec.Label = ka.Name
			if ka.Type == labelAMM {
				rec.Label = LabelProgram
			}
		}
		s.Holders = append(s.Holders, rec)
	}
	s.TopHolderPct, s.Top10HolderPct = concentration(s.Holders)

	var locked float64
	for _, m := range rep.Markets {
		if m.LP != nil && m.LP.LPLockedPct > locked {
			locked = m.LP.LPLockedPct
		}
	}
	s.LiquidityLocked = locked >= LPLockedPct
	s.LPBurned = locked >= LPBurnedPct

	s.Honeypot = rep.Rugged
	for _, r := range rep.Risks {
		if strings.Contains(strings.ToLower(r.Name), "honeypot") {
			s.Honeypot = true
		}
	}
	return s
}

func (rep *rugReport) knownAccount(keys ...string) (rugKnownAccount, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if ka, ok := rep.KnownAccounts[k]; ok {
			return ka, true
		}
	}
	return rugKnownAccount{}, false
}

// concentration returns the largest holder share and the top-10 sum, skipping
// holders labelled as program accounts (pool vaults, bonding curves).
func concentration(holders []domain.HolderRecord) (top, top10 float64) {
	sorted := make([]domain.HolderRecord, 0, len(holders))
	for _, h := range holders {
		if h.Label != LabelProgram {
			sorted = append(sorted, h)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Percent > sorted[j].Percent })

	for i, h := range sorted {
		if i == 0 {
			top = h.Percent
		}
		if i < 10 {
			top10 += h.Percent
		}
	}
	return top, top10
}

var _ risk.SecuritySource = (*RugCheck)(nil)
