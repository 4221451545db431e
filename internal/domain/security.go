package domain

// AuthorityState describes whether a mint-level authority has been given up.
type AuthorityState string

const (
	AuthorityRevoked AuthorityState = "revoked"
	AuthorityActive  AuthorityState = "active"
	AuthorityUnknown AuthorityState = "unknown"
)

// Security snapshot sources.
const (
	SecuritySourceRugCheck = "rugcheck"
	SecuritySourceRPC      = "rpc"
)

// HolderRecord is one entry of the largest-holders list.
type HolderRecord struct {
	Owner   string  `json:"owner"`
	Percent float64 `json:"percent"` // percent of supply, 0..100
	Label   string  `json:"label,omitempty"`
	Insider bool    `json:"insider"`
}

// TokenSecuritySnapshot is the on-chain security view of a token.
type TokenSecuritySnapshot struct {
	MintAuthority   AuthorityState `json:"mintAuthority"`
	FreezeAuthority AuthorityState `json:"freezeAuthority"`
	TopHolderPct    float64        `json:"topHolderPct"`
	Top10HolderPct  float64        `json:"top10HolderPct"`
	Holders         []HolderRecord `json:"holders"` // largest first
	LPBurned        bool           `json:"lpBurned"`
	LiquidityLocked bool           `json:"liquidityLocked"`
	Honeypot        bool           `json:"honeypot"`
	Source          string         `json:"source,omitempty"` // empty when no collaborator answered
}

// ChecksHoneypot reports whether the source simulates trades. The RPC source
// only reads accounts, so a false Honeypot from it means "not checked".
func (s *TokenSecuritySnapshot) ChecksHoneypot() bool {
	return s.Source == SecuritySourceRugCheck
}

// ChecksLiquidityLock reports whether the source knows the LP lock state.
func (s *TokenSecuritySnapshot) ChecksLiquidityLock() bool {
	return s.Source == SecuritySourceRugCheck
}

// HasHolderData reports whether holder concentration was observed at all.
func (s *TokenSecuritySnapshot) HasHolderData() bool {
	return len(s.Holders) > 0 || s.TopHolderPct > 0
}

// UnknownSecurity is the snapshot used when no security collaborator is reachable.
// Authorities are unknown and every flag is false; nothing is simulated.
func UnknownSecurity() *TokenSecuritySnapshot {
	return &TokenSecuritySnapshot{
		MintAuthority:   AuthorityUnknown,
		FreezeAuthority: AuthorityUnknown,
	}
}
