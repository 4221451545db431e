package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/risk"
	"solana-token-sentinel/internal/solana"
)

var (
	// ErrMintNotFound is returned when the mint account does not exist.
	ErrMintNotFound = errors.New("mint account not found")
	// ErrNotMint is returned when the account is not owned by a token program.
	ErrNotMint = errors.New("account is not an SPL token mint")
)

// OnChain builds security snapshots straight from Solana JSON-RPC.
// It cannot see LP locks or honeypot behaviour, so those flags stay false.
type OnChain struct {
	rpc    solana.RPCClient
	logger zerolog.Logger
}

// OnChainOption configures OnChain.
type OnChainOption func(*OnChain)

// WithOnChainLogger sets the logger for best-effort lookups that fail.
func WithOnChainLogger(l zerolog.Logger) OnChainOption {
	return func(o *OnChain) {
		o.logger = l
	}
}

// NewOnChain creates an RPC-backed security source.
func NewOnChain(rpc solana.RPCClient, opts ...OnChainOption) *OnChain {
	o := &OnChain{rpc: rpc, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name identifies the source in logs.
func (o *OnChain) Name() string { return "rpc" }

// Security decodes the mint account for authorities and derives holder
// shares from the largest token accounts. Holder data is best effort.
func (o *OnChain) Security(ctx context.Context, mint string) (*domain.TokenSecuritySnapshot, error) {
	var (
		info    *solana.AccountInfo
		largest []solana.TokenAccountBalance
		supply  *solana.TokenAmount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = o.rpc.GetAccountInfo(gctx, mint)
		if err != nil {
			return fmt.Errorf("get mint account: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if largest, err = o.rpc.GetTokenLargestAccounts(gctx, mint); err != nil {
			o.logger.Warn().Err(err).Str("mint", mint).Msg("largest accounts unavailable, holder data omitted")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if supply, err = o.rpc.GetTokenSupply(gctx, mint); err != nil {
			o.logger.Debug().Err(err).Str("mint", mint).Msg("token supply unavailable, using mint account supply")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}
	if info.Owner != solana.TokenProgramID && info.Owner != solana.Token2022ProgramID {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrNotMint, mint, info.Owner)
	}

	m, err := solana.DecodeMint(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode mint %s: %w", mint, err)
	}

	s := &domain.TokenSecuritySnapshot{
		MintAuthority:   domain.AuthorityRevoked,
		FreezeAuthority: domain.AuthorityRevoked,
		Source:          domain.SecuritySourceRPC,
	}
	if m.MintAuthority != "" {
		s.MintAuthority = domain.AuthorityActive
	}
	if m.FreezeAuthority != "" {
		s.FreezeAuthority = domain.AuthorityActive
	}

	total := m.UISupply()
	if supply != nil && supply.UIAmount > 0 {
		total = supply.UIAmount
	}
	if total > 0 && len(largest) > 0 {
		s.Holders = o.holders(ctx, largest, total)
		s.TopHolderPct, s.Top10HolderPct = concentration(s.Holders)
	}
	return s, nil
}

// holders converts token accounts into holder records keyed by owner wallet.
// Owners that are program derived addresses are labelled as programs.
func (o *OnChain) holders(ctx context.Context, accounts []solana.TokenAccountBalance, total float64) []domain.HolderRecord {
	addrs := make([]string, len(accounts))
	for i, a := range accounts {
		addrs[i] = a.Address
	}
	owners, err := o.rpc.GetTokenAccountOwners(ctx, addrs)
	if err != nil {
		o.logger.Debug().Err(err).Msg("token account owners unavailable, keying holders by account")
		owners = nil
	}

	out := make([]domain.HolderRecord, 0, len(accounts))
	for i, a := range accounts {
		owner := a.Address
		resolved := false
		if i < len(owners) && owners[i] != "" {
			owner = owners[i]
			resolved = true
		}
		rec := domain.HolderRecord{
			Owner:   owner,
			Percent: a.Amount.UIAmount / total * 100,
		}
		if resolved && solana.IsProgramAddress(owner) {
			rec.Label = LabelProgram
		}
		out = append(out, rec)
	}
	return out
}

var _ risk.SecuritySource = (*OnChain)(nil)
