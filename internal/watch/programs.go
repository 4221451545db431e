// Package watch listens for token launches on Solana and analyses new mints.
package watch

import (
	"strings"

	"solana-token-sentinel/internal/solana"
)

// Program is a launch venue and the log lines that mark a launch in it.
type Program struct {
	Name    string
	ID      string
	Markers []string // substring matches against log messages
}

// Known launch venues.
var (
	PumpFun = Program{
		Name:    "pumpfun",
		ID:      solana.PumpFunProgramID,
		Markers: []string{"Program log: Instruction: Create"},
	}
	RaydiumAMMv4 = Program{
		Name:    "raydium",
		ID:      solana.RaydiumAMMv4,
		Markers: []string{"initialize2"},
	}
)

// DefaultPrograms returns the venues watched when none are configured.
func DefaultPrograms() []Program {
	return []Program{PumpFun, RaydiumAMMv4}
}

// ProgramsByName resolves venue names such as "pumpfun" and "raydium".
// Unknown names are returned separately.
func ProgramsByName(names []string) (programs []Program, unknown []string) {
	known := map[string]Program{
		PumpFun.Name:      PumpFun,
		RaydiumAMMv4.Name: RaydiumAMMv4,
	}
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		p, ok := known[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		programs = append(programs, p)
	}
	return programs, unknown
}

// IsLaunch reports whether any log line contains one of the program's markers.
func (p Program) IsLaunch(logs []string) bool {
	for _, line := range logs {
		for _, marker := range p.Markers {
			if strings.Contains(line, marker) {
				return true
			}
		}
	}
	return false
}

// NewMints returns the distinct mints in the transaction's post token
// balances in first-seen order, skipping wrapped SOL.
func NewMints(tx *solana.Transaction) []string {
	if tx == nil || tx.Meta == nil {
		return nil
	}
	seen := make(map[string]bool)
	var mints []string
	for _, bal := range tx.Meta.PostTokenBalances {
		if bal.Mint == "" || bal.Mint == solana.WrappedSOLMint || seen[bal.Mint] {
			continue
		}
		seen[bal.Mint] = true
		mints = append(mints, bal.Mint)
	}
	return mints
}
