// Package solana is a minimal Solana JSON-RPC and logs-subscription client
// covering the calls needed to inspect SPL token mints.
package solana

import "context"

// RPCClient defines the Solana JSON-RPC calls used by the service.
type RPCClient interface {
	// GetAccountInfo returns the account at pubkey, or nil if it does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetTokenLargestAccounts returns the largest token accounts of a mint, largest first.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)

	// GetTokenSupply returns the total supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetTokenAccountOwners resolves the owner wallet of each token account.
	// Unknown accounts map to "".
	GetTokenAccountOwners(ctx context.Context, tokenAccounts []string) ([]string, error)

	// GetTransaction returns a confirmed transaction, or nil if it is unknown.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSlot returns the current slot.
	GetSlot(ctx context.Context) (int64, error)
}
