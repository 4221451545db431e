// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"solana-token-sentinel/internal/solana"
)

// ErrUnavailable is returned for calls configured to fail.
var ErrUnavailable = errors.New("stub: rpc unavailable")

// RPCClient implements solana.RPCClient from fixed maps.
type RPCClient struct {
	mu sync.Mutex

	Accounts     map[string]*solana.AccountInfo
	Largest      map[string][]solana.TokenAccountBalance
	Supply       map[string]*solana.TokenAmount
	Transactions map[string]*solana.Transaction
	Owners       map[string]string // token account -> owner
	Slot         int64

	// Fail makes every call return ErrUnavailable.
	Fail bool

	calls map[string]int
}

// NewRPCClient creates an empty stub.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:     make(map[string]*solana.AccountInfo),
		Largest:      make(map[string][]solana.TokenAccountBalance),
		Supply:       make(map[string]*solana.TokenAmount),
		Transactions: make(map[string]*solana.Transaction),
		Owners:       make(map[string]string),
		calls:        make(map[string]int),
	}
}

func (c *RPCClient) enter(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	if c.Fail {
		return ErrUnavailable
	}
	return nil
}

// Calls returns how many times method was invoked.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.enter("getAccountInfo"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetTokenLargestAccounts returns the stored largest accounts.
func (c *RPCClient) GetTokenLargestAccounts(_ context.Context, mint string) ([]solana.TokenAccountBalance, error) {
	if err := c.enter("getTokenLargestAccounts"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Largest[mint], nil
}

// GetTokenSupply returns the stored supply.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	if err := c.enter("getTokenSupply"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.Supply[mint]
	if !ok {
		return nil, ErrUnavailable
	}
	return s, nil
}

// GetTokenAccountOwners maps each account through Owners.
func (c *RPCClient) GetTokenAccountOwners(_ context.Context, tokenAccounts []string) ([]string, error) {
	if err := c.enter("getMultipleAccounts"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(tokenAccounts))
	for i, a := range tokenAccounts {
		out[i] = c.Owners[a]
	}
	return out, nil
}

// GetTransaction returns the stored transaction or nil.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if err := c.enter("getTransaction"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

// GetSlot returns Slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	if err := c.enter("getSlot"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Slot, nil
}

// AddTransaction stores tx under its signature.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

var _ solana.RPCClient = (*RPCClient)(nil)
