package stub

import (
	"context"
	"errors"

	"github.com/nothingdao/solana-wallet-scanner/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	Accounts     map[string][]solana.TokenAccount // keyed by owner
	Supplies     map[string]*solana.TokenAmount   // keyed by mint
	AccountInfos map[string]*solana.AccountInfo   // keyed by pubkey

	// Err, when set, is returned by GetTokenAccountsByOwner to simulate
	// an unreachable RPC endpoint.
	Err error
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:     make(map[string][]solana.TokenAccount),
		Supplies:     make(map[string]*solana.TokenAmount),
		AccountInfos: make(map[string]*solana.AccountInfo),
	}
}

// GetTokenAccountsByOwner returns the token accounts registered for owner.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]solana.TokenAccount, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Accounts[owner], nil
}

// GetTokenSupply returns the supply registered for mint, nil if absent.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (*solana.TokenAmount, error) {
	supply, ok := c.Supplies[mint]
	if !ok {
		return nil, nil
	}
	return supply, nil
}

// GetAccountInfo returns the account info registered for pubkey.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	info, ok := c.AccountInfos[pubkey]
	if !ok {
		return nil, nil
	}
	return info, nil
}

// AddAccount registers a token account under its owner.
func (c *RPCClient) AddAccount(owner string, acct solana.TokenAccount) {
	c.Accounts[owner] = append(c.Accounts[owner], acct)
}

// FailWith makes GetTokenAccountsByOwner fail with msg.
func (c *RPCClient) FailWith(msg string) {
	c.Err = errors.New(msg)
}

var _ solana.RPCClient = (*RPCClient)(nil)
