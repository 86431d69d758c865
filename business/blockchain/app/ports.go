// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ChainReader reads balances and token metadata from the chain.
type ChainReader interface {
	// NativeBalance returns the owner's native balance in wei.
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)

	// ERC20BalanceOf calls balanceOf(owner) on token.
	ERC20BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// ERC20Decimals calls decimals() on token.
	ERC20Decimals(ctx context.Context, token common.Address) (uint8, error)

	// ChainID returns the chain id the RPC node serves.
	ChainID(ctx context.Context) (uint64, error)
}
