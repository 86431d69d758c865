// Package domain contains the blockchain read models.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/artcoin-trader/internal/asset"
)

// BalanceSnapshot is one balance read. It is never cached.
type BalanceSnapshot struct {
	Owner  common.Address
	Asset  asset.Descriptor
	Raw    *big.Int
	ReadAt time.Time
}

// Available returns max(0, Raw - locked).
func (s BalanceSnapshot) Available(locked *big.Int) *big.Int {
	if s.Raw == nil {
		return new(big.Int)
	}
	if locked == nil || locked.Sign() <= 0 {
		return new(big.Int).Set(s.Raw)
	}
	avail := new(big.Int).Sub(s.Raw, locked)
	if avail.Sign() < 0 {
		return new(big.Int)
	}
	return avail
}

// Covers reports whether Raw - reserve >= amount.
func (s BalanceSnapshot) Covers(amount, reserve *big.Int) bool {
	return s.Available(reserve).Cmp(amount) >= 0
}
