package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/artcoin-trader/business/blockchain/domain"
	"github.com/fd1az/artcoin-trader/internal/asset"
	"github.com/fd1az/artcoin-trader/internal/logger"
	"github.com/fd1az/artcoin-trader/internal/retry"
)

// ReadPolicyConfig sizes the retry budget for chain reads.
type ReadPolicyConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

// BalanceService reads fresh balances. Each read runs under its own retry
// budget, separate from whatever the caller retries.
type BalanceService struct {
	reader ChainReader
	policy retry.Policy
	logger logger.LoggerInterface
	now    func() time.Time
}

// NewBalanceService creates a BalanceService.
func NewBalanceService(reader ChainReader, cfg ReadPolicyConfig, log logger.LoggerInterface) *BalanceService {
	s := &BalanceService{
		reader: reader,
		logger: log,
		now:    time.Now,
	}

	s.policy = retry.Policy{
		Name:        "chain-read",
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		MaxJitter:   cfg.MaxJitter,
		Classify:    ClassifyRead,
	}

	return s
}

// policyFor binds retry logging to the caller's ctx, so retries carry its
// trace and span ids.
func (s *BalanceService) policyFor(ctx context.Context) retry.Policy {
	p := s.policy
	p.OnRetry = func(st retry.State, wait time.Duration) {
		s.logger.Warn(ctx, "chain read failed, retrying",
			"attempt", st.Attempt,
			"max_attempts", st.MaxAttempts,
			"class", st.LastDecision.Class,
			"wait", wait,
			"error", st.LastErr)
	}
	return p
}

// Balance returns a fresh snapshot of owner's balance of d.
func (s *BalanceService) Balance(ctx context.Context, owner common.Address, d asset.Descriptor) (*domain.BalanceSnapshot, error) {
	read := asset.Match(d,
		func() func(context.Context) (*big.Int, error) {
			return func(ctx context.Context) (*big.Int, error) {
				return s.reader.NativeBalance(ctx, owner)
			}
		},
		func(token common.Address) func(context.Context) (*big.Int, error) {
			return func(ctx context.Context) (*big.Int, error) {
				return s.reader.ERC20BalanceOf(ctx, token, owner)
			}
		},
	)

	raw, _, err := retry.Do(ctx, s.policyFor(ctx), func(ctx context.Context, _ int) (*big.Int, error) {
		return read(ctx)
	})
	if err != nil {
		return nil, err
	}

	return &domain.BalanceSnapshot{
		Owner:  owner,
		Asset:  d,
		Raw:    raw,
		ReadAt: s.now(),
	}, nil
}

// Decimals reads decimals() from token under the read policy.
func (s *BalanceService) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	dec, _, err := retry.Do(ctx, s.policyFor(ctx), func(ctx context.Context, _ int) (uint8, error) {
		return s.reader.ERC20Decimals(ctx, token)
	})
	return dec, err
}

// ChainID returns the RPC node's chain id.
func (s *BalanceService) ChainID(ctx context.Context) (uint64, error) {
	id, _, err := retry.Do(ctx, s.policyFor(ctx), func(ctx context.Context, _ int) (uint64, error) {
		return s.reader.ChainID(ctx)
	})
	return id, err
}
