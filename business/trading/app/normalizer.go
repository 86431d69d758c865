package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

// NormalizeAmount converts a human decimal string into smallest units.
// Excess fractional digits are rejected, never rounded.
func NormalizeAmount(human string, decimals uint8) (*big.Int, error) {
	raw, err := asset.ToSmallestUnit(human, decimals)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithCause(err),
			apperror.WithDetail("amount", human))
	}
	return raw, nil
}

// CheckAmountSyntax rejects malformed or non-positive amounts without
// knowing the asset's precision.
func CheckAmountSyntax(human string) error {
	d, err := decimal.NewFromString(human)
	if err != nil {
		return apperror.New(apperror.CodeInvalidAmount,
			apperror.WithCause(err),
			apperror.WithDetail("amount", human))
	}
	if !d.IsPositive() {
		return apperror.New(apperror.CodeInvalidAmount,
			apperror.WithCause(asset.ErrNonPositive),
			apperror.WithDetail("amount", human))
	}
	if err := asset.CheckMagnitude(d, 0); err != nil {
		return apperror.New(apperror.CodeInvalidAmount,
			apperror.WithCause(err),
			apperror.WithDetail("amount", human))
	}
	return nil
}

// DecimalsResolver finds an asset's precision: native is fixed, known
// assets come from the registry, anything else is read on-chain.
type DecimalsResolver struct {
	registry *asset.Registry
	reader   DecimalsReader
	logger   logger.LoggerInterface
}

// NewDecimalsResolver creates a DecimalsResolver. reader may be nil, in which
// case unknown tokens fall back to 18.
func NewDecimalsResolver(registry *asset.Registry, reader DecimalsReader, log logger.LoggerInterface) *DecimalsResolver {
	return &DecimalsResolver{
		registry: registry,
		reader:   reader,
		logger:   log,
	}
}

// Resolve returns d's decimals. It never fails.
func (r *DecimalsResolver) Resolve(ctx context.Context, d asset.Descriptor) uint8 {
	return asset.Match(d,
		func() uint8 { return asset.NativeDecimals },
		func(token common.Address) uint8 {
			if r.registry != nil {
				if a, ok := r.registry.Get(d); ok {
					return a.Decimals()
				}
			}
			if r.reader == nil {
				return asset.NativeDecimals
			}

			dec, err := r.reader.Decimals(ctx, token)
			if err != nil {
				r.logger.Warn(ctx, "decimals read failed, assuming 18",
					"token", token.Hex(),
					"error", err)
				return asset.NativeDecimals
			}
			return dec
		},
	)
}

// Human renders raw in d's units for messages.
func (r *DecimalsResolver) Human(ctx context.Context, d asset.Descriptor, raw *big.Int) string {
	return asset.FromSmallestUnit(raw, r.Resolve(ctx, d)).String()
}
