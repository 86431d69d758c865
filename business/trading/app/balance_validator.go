package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

// BalanceValidatorConfig holds the amounts held back from a spend.
type BalanceValidatorConfig struct {
	// GasReserve is native balance kept aside for fees.
	GasReserve *big.Int
	// VestingLock is the part of a creator's own coin that cannot be sold.
	VestingLock *big.Int
}

// BalanceValidator checks fresh balances against a trade before submission.
type BalanceValidator struct {
	balances BalanceReader
	decimals *DecimalsResolver
	cfg      BalanceValidatorConfig
	logger   logger.LoggerInterface
}

// NewBalanceValidator creates a BalanceValidator.
func NewBalanceValidator(balances BalanceReader, decimals *DecimalsResolver, cfg BalanceValidatorConfig, log logger.LoggerInterface) *BalanceValidator {
	if cfg.GasReserve == nil {
		cfg.GasReserve = new(big.Int)
	}
	if cfg.VestingLock == nil {
		cfg.VestingLock = new(big.Int)
	}
	return &BalanceValidator{
		balances: balances,
		decimals: decimals,
		cfg:      cfg,
		logger:   log,
	}
}

// Validate dispatches on what the sender spends.
func (v *BalanceValidator) Validate(ctx context.Context, req *domain.TradeRequest) error {
	return asset.Match(req.SellAsset,
		func() error {
			return v.spendNative(ctx, req)
		},
		func(common.Address) error {
			if req.Direction == domain.DirectionSell {
				return v.sellCoin(ctx, req)
			}
			return v.spendToken(ctx, req)
		},
	)
}

// spendNative pays amountIn and gas from the same native balance.
func (v *BalanceValidator) spendNative(ctx context.Context, req *domain.TradeRequest) error {
	snap, err := v.balances.Balance(ctx, req.Sender, asset.Native())
	if err != nil {
		return err
	}

	if !snap.Covers(req.AmountIn, v.cfg.GasReserve) {
		return v.shortfall(ctx, apperror.CodeInsufficientBalance, req.SellAsset,
			snap.Available(v.cfg.GasReserve), req.AmountIn)
	}
	return nil
}

// spendToken pays amountIn in a stablecoin and gas in native.
func (v *BalanceValidator) spendToken(ctx context.Context, req *domain.TradeRequest) error {
	snap, err := v.balances.Balance(ctx, req.Sender, req.SellAsset)
	if err != nil {
		return err
	}

	if !snap.Covers(req.AmountIn, nil) {
		return v.shortfall(ctx, apperror.CodeInsufficientBalance, req.SellAsset, snap.Raw, req.AmountIn)
	}
	return v.checkGas(ctx, req.Sender)
}

// sellCoin applies the vesting rule before checking the coin balance.
func (v *BalanceValidator) sellCoin(ctx context.Context, req *domain.TradeRequest) error {
	snap, err := v.balances.Balance(ctx, req.Sender, req.SellAsset)
	if err != nil {
		return err
	}

	var locked *big.Int
	if req.SenderIsCreator() {
		locked = v.cfg.VestingLock
	}

	available := snap.Available(locked)
	if available.Cmp(req.AmountIn) < 0 {
		code := apperror.CodeInsufficientBalance
		if locked != nil && locked.Sign() > 0 {
			code = apperror.CodeVestingLocked
		}
		return v.shortfall(ctx, code, req.SellAsset, available, req.AmountIn)
	}

	return v.checkGas(ctx, req.Sender)
}

func (v *BalanceValidator) checkGas(ctx context.Context, owner common.Address) error {
	snap, err := v.balances.Balance(ctx, owner, asset.Native())
	if err != nil {
		return err
	}
	if !snap.Covers(v.cfg.GasReserve, nil) {
		return v.shortfall(ctx, apperror.CodeInsufficientGas, asset.Native(), snap.Raw, v.cfg.GasReserve)
	}
	return nil
}

func (v *BalanceValidator) shortfall(ctx context.Context, code apperror.Code, d asset.Descriptor, available, required *big.Int) *apperror.AppError {
	short := new(big.Int).Sub(required, available)
	availableHuman := v.decimals.Human(ctx, d, available)
	shortHuman := v.decimals.Human(ctx, d, short)

	opts := []apperror.Option{
		apperror.WithContext(d.String()),
		apperror.WithDetail("available", available.String()),
		apperror.WithDetail("required", required.String()),
		apperror.WithDetail("shortfall", short.String()),
		apperror.WithDetail("available_human", availableHuman),
		apperror.WithDetail("shortfall_human", shortHuman),
	}
	if code == apperror.CodeVestingLocked {
		opts = append(opts, apperror.WithMessage(
			fmt.Sprintf("Creator coins are locked by the vesting rule, %s available to sell", availableHuman)))
	}

	v.logger.Info(ctx, "balance check failed",
		"code", code,
		"asset", d.String(),
		"available", available.String(),
		"required", required.String())

	return apperror.New(code, opts...)
}
