package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
)

func newTestValidator(balances map[asset.Descriptor]*big.Int) (*BalanceValidator, *fakeBalances) {
	fb := &fakeBalances{balances: balances}
	log := testLogger()
	v := NewBalanceValidator(fb, NewDecimalsResolver(asset.DefaultRegistry(), &fakeDecimals{dec: 18}, log),
		BalanceValidatorConfig{
			GasReserve:  eth(5, 5),
			VestingLock: eth(10_000_000, 0),
		}, log)
	return v, fb
}

func sellRequest(amount *big.Int, creator *common.Address) *domain.TradeRequest {
	return &domain.TradeRequest{
		ID:        "sell-1",
		Direction: domain.DirectionSell,
		SellAsset: coin,
		BuyAsset:  asset.Native(),
		AmountIn:  amount,
		Sender:    sender,
		Slippage:  decimal.RequireFromString("0.01"),
		Creator:   creator,
	}
}

func TestValidate_VestingLocked(t *testing.T) {
	v, _ := newTestValidator(map[asset.Descriptor]*big.Int{
		coin:           eth(15_000_000, 0),
		asset.Native(): eth(1, 1),
	})
	creator := sender

	err := v.Validate(context.Background(), sellRequest(eth(6_000_000, 0), &creator))
	require.Error(t, err)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeVestingLocked, appErr.Code)
	assert.Equal(t, eth(5_000_000, 0).String(), appErr.Detail("available"))
	assert.Equal(t, "5000000", appErr.Detail("available_human"))
	assert.Contains(t, appErr.Message, "5000000 available")
}

func TestValidate_VestingOnlyForCreator(t *testing.T) {
	balances := map[asset.Descriptor]*big.Int{
		coin:           eth(15_000_000, 0),
		asset.Native(): eth(1, 1),
	}

	v, _ := newTestValidator(balances)
	assert.NoError(t, v.Validate(context.Background(), sellRequest(eth(6_000_000, 0), nil)))

	other := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	assert.NoError(t, v.Validate(context.Background(), sellRequest(eth(6_000_000, 0), &other)))

	creator := sender
	assert.NoError(t, v.Validate(context.Background(), sellRequest(eth(5_000_000, 0), &creator)),
		"selling exactly the unlocked part is allowed")
}

func TestValidate_SellChecks(t *testing.T) {
	tests := []struct {
		name     string
		coinBal  *big.Int
		native   *big.Int
		amount   *big.Int
		wantCode apperror.Code
	}{
		{"ok", eth(100, 0), eth(1, 3), eth(50, 0), ""},
		{"insufficient coin", eth(10, 0), eth(1, 3), eth(50, 0), apperror.CodeInsufficientBalance},
		{"no gas", eth(100, 0), eth(1, 6), eth(50, 0), apperror.CodeInsufficientGas},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestValidator(map[asset.Descriptor]*big.Int{
				coin:           tt.coinBal,
				asset.Native(): tt.native,
			})

			err := v.Validate(context.Background(), sellRequest(tt.amount, nil))
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestValidate_BuyNative(t *testing.T) {
	v, fb := newTestValidator(map[asset.Descriptor]*big.Int{asset.Native(): eth(1, 1)})

	// Scenario A: 0.1 - 0.00005 >= 0.05.
	require.NoError(t, v.Validate(context.Background(), buyRequest(eth(5, 2))))
	assert.Equal(t, 1, fb.reads)

	err := v.Validate(context.Background(), buyRequest(eth(1, 1)))
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientBalance, appErr.Code)
	assert.Equal(t, "0.00005", appErr.Detail("shortfall_human"))
}

func TestValidate_BuyWithStablecoin(t *testing.T) {
	usdc := asset.USDC.Descriptor()
	req := buyRequest(big.NewInt(25_000_000)) // 25 USDC
	req.SellAsset = usdc

	v, _ := newTestValidator(map[asset.Descriptor]*big.Int{
		usdc:           big.NewInt(30_000_000),
		asset.Native(): eth(1, 3),
	})
	require.NoError(t, v.Validate(context.Background(), req))

	v, _ = newTestValidator(map[asset.Descriptor]*big.Int{
		usdc:           big.NewInt(20_000_000),
		asset.Native(): eth(1, 3),
	})
	err := v.Validate(context.Background(), req)
	appErr, _ := apperror.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperror.CodeInsufficientBalance, appErr.Code)
	assert.Equal(t, "5", appErr.Detail("shortfall_human"))

	v, _ = newTestValidator(map[asset.Descriptor]*big.Int{
		usdc: big.NewInt(30_000_000),
	})
	assert.True(t, apperror.HasCode(v.Validate(context.Background(), req), apperror.CodeInsufficientGas))
}
