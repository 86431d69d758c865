package app

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
)

type capturingExecutor struct {
	requests []*domain.TradeRequest
}

func (c *capturingExecutor) ExecuteTrade(ctx context.Context, req *domain.TradeRequest) (*domain.TradeResult, error) {
	c.requests = append(c.requests, req)
	return &domain.TradeResult{TradeID: req.ID}, nil
}

func newTestTrader() (*Trader, *capturingExecutor, *fakeDecimals) {
	exec := &capturingExecutor{}
	dec := &fakeDecimals{dec: 18}
	tr := NewTrader(exec, NewDecimalsResolver(asset.DefaultRegistry(), dec, testLogger()), asset.DefaultRegistry(),
		TradeDefaults{Sender: sender, Slippage: decimal.RequireFromString("0.05")})
	tr.newID = func() string { return "fixed-id" }
	return tr, exec, dec
}

func TestBuyWithNative(t *testing.T) {
	tr, exec, dec := newTestTrader()

	res, err := tr.BuyWithNative(context.Background(), coin, "0.05")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", res.TradeID)

	require.Len(t, exec.requests, 1)
	req := exec.requests[0]
	assert.Equal(t, domain.DirectionBuy, req.Direction)
	assert.True(t, req.SellAsset.IsNative())
	assert.True(t, req.BuyAsset.Equal(coin))
	assert.Equal(t, eth(5, 2).String(), req.AmountIn.String())
	assert.Equal(t, sender, req.Sender)
	assert.True(t, req.Slippage.Equal(decimal.RequireFromString("0.05")))
	assert.Zero(t, dec.calls, "native amounts need no decimals read")
}

func TestSellForNative_Options(t *testing.T) {
	tr, exec, dec := newTestTrader()
	dec.dec = 6

	creator := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	to := common.HexToAddress("0x00000000000000000000000000000000000000dd")
	from := common.HexToAddress("0x00000000000000000000000000000000000000ee")

	_, err := tr.SellForNative(context.Background(), coin, "2.5",
		WithCreator(creator),
		WithRecipient(to),
		WithSender(from),
		WithSlippage(decimal.RequireFromString("0.1")),
	)
	require.NoError(t, err)

	req := exec.requests[0]
	assert.Equal(t, domain.DirectionSell, req.Direction)
	assert.Equal(t, "2500000", req.AmountIn.String())
	assert.Equal(t, from, req.Sender)
	assert.Equal(t, to, req.Recipient)
	assert.Equal(t, creator, *req.Creator)
	assert.Equal(t, "0.1", req.Slippage.String())
	assert.Equal(t, 1, dec.calls)
}

func TestSwapERC20_Direction(t *testing.T) {
	tr, exec, _ := newTestTrader()
	usdc := asset.USDC.Descriptor()

	_, err := tr.SwapERC20(context.Background(), usdc, coin, "10")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionBuy, exec.requests[0].Direction)
	assert.Equal(t, "10000000", exec.requests[0].AmountIn.String())

	_, err = tr.SwapERC20(context.Background(), coin, usdc, "10")
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSell, exec.requests[1].Direction)
}

func TestWrappers_InvalidAmountBeforeIO(t *testing.T) {
	for _, amount := range []string{"", "0", "-3", "ten", "1e100000000"} {
		tr, exec, dec := newTestTrader()

		_, err := tr.SellForNative(context.Background(), coin, amount)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount), "amount %q: %v", amount, err)
		assert.Zero(t, dec.calls)
		assert.Empty(t, exec.requests)
	}
}

func TestWrappers_TooManyDecimals(t *testing.T) {
	tr, exec, _ := newTestTrader()

	_, err := tr.SwapERC20(context.Background(), asset.USDC.Descriptor(), coin, "1.0000001")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))
	assert.Empty(t, exec.requests)
}

func TestBuyWithNative_HugeExponent(t *testing.T) {
	tr, exec, _ := newTestTrader()

	_, err := tr.BuyWithNative(context.Background(), coin, "1e100000000")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount), "got %v", err)
	assert.Empty(t, exec.requests)
}

func TestWrappers_ZeroDescriptor(t *testing.T) {
	tr, exec, dec := newTestTrader()
	ctx := context.Background()

	calls := map[string]func() (*domain.TradeResult, error){
		"sell": func() (*domain.TradeResult, error) { return tr.SellForNative(ctx, asset.Descriptor{}, "1") },
		"buy":  func() (*domain.TradeResult, error) { return tr.BuyWithNative(ctx, asset.Descriptor{}, "1") },
		"swap": func() (*domain.TradeResult, error) { return tr.SwapERC20(ctx, asset.Descriptor{}, coin, "1") },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = call() })
			assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTradeRequest), "got %v", err)
		})
	}
	assert.Zero(t, dec.calls)
	assert.Empty(t, exec.requests)
}
