package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/artcoin-trader/internal/asset"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

type fakeReader struct {
	native   func() (*big.Int, error)
	erc20    func(token common.Address) (*big.Int, error)
	decimals func() (uint8, error)
	calls    atomic.Int32
}

func (f *fakeReader) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	f.calls.Add(1)
	return f.native()
}

func (f *fakeReader) ERC20BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	f.calls.Add(1)
	return f.erc20(token)
}

func (f *fakeReader) ERC20Decimals(ctx context.Context, token common.Address) (uint8, error) {
	f.calls.Add(1)
	return f.decimals()
}

func (f *fakeReader) ChainID(ctx context.Context) (uint64, error) {
	f.calls.Add(1)
	return 8453, nil
}

func testService(r ChainReader) *BalanceService {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewBalanceService(r, ReadPolicyConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}, log)
}

var owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func TestBalanceService_DispatchesByKind(t *testing.T) {
	coin := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	r := &fakeReader{
		native: func() (*big.Int, error) { return big.NewInt(1), nil },
		erc20: func(token common.Address) (*big.Int, error) {
			assert.Equal(t, coin, token)
			return big.NewInt(2), nil
		},
	}
	s := testService(r)

	snap, err := s.Balance(context.Background(), owner, asset.Native())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Raw.Int64())
	assert.True(t, snap.Asset.IsNative())
	assert.Equal(t, owner, snap.Owner)

	snap, err = s.Balance(context.Background(), owner, asset.ERC20(coin))
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Raw.Int64())
	assert.False(t, snap.ReadAt.IsZero())
}

func TestBalanceService_RetriesRateLimit(t *testing.T) {
	var n int
	r := &fakeReader{
		native: func() (*big.Int, error) {
			n++
			if n < 3 {
				return nil, rpc.HTTPError{StatusCode: 429, Status: "429 Too Many Requests"}
			}
			return big.NewInt(42), nil
		},
	}

	snap, err := testService(r).Balance(context.Background(), owner, asset.Native())
	require.NoError(t, err)
	assert.Equal(t, int64(42), snap.Raw.Int64())
	assert.Equal(t, int32(3), r.calls.Load())
}

type traceKey struct{}

func TestBalanceService_RetryLogCarriesCallerContext(t *testing.T) {
	var buf bytes.Buffer
	fields := func(ctx context.Context) []any {
		if id, ok := ctx.Value(traceKey{}).(string); ok {
			return []any{"trace_id", id}
		}
		return nil
	}
	log := logger.New(&buf, logger.LevelWarn, "test", fields)

	var n int
	r := &fakeReader{
		decimals: func() (uint8, error) {
			n++
			if n < 2 {
				return 0, rpc.HTTPError{StatusCode: 429}
			}
			return 6, nil
		},
	}
	s := NewBalanceService(r, ReadPolicyConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}, log)

	ctx := context.WithValue(context.Background(), traceKey{}, "trade-trace")
	dec, err := s.Decimals(ctx, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, uint8(6), dec)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "chain read failed, retrying"), out)
	assert.Contains(t, out, `"trace_id":"trade-trace"`)
}

func TestBalanceService_BudgetExhausted(t *testing.T) {
	r := &fakeReader{
		native: func() (*big.Int, error) { return nil, errors.New("429: rate limit exceeded") },
	}

	_, err := testService(r).Balance(context.Background(), owner, asset.Native())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, int32(3), r.calls.Load())
}

func TestBalanceService_FatalNotRetried(t *testing.T) {
	r := &fakeReader{
		decimals: func() (uint8, error) { return 0, errors.New("execution reverted") },
	}

	_, err := testService(r).Decimals(context.Background(), common.Address{})
	require.Error(t, err)
	assert.Equal(t, int32(1), r.calls.Load())
}

type codedErr struct{ code int }

func (e codedErr) Error() string  { return "provider error" }
func (e codedErr) ErrorCode() int { return e.code }

func TestClassifyRead(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		class     string
	}{
		{"http 429", rpc.HTTPError{StatusCode: 429}, true, ClassRateLimited},
		{"http 502", rpc.HTTPError{StatusCode: 502}, true, ClassTransient},
		{"http 400", rpc.HTTPError{StatusCode: 400}, false, ClassFatal},
		{"limit exceeded code", codedErr{code: -32005}, true, ClassRateLimited},
		{"other rpc code", codedErr{code: -32000}, false, ClassFatal},
		{"eof", io.EOF, true, ClassTransient},
		{"substring", errors.New("Too Many Requests"), true, ClassRateLimited},
		{"timeout substring", errors.New("i/o timeout"), true, ClassTransient},
		{"cancelled", context.Canceled, false, ClassFatal},
		{"revert", errors.New("execution reverted"), false, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ClassifyRead(tt.err)
			assert.Equal(t, tt.retryable, d.Retryable)
			assert.Equal(t, tt.class, d.Class)
		})
	}
}
