package app

import (
	"context"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	blockchainDomain "github.com/fd1az/artcoin-trader/business/blockchain/domain"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/asset"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

var (
	sender  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	coinA   = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	coin    = asset.ERC20(coinA)
	baseID  = uint64(8453)
	otherID = uint64(1)
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

// eth returns n * 10^18 scaled by 10^-exp, e.g. eth(5, 2) is 0.05 ETH.
func eth(n int64, exp int) *big.Int {
	v := new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	return v.Div(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
}

type fakeSession struct {
	mu        sync.Mutex
	chainIDs  []uint64 // consumed in order; the last one repeats
	err       error
	switchErr error
	reads     int
	switches  int
}

func (f *fakeSession) ChainID(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.reads++
	if f.err != nil {
		return 0, f.err
	}
	id := f.chainIDs[0]
	if len(f.chainIDs) > 1 {
		f.chainIDs = f.chainIDs[1:]
	}
	return id, nil
}

func (f *fakeSession) SwitchChain(ctx context.Context, chainID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches++
	return f.switchErr
}

type fakeBalances struct {
	mu       sync.Mutex
	balances map[asset.Descriptor]*big.Int
	err      error
	reads    int
}

func (f *fakeBalances) Balance(ctx context.Context, owner common.Address, d asset.Descriptor) (*blockchainDomain.BalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.balances[d]
	if !ok {
		raw = new(big.Int)
	}
	return &blockchainDomain.BalanceSnapshot{Owner: owner, Asset: d, Raw: new(big.Int).Set(raw)}, nil
}

type submitReply struct {
	receipt *domain.Receipt
	err     error
}

type fakeProvider struct {
	mu      sync.Mutex
	replies []submitReply // consumed in order; the last one repeats
	calls   []SubmitRequest
}

func (f *fakeProvider) Submit(ctx context.Context, req SubmitRequest) (*domain.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r.receipt, r.err
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) states() []domain.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.State, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.State)
	}
	return out
}

// waits returns the delay announced by each retryable failure.
func (r *recordingNotifier) waits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, n := range r.notices {
		if n.State == domain.StateRetryableFailure {
			out = append(out, n.Wait.Milliseconds())
		}
	}
	return out
}

type fakeDecimals struct {
	dec   uint8
	err   error
	calls int
}

func (f *fakeDecimals) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	f.calls++
	return f.dec, f.err
}

func receipt(hash string) *domain.Receipt {
	return &domain.Receipt{
		TransactionHash: common.HexToHash(hash),
		Status:          1,
		BlockNumber:     100,
		GasUsed:         21000,
	}
}
