// Package ethereum implements chain reads over go-ethereum's ethclient.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/artcoin-trader/business/blockchain/app"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/cache"
	"github.com/fd1az/artcoin-trader/internal/circuitbreaker"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

const (
	tracerName = "github.com/fd1az/artcoin-trader/business/blockchain/infra/ethereum"
	meterName  = "github.com/fd1az/artcoin-trader/business/blockchain/infra/ethereum"
)

// Backend is the subset of ethclient.Client the reader uses.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// ReaderConfig holds reader settings.
type ReaderConfig struct {
	ReadTimeout      time.Duration
	DecimalsCacheTTL time.Duration
}

// DefaultReaderConfig returns sensible defaults.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		ReadTimeout:      10 * time.Second,
		DecimalsCacheTTL: 24 * time.Hour,
	}
}

type readerMetrics struct {
	readsTotal  metric.Int64Counter
	readErrors  metric.Int64Counter
	readLatency metric.Float64Histogram
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// Reader implements app.ChainReader.
type Reader struct {
	backend Backend
	config  ReaderConfig
	logger  logger.LoggerInterface
	erc20   abi.ABI

	// decimals() is immutable per token, so it is the only cached read.
	decimals *cache.Cache[common.Address, uint8]

	cb *circuitbreaker.CircuitBreaker[any]

	tracer  trace.Tracer
	metrics *readerMetrics
}

var _ app.ChainReader = (*Reader)(nil)

// NewReader creates a chain reader over backend.
func NewReader(backend Backend, cfg ReaderConfig, log logger.LoggerInterface) (*Reader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	r := &Reader{
		backend:  backend,
		config:   cfg,
		logger:   log,
		erc20:    parsed,
		decimals: cache.New[common.Address, uint8](cfg.DecimalsCacheTTL),
		tracer:   otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("chain-rpc")
	cbCfg.OnStateChange = r.onBreakerChange
	r.cb = circuitbreaker.New[any](cbCfg)

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.readsTotal, err = meter.Int64Counter(
		"chain_reads_total",
		metric.WithDescription("Total chain read calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	r.metrics.readErrors, err = meter.Int64Counter(
		"chain_read_errors_total",
		metric.WithDescription("Failed chain read calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	r.metrics.readLatency, err = meter.Float64Histogram(
		"chain_read_latency_ms",
		metric.WithDescription("Chain read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	r.metrics.cacheHits, err = meter.Int64Counter(
		"decimals_cache_hits_total",
		metric.WithDescription("Token decimals cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	r.metrics.cacheMisses, err = meter.Int64Counter(
		"decimals_cache_misses_total",
		metric.WithDescription("Token decimals cache misses"),
		metric.WithUnit("{miss}"),
	)
	return err
}

// NativeBalance returns owner's balance at the latest block.
func (r *Reader) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return observe(ctx, r, "native_balance",
		[]attribute.KeyValue{attribute.String("owner", owner.Hex())},
		func(ctx context.Context) (*big.Int, error) {
			return r.backend.BalanceAt(ctx, owner, nil)
		})
}

// ERC20BalanceOf calls token.balanceOf(owner).
func (r *Reader) ERC20BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return observe(ctx, r, "erc20_balance",
		[]attribute.KeyValue{
			attribute.String("token", token.Hex()),
			attribute.String("owner", owner.Hex()),
		},
		func(ctx context.Context) (*big.Int, error) {
			out, err := r.call(ctx, token, "balanceOf", owner)
			if err != nil {
				return nil, err
			}
			bal, ok := out[0].(*big.Int)
			if !ok {
				return nil, fmt.Errorf("balanceOf: unexpected type %T", out[0])
			}
			return bal, nil
		})
}

// ERC20Decimals returns token.decimals(), cached per token.
func (r *Reader) ERC20Decimals(ctx context.Context, token common.Address) (uint8, error) {
	if dec, ok := r.decimals.Get(ctx, token); ok {
		r.metrics.cacheHits.Add(ctx, 1)
		return dec, nil
	}
	r.metrics.cacheMisses.Add(ctx, 1)

	dec, err := observe(ctx, r, "erc20_decimals",
		[]attribute.KeyValue{attribute.String("token", token.Hex())},
		func(ctx context.Context) (uint8, error) {
			out, err := r.call(ctx, token, "decimals")
			if err != nil {
				return 0, err
			}
			d, ok := out[0].(uint8)
			if !ok {
				return 0, fmt.Errorf("decimals: unexpected type %T", out[0])
			}
			return d, nil
		})
	if err != nil {
		return 0, err
	}

	r.decimals.Set(ctx, token, dec, 0)
	return dec, nil
}

// ChainID returns the node's chain id.
func (r *Reader) ChainID(ctx context.Context) (uint64, error) {
	return observe(ctx, r, "chain_id", nil, func(ctx context.Context) (uint64, error) {
		id, err := r.backend.ChainID(ctx)
		if err != nil {
			return 0, err
		}
		return id.Uint64(), nil
	})
}

// BreakerOpen reports whether the RPC breaker is rejecting calls.
func (r *Reader) BreakerOpen() bool {
	return r.cb.IsOpen()
}

func (r *Reader) call(ctx context.Context, token common.Address, method string, args ...any) ([]any, error) {
	data, err := r.erc20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	out, err := r.erc20.Unpack(method, raw)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s on %s", method, token.Hex())))
	}
	if len(out) == 0 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("%s on %s returned nothing", method, token.Hex())))
	}
	return out, nil
}

// observe runs fn through the breaker with a timeout, a span and metrics.
func observe[T any](ctx context.Context, r *Reader, op string, attrs []attribute.KeyValue, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := r.tracer.Start(ctx, "chain."+op, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	opAttr := metric.WithAttributes(attribute.String("op", op))
	r.metrics.readsTotal.Add(ctx, 1, opAttr)

	if r.config.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ReadTimeout)
		defer cancel()
	}

	v, err := r.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	r.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()), opAttr)

	if err != nil {
		r.metrics.readErrors.Add(ctx, 1, opAttr)
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")

		var zero T
		if circuitbreaker.IsRejection(err) {
			return zero, apperror.New(apperror.CodeCircuitOpen,
				apperror.WithCause(err),
				apperror.WithContext("chain rpc"))
		}
		if apperror.IsAppError(err) {
			return zero, err
		}
		return zero, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext(op))
	}

	span.SetStatus(codes.Ok, "")
	return v.(T), nil
}

func (r *Reader) onBreakerChange(name string, from, to gobreaker.State) {
	r.logger.Warn(context.Background(), "circuit breaker state changed",
		"breaker", name,
		"from", from.String(),
		"to", to.String())
}
