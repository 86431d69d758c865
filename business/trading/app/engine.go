package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/logger"
	"github.com/fd1az/artcoin-trader/internal/retry"
)

const (
	tracerName = "github.com/fd1az/artcoin-trader/business/trading/app"
	meterName  = "github.com/fd1az/artcoin-trader/business/trading/app"
)

// EngineConfig sizes the trade retry policy.
type EngineConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration

	// ProviderUnavailableFactor stretches the delay after provider outages.
	ProviderUnavailableFactor float64

	// QuoteMaxRetries caps retries on QUOTE_UNAVAILABLE, each after QuoteCooldown.
	QuoteMaxRetries int
	QuoteCooldown   time.Duration

	// Jitter overrides the uniform jitter draw.
	Jitter func(max time.Duration) time.Duration
}

// DefaultEngineConfig returns the production retry settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxAttempts:               3,
		BaseDelay:                 2 * time.Second,
		MaxJitter:                 time.Second,
		ProviderUnavailableFactor: defaultProviderUnavailableFactor,
		QuoteMaxRetries:           2,
		QuoteCooldown:             5 * time.Second,
	}
}

type engineMetrics struct {
	tradesTotal   metric.Int64Counter
	attemptsTotal metric.Int64Counter
	retriesTotal  metric.Int64Counter
	duration      metric.Float64Histogram
}

// Engine runs trades: network guard, balance validation and submission,
// retried as one unit.
type Engine struct {
	guard     Guard
	validator Validator
	provider  TradingProvider
	notifier  Notifier
	cfg       EngineConfig
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *engineMetrics
	now     func() time.Time
}

var _ TradeExecutor = (*Engine)(nil)

// NewEngine creates an Engine. validator and notifier may be nil; a nil log
// discards.
func NewEngine(cfg EngineConfig, guard Guard, validator Validator, provider TradingProvider, notifier Notifier, log logger.LoggerInterface) (*Engine, error) {
	if guard == nil || provider == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("engine needs a network guard and a trading provider"))
	}
	if log == nil {
		log = logger.Discard()
	}
	if cfg.ProviderUnavailableFactor <= 0 {
		cfg.ProviderUnavailableFactor = defaultProviderUnavailableFactor
	}

	e := &Engine{
		guard:     guard,
		validator: validator,
		provider:  provider,
		notifier:  notifier,
		cfg:       cfg,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return e, nil
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &engineMetrics{}

	e.metrics.tradesTotal, err = meter.Int64Counter(
		"trades_total",
		metric.WithDescription("Finished trade calls by outcome"),
		metric.WithUnit("{trade}"),
	)
	if err != nil {
		return err
	}

	e.metrics.attemptsTotal, err = meter.Int64Counter(
		"trade_attempts_total",
		metric.WithDescription("Trade attempts, including retries"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	e.metrics.retriesTotal, err = meter.Int64Counter(
		"trade_retries_total",
		metric.WithDescription("Trade retries by error kind"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return err
	}

	e.metrics.duration, err = meter.Float64Histogram(
		"trade_duration_ms",
		metric.WithDescription("Trade call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// decide turns a classification into a retry decision.
func (e *Engine) decide(c Classification) retry.Decision {
	if !c.Retryable {
		return retry.Fatal(string(c.Kind))
	}

	d := retry.Retryable(string(c.Kind))
	switch c.Kind {
	case apperror.CodeProviderUnavailable:
		d.Factor = e.cfg.ProviderUnavailableFactor
	case apperror.CodeQuoteUnavailable:
		d.Cooldown = e.cfg.QuoteCooldown
		d.Budget = e.cfg.QuoteMaxRetries
		if d.Budget <= 0 {
			// A zero budget means quote failures are not retried at all.
			return retry.Fatal(string(c.Kind))
		}
	default:
		d.Factor = c.DelayFactor
	}
	return d
}

// ExecuteTrade runs req to completion. It returns a result only on success;
// every failure is an *apperror.AppError with a taxonomy code.
func (e *Engine) ExecuteTrade(ctx context.Context, req *domain.TradeRequest) (*domain.TradeResult, error) {
	ctx, span := e.tracer.Start(ctx, "trading.execute",
		trace.WithAttributes(
			attribute.String("trade.id", req.ID),
			attribute.String("trade.direction", string(req.Direction)),
			attribute.String("trade.sell_asset", req.SellAsset.String()),
			attribute.String("trade.buy_asset", req.BuyAsset.String()),
		),
	)
	defer span.End()

	started := e.now()
	tr := &tracker{tradeID: req.ID, state: domain.StateCreated, notifier: e.notifier, now: e.now}
	tr.emit(ctx, 0, nil, 0)

	if err := req.Validate(); err != nil {
		appErr := Normalize(err)
		tr.move(ctx, domain.StateFatalFailure, 0, appErr, 0)
		e.finish(ctx, span, started, "invalid", appErr)
		return nil, appErr
	}

	policy := retry.Policy{
		Name:        "trade",
		MaxAttempts: e.cfg.MaxAttempts,
		BaseDelay:   e.cfg.BaseDelay,
		MaxJitter:   e.cfg.MaxJitter,
		Jitter:      e.cfg.Jitter,
		Classify: func(err error) retry.Decision {
			if ctx.Err() != nil {
				return retry.Fatal("cancelled")
			}
			return e.decide(Classify(err))
		},
		OnRetry: func(st retry.State, wait time.Duration) {
			e.metrics.retriesTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.String("kind", st.LastDecision.Class)))
			e.logger.Warn(ctx, "trade attempt failed, retrying",
				"trade_id", req.ID,
				"attempt", st.Attempt,
				"max_attempts", st.MaxAttempts,
				"kind", st.LastDecision.Class,
				"wait", wait,
				"error", st.LastErr)
			tr.move(ctx, domain.StateRetryableFailure, st.Attempt, st.LastErr, wait)
		},
	}

	receipt, st, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (*domain.Receipt, error) {
		return e.attempt(ctx, tr, req, attempt)
	})
	if err != nil {
		appErr := Normalize(err)
		outcome, state := "fatal", domain.StateFatalFailure
		if st.Exhausted {
			outcome, state = "exhausted", domain.StateRetriesExhausted
			appErr.SetDetail("attempts", strconv.Itoa(st.Attempt))
		}
		tr.move(ctx, state, st.Attempt, appErr, 0)
		e.finish(ctx, span, started, outcome, appErr)
		return nil, appErr
	}

	tr.move(ctx, domain.StateSuccess, st.Attempt, nil, 0)
	e.finish(ctx, span, started, "success", nil)

	result := &domain.TradeResult{
		TradeID:         req.ID,
		TransactionHash: receipt.TransactionHash,
		Receipt:         *receipt,
		Attempts:        st.Attempt,
		AmountIn:        req.AmountIn,
		StartedAt:       started,
		FinishedAt:      e.now(),
	}

	e.logger.Info(ctx, "trade confirmed",
		"trade_id", req.ID,
		"tx_hash", receipt.TransactionHash.Hex(),
		"block", receipt.BlockNumber,
		"attempts", st.Attempt)

	return result, nil
}

// attempt is one pass through guard, validation and submission.
func (e *Engine) attempt(ctx context.Context, tr *tracker, req *domain.TradeRequest, n int) (*domain.Receipt, error) {
	ctx, span := e.tracer.Start(ctx, "trading.attempt",
		trace.WithAttributes(attribute.Int("attempt", n)))
	defer span.End()

	e.metrics.attemptsTotal.Add(ctx, 1)

	fail := func(err error) (*domain.Receipt, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := e.guard.Ensure(ctx); err != nil {
		return fail(err)
	}
	tr.move(ctx, domain.StateNetworkChecked, n, nil, 0)

	if e.validator != nil {
		if err := e.validator.Validate(ctx, req); err != nil {
			return fail(err)
		}
		tr.move(ctx, domain.StateBalanceValidated, n, nil, 0)
	}

	tr.move(ctx, domain.StateSubmitted, n, nil, 0)
	receipt, err := e.provider.Submit(ctx, SubmitRequest{
		TradeID:   req.ID,
		SellAsset: req.SellAsset,
		BuyAsset:  req.BuyAsset,
		AmountIn:  req.AmountIn,
		Slippage:  req.Slippage,
		Sender:    req.Sender,
		Recipient: req.RecipientOrSender(),
	})
	if err != nil {
		return fail(err)
	}
	if receipt == nil {
		return fail(apperror.New(apperror.CodeUnknownError,
			apperror.WithMessage("trading provider returned no receipt")))
	}
	if !receipt.Succeeded() {
		return fail(apperror.New(apperror.CodeUnknownError,
			apperror.WithMessage("transaction reverted"),
			apperror.WithDetail("tx_hash", receipt.TransactionHash.Hex())))
	}

	span.SetAttributes(attribute.String("tx_hash", receipt.TransactionHash.Hex()))
	return receipt, nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, started time.Time, outcome string, err *apperror.AppError) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	e.metrics.tradesTotal.Add(ctx, 1, attrs)
	e.metrics.duration.Record(ctx, float64(e.now().Sub(started).Milliseconds()), attrs)

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, string(err.Code))
	span.SetAttributes(attribute.String("error.code", string(err.Code)))
	e.logger.Error(ctx, "trade failed",
		"outcome", outcome,
		"code", err.Code,
		"error", apperror.FullMessage(err))
}

// tracker walks one trade through the state machine and reports each step.
type tracker struct {
	tradeID  string
	state    domain.State
	notifier Notifier
	now      func() time.Time
}

func (t *tracker) move(ctx context.Context, to domain.State, attempt int, err error, wait time.Duration) {
	if terr := domain.Transition(t.state, to); terr != nil {
		panic(terr)
	}
	t.state = to
	t.emit(ctx, attempt, err, wait)
}

func (t *tracker) emit(ctx context.Context, attempt int, err error, wait time.Duration) {
	if t.notifier == nil {
		return
	}

	msg := t.state.Describe()
	if err != nil {
		msg = ToastMessage(err)
	}

	t.notifier.Notify(ctx, domain.Notice{
		TradeID: t.tradeID,
		State:   t.state,
		Attempt: attempt,
		Message: msg,
		Err:     err,
		Wait:    wait,
		At:      t.now(),
	})
}
