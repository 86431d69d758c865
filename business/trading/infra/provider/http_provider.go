// Package provider implements the trading provider over its HTTP API.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/circuitbreaker"
	"github.com/fd1az/artcoin-trader/internal/httpclient"
	"github.com/fd1az/artcoin-trader/internal/logger"
	"github.com/fd1az/artcoin-trader/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/artcoin-trader/business/trading/infra/provider"

	tradesEndpoint = "/v1/trades"
	healthEndpoint = "/v1/health"

	defaultTimeout = 30 * time.Second
)

// Config holds provider client settings.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
}

// HTTPProvider submits trades to the provider's REST API.
type HTTPProvider struct {
	client  httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[*domain.Receipt]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

var _ app.TradingProvider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider client.
func NewHTTPProvider(cfg Config, log logger.LoggerInterface, opts ...httpclient.ClientOption) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("provider base url is required"))
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	headers := map[string]string{"Accept": "application/json"}
	if cfg.APIKey != "" {
		headers["X-Api-Key"] = cfg.APIKey
	}

	tracer := otel.Tracer(tracerName)

	clientOpts := append([]httpclient.ClientOption{
		httpclient.WithProviderName("trading-provider"),
		httpclient.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(tracer),
		httpclient.WithHeaders(headers),
	}, opts...)

	client, err := httpclient.NewInstrumentedClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	p := &HTTPProvider{
		client:  client,
		limiter: ratelimit.New("trading-provider", cfg.RequestsPerMinute),
		logger:  log,
		tracer:  tracer,
	}

	cbCfg := circuitbreaker.DefaultConfig("trading-provider")
	cbCfg.IsSuccessful = countsAsSuccess
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String())
	}
	p.cb = circuitbreaker.New[*domain.Receipt](cbCfg)

	return p, nil
}

// tradeRequest is the provider's trade payload.
type tradeRequest struct {
	TradeID   string `json:"tradeId"`
	SellAsset string `json:"sellAsset"`
	BuyAsset  string `json:"buyAsset"`
	AmountIn  string `json:"amountIn"`
	Slippage  string `json:"slippage"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
}

// tradeResponse carries the mined transaction's receipt.
type tradeResponse struct {
	TxHash      string `json:"txHash"`
	Status      uint64 `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
}

// Submit posts the trade and waits for the provider's receipt.
func (p *HTTPProvider) Submit(ctx context.Context, req app.SubmitRequest) (*domain.Receipt, error) {
	ctx, span := p.tracer.Start(ctx, "provider.submit",
		trace.WithAttributes(
			attribute.String("trade.id", req.TradeID),
			attribute.String("sell_asset", req.SellAsset.String()),
			attribute.String("buy_asset", req.BuyAsset.String()),
		),
	)
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	receipt, err := p.cb.Execute(func() (*domain.Receipt, error) {
		return p.post(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if circuitbreaker.IsRejection(err) {
			return nil, apperror.New(apperror.CodeCircuitOpen,
				apperror.WithCause(err),
				apperror.WithContext("trading-provider"))
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("tx_hash", receipt.TransactionHash.Hex()))
	p.logger.Debug(ctx, "provider accepted trade",
		"trade_id", req.TradeID,
		"tx_hash", receipt.TransactionHash.Hex(),
		"status", receipt.Status)

	return receipt, nil
}

func (p *HTTPProvider) post(ctx context.Context, req app.SubmitRequest) (*domain.Receipt, error) {
	body := tradeRequest{
		TradeID:   req.TradeID,
		SellAsset: req.SellAsset.String(),
		BuyAsset:  req.BuyAsset.String(),
		AmountIn:  req.AmountIn.String(),
		Slippage:  req.Slippage.String(),
		Sender:    req.Sender.Hex(),
		Recipient: req.Recipient.Hex(),
	}

	var result tradeResponse
	_, err := p.client.NewRequest(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "trades")),
		httpclient.WithResponseErrorHandler(providerErrorHandler),
	).
		SetBody(body).
		SetResult(&result).
		Post(ctx, tradesEndpoint)
	if err != nil {
		return nil, err
	}

	if raw, err := hexutil.Decode(result.TxHash); err != nil || len(raw) != common.HashLength {
		return nil, &app.ProviderError{
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("malformed transaction hash %q", result.TxHash),
		}
	}

	return &domain.Receipt{
		TransactionHash: common.HexToHash(result.TxHash),
		Status:          result.Status,
		BlockNumber:     result.BlockNumber,
		GasUsed:         result.GasUsed,
	}, nil
}

// Ping checks the provider answers its health endpoint.
func (p *HTTPProvider) Ping(ctx context.Context) error {
	_, err := p.client.NewRequest(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "health")),
		httpclient.WithResponseErrorHandler(providerErrorHandler),
	).Get(ctx, healthEndpoint)
	return err
}

// BreakerOpen reports whether the provider breaker is rejecting calls.
func (p *HTTPProvider) BreakerOpen() bool {
	return p.cb.IsOpen()
}

// errorBody accepts both {"code","message"} and {"error":{"code","message"}}.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// providerErrorHandler turns error replies into *app.ProviderError.
func providerErrorHandler(statusCode int, body []byte) error {
	if statusCode < http.StatusBadRequest {
		return nil
	}

	pe := &app.ProviderError{StatusCode: statusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		pe.Code, pe.Message = eb.Code, eb.Message
		if eb.Error != nil {
			pe.Code, pe.Message = eb.Error.Code, eb.Error.Message
		}
	}
	if pe.Message == "" {
		pe.Message = strings.TrimSpace(string(body))
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(statusCode)
	}
	return pe
}

// countsAsSuccess keeps client-side rejections from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var pe *app.ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode < http.StatusInternalServerError && pe.StatusCode != http.StatusTooManyRequests
	}
	return false
}
