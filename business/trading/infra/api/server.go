// Package api exposes the trade wrappers over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/internal/apm"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/asset"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

const (
	tracerName = "github.com/fd1az/artcoin-trader/business/trading/infra/api"

	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 16
)

// Trader is the wrapper surface the API drives. *app.Trader implements it.
type Trader interface {
	BuyWithNative(ctx context.Context, coin asset.Descriptor, amount string, opts ...app.TradeOption) (*domain.TradeResult, error)
	SellForNative(ctx context.Context, coin asset.Descriptor, amount string, opts ...app.TradeOption) (*domain.TradeResult, error)
	SwapERC20(ctx context.Context, sellCoin, buyCoin asset.Descriptor, amount string, opts ...app.TradeOption) (*domain.TradeResult, error)
}

// Config holds API server settings.
type Config struct {
	Port           int
	AllowedOrigins []string
	// WriteTimeout must cover a full trade including retries.
	WriteTimeout time.Duration
}

// Server handles the trade REST endpoints.
type Server struct {
	cfg      Config
	trader   Trader
	registry *asset.Registry
	log      logger.LoggerInterface
	tracer   apm.Tracer
	router   *mux.Router
	server   *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg Config, trader Trader, registry *asset.Registry, log logger.LoggerInterface) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	s := &Server{
		cfg:      cfg,
		trader:   trader,
		registry: registry,
		log:      log,
		tracer:   apm.NewTracer(tracerName),
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/trades/buy", s.handleBuy).Methods(http.MethodPost)
	api.HandleFunc("/trades/sell", s.handleSell).Methods(http.MethodPost)
	api.HandleFunc("/trades/swap", s.handleSwap).Methods(http.MethodPost)

	api.HandleFunc("/assets", s.handleAssets).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS and otelhttp.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return otelhttp.NewHandler(c.Handler(s.router), "trader-api")
}

// Start starts the API server in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "api server failed", "port", s.cfg.Port, "error", err)
		}
	}()

	s.log.Info(context.Background(), "api server started", "port", s.cfg.Port)
	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// TradeRequest is the JSON body of every trade endpoint. Assets are symbols,
// "native", or token addresses.
type TradeRequest struct {
	Coin      string           `json:"coin"`
	BuyCoin   string           `json:"buyCoin,omitempty"`
	Amount    string           `json:"amount"`
	Sender    string           `json:"sender,omitempty"`
	Recipient string           `json:"recipient,omitempty"`
	Slippage  *decimal.Decimal `json:"slippage,omitempty"`
	Creator   string           `json:"creator,omitempty"`
}

// TradeResponse is returned on a confirmed trade.
type TradeResponse struct {
	TradeID     string `json:"tradeId"`
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	Attempts    int    `json:"attempts"`
	DurationMs  int64  `json:"durationMs"`
}

// AssetInfo describes a registered asset.
type AssetInfo struct {
	Symbol   string `json:"symbol"`
	Asset    string `json:"asset"`
	Decimals uint8  `json:"decimals"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, "buy", func(ctx context.Context, req TradeRequest, opts []app.TradeOption) (*domain.TradeResult, error) {
		coin, err := s.resolve("coin", req.Coin)
		if err != nil {
			return nil, err
		}
		return s.trader.BuyWithNative(ctx, coin, req.Amount, opts...)
	})
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, "sell", func(ctx context.Context, req TradeRequest, opts []app.TradeOption) (*domain.TradeResult, error) {
		coin, err := s.resolve("coin", req.Coin)
		if err != nil {
			return nil, err
		}
		return s.trader.SellForNative(ctx, coin, req.Amount, opts...)
	})
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, "swap", func(ctx context.Context, req TradeRequest, opts []app.TradeOption) (*domain.TradeResult, error) {
		sell, err := s.resolve("coin", req.Coin)
		if err != nil {
			return nil, err
		}
		buy, err := s.resolve("buyCoin", req.BuyCoin)
		if err != nil {
			return nil, err
		}
		return s.trader.SwapERC20(ctx, sell, buy, req.Amount, opts...)
	})
}

type tradeFunc func(ctx context.Context, req TradeRequest, opts []app.TradeOption) (*domain.TradeResult, error)

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request, kind string, fn tradeFunc) {
	ctx, span := s.tracer.StartSpanFromContext(r.Context(), "api.trade."+kind)
	defer span.End()

	var req TradeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.respondError(ctx, w, apperror.New(apperror.CodeInvalidTradeRequest,
			apperror.WithMessage("Request body is not valid JSON"),
			apperror.WithCause(err)))
		return
	}
	span.SetAttributes(
		attribute.String("trade.kind", kind),
		attribute.String("trade.coin", req.Coin),
	)

	opts, err := tradeOptions(req)
	if err != nil {
		s.respondError(ctx, w, err)
		return
	}

	result, err := fn(ctx, req, opts)
	if err != nil {
		span.NoticeError(err)
		s.respondError(ctx, w, err)
		return
	}

	respondJSON(w, http.StatusOK, TradeResponse{
		TradeID:     result.TradeID,
		TxHash:      result.TransactionHash.Hex(),
		BlockNumber: result.Receipt.BlockNumber,
		GasUsed:     result.Receipt.GasUsed,
		Attempts:    result.Attempts,
		DurationMs:  result.Duration().Milliseconds(),
	})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	all := s.registry.All()
	out := make([]AssetInfo, 0, len(all))
	for _, a := range all {
		out = append(out, AssetInfo{
			Symbol:   a.Symbol(),
			Asset:    a.Descriptor().String(),
			Decimals: a.Decimals(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) resolve(field, ref string) (asset.Descriptor, error) {
	if ref == "" {
		return asset.Descriptor{}, invalidField(field, "is required", nil)
	}
	d, err := s.registry.Resolve(ref)
	if err != nil {
		return asset.Descriptor{}, invalidField(field, "is not a known asset or address", err)
	}
	return d, nil
}

func tradeOptions(req TradeRequest) ([]app.TradeOption, error) {
	var opts []app.TradeOption

	addr := func(field, v string, with func(common.Address) app.TradeOption) error {
		if v == "" {
			return nil
		}
		if !common.IsHexAddress(v) {
			return invalidField(field, "is not an address", nil)
		}
		opts = append(opts, with(common.HexToAddress(v)))
		return nil
	}

	if err := addr("sender", req.Sender, app.WithSender); err != nil {
		return nil, err
	}
	if err := addr("recipient", req.Recipient, app.WithRecipient); err != nil {
		return nil, err
	}
	if err := addr("creator", req.Creator, app.WithCreator); err != nil {
		return nil, err
	}
	if req.Slippage != nil {
		opts = append(opts, app.WithSlippage(*req.Slippage))
	}
	return opts, nil
}

func invalidField(field, problem string, cause error) *apperror.AppError {
	opts := []apperror.Option{
		apperror.WithMessage(fmt.Sprintf("%s %s", field, problem)),
		apperror.WithDetail("field", field),
	}
	if cause != nil {
		opts = append(opts, apperror.WithCause(cause))
	}
	return apperror.New(apperror.CodeInvalidTradeRequest, opts...)
}

func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := app.Normalize(err)
	if id := s.tracer.SpanFromContext(ctx).TraceID(); id != "" {
		appErr.WithTraceID(id)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		s.log.Error(ctx, "trade request failed", "code", string(appErr.Code), "error", apperror.FullMessage(err))
	} else {
		s.log.Warn(ctx, "trade request rejected", "code", string(appErr.Code), "error", appErr.Message)
	}

	body := appErr.ToResponse()
	body["toast"] = app.ToastMessage(appErr)
	respondJSON(w, appErr.StatusCode, body)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
