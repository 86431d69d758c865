// Package wallet talks to the user's wallet over JSON-RPC on a WebSocket.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/logger"
	"github.com/fd1az/artcoin-trader/internal/wsconn"
)

const (
	methodChainID     = "eth_chainId"
	methodSwitchChain = "wallet_switchEthereumChain"

	defaultRequestTimeout = 60 * time.Second
)

// Wallet JSON-RPC error codes (EIP-1193, EIP-3326).
const (
	CodeUserRejected = 4001
	CodeUnknownChain = 4902
)

// Config holds wallet session settings.
type Config struct {
	URL            string
	Header         http.Header
	RequestTimeout time.Duration
	// Reconnect redials dropped sessions.
	Reconnect bool
}

// RPCError is a JSON-RPC error object returned by the wallet.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

// ErrorCode implements rpc.Error.
func (e *RPCError) ErrorCode() int { return e.Code }

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Session implements app.WalletSession and app.ChainSwitcher.
type Session struct {
	ws      *wsconn.Client
	timeout time.Duration
	logger  logger.LoggerInterface

	mu      sync.Mutex
	pending map[string]chan rpcResponse
}

var (
	_ app.WalletSession = (*Session)(nil)
	_ app.ChainSwitcher = (*Session)(nil)
)

// NewSession creates a wallet session. Call Connect before use.
func NewSession(cfg Config, log logger.LoggerInterface) (*Session, error) {
	wsCfg := wsconn.DefaultConfig(cfg.URL, "wallet")
	wsCfg.Header = cfg.Header
	wsCfg.Reconnect = cfg.Reconnect

	ws, err := wsconn.New(wsCfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	s := &Session{
		ws:      ws,
		timeout: timeout,
		logger:  log,
		pending: make(map[string]chan rpcResponse),
	}
	ws.OnMessage(s.handleMessage)
	ws.OnStateChange(s.handleState)

	return s, nil
}

// Connect opens the WebSocket.
func (s *Session) Connect(ctx context.Context) error {
	return s.ws.Connect(ctx)
}

// Close closes the session and fails pending calls.
func (s *Session) Close() error {
	return s.ws.Close()
}

// Connected reports whether the socket is up.
func (s *Session) Connected() bool {
	return s.ws.IsConnected()
}

// ChainID returns the wallet's current chain.
func (s *Session) ChainID(ctx context.Context) (uint64, error) {
	var hex string
	if err := s.call(ctx, methodChainID, nil, &hex); err != nil {
		return 0, err
	}

	id, err := hexutil.DecodeUint64(hex)
	if err != nil {
		return 0, apperror.New(apperror.CodeWalletRPCError,
			apperror.WithCause(err),
			apperror.WithContext(methodChainID))
	}
	return id, nil
}

// SwitchChain asks the wallet to move to chainID. The user may reject it.
func (s *Session) SwitchChain(ctx context.Context, chainID uint64) error {
	params := []any{map[string]string{"chainId": hexutil.EncodeUint64(chainID)}}
	err := s.call(ctx, methodSwitchChain, params, nil)

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == CodeUnknownChain {
		s.logger.Warn(ctx, "wallet does not know the chain", "chain_id", chainID)
	}
	return err
}

func (s *Session) call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}

	id := uuid.NewString()
	ch := make(chan rpcResponse, 1)

	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := s.ws.SendJSON(callCtx, req); err != nil {
		return err
	}

	select {
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperror.New(apperror.CodeServiceTimeout,
			apperror.WithCause(callCtx.Err()),
			apperror.WithContext(method))

	case resp, ok := <-ch:
		if !ok {
			return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(method))
		}
		if resp.Error != nil {
			return apperror.New(apperror.CodeWalletRPCError,
				apperror.WithCause(resp.Error),
				apperror.WithContext(method))
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return apperror.New(apperror.CodeWalletRPCError,
				apperror.WithCause(err),
				apperror.WithContext(method))
		}
		return nil
	}
}

func (s *Session) handleMessage(ctx context.Context, msg []byte) {
	var resp rpcResponse
	if err := json.Unmarshal(msg, &resp); err != nil || resp.ID == "" {
		// Wallet events (accountsChanged, chainChanged) carry no id.
		s.logger.Debug(ctx, "ignoring wallet message", "size", len(msg))
		return
	}

	s.mu.Lock()
	ch, ok := s.pending[resp.ID]
	if ok {
		delete(s.pending, resp.ID)
	}
	s.mu.Unlock()

	if ok {
		ch <- resp
	}
}

func (s *Session) handleState(state wsconn.State, err error) {
	ctx := context.Background()
	switch state {
	case wsconn.StateDisconnected, wsconn.StateClosed:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn(ctx, "wallet session dropped", "state", state, "error", err)
		}
		s.failPending()
	case wsconn.StateConnected:
		s.logger.Info(ctx, "wallet session connected")
	}
}

func (s *Session) failPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
}
