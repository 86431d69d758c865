// Package wsconn provides a WebSocket client with keepalive and optional reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"

	"github.com/fd1az/artcoin-trader/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL  string
	Name string

	Header         http.Header
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration // 0 disables keepalive pings
	PongTimeout    time.Duration
	MaxMessageSize int64

	Reconnect      bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
}

// DefaultConfig returns sensible defaults. Reconnection is off.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		DialTimeout:    10 * time.Second,
		WriteTimeout:   5 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 1 << 20,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// MessageHandler receives every inbound message.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is set on failures.
type StateHandler func(state State, err error)

// Client is a WebSocket client over coder/websocket.
type Client struct {
	cfg Config

	mu        sync.RWMutex
	conn      *websocket.Conn
	cancelRun context.CancelFunc
	closed    bool
	onMessage MessageHandler
	onState   StateHandler

	stateMu sync.RWMutex
	state   State

	lifeCtx    context.Context
	cancelLife context.CancelFunc
}

// New creates a new WebSocket client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("wsconn: url is required"))
	}
	if cfg.Name == "" {
		cfg.Name = cfg.URL
	}

	lifeCtx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:        cfg,
		state:      StateDisconnected,
		lifeCtx:    lifeCtx,
		cancelLife: cancel,
	}, nil
}

// OnMessage registers the inbound message handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.mu.Lock()
	c.onMessage = h
	c.mu.Unlock()
}

// OnStateChange registers the state transition handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.mu.Lock()
	c.onState = h
	c.mu.Unlock()
}

// Connect dials the server and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.cfg.Name))
	}

	c.setState(StateConnecting, nil)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext(c.cfg.Name))
	}

	c.attach(conn)
	return nil
}

// Send writes a text message.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.cfg.Name))
	}

	if c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()
	}

	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err),
			apperror.WithContext(c.cfg.Name))
	}
	return nil
}

// SendJSON encodes v as JSON and sends it.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err),
			apperror.WithContext("marshal message"))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close closes the connection and stops reconnection. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	cancelRun := c.cancelRun
	c.conn = nil
	c.cancelRun = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	if cancelRun != nil {
		cancelRun()
	}
	c.cancelLife()

	c.setState(StateClosed, nil)
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	if c.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.DialTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(ctx, c.cfg.URL, &websocket.DialOptions{
		HTTPHeader: c.cfg.Header,
	})
	if err != nil {
		return nil, err
	}
	if c.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	return conn, nil
}

func (c *Client) attach(conn *websocket.Conn) {
	runCtx, cancel := context.WithCancel(c.lifeCtx)

	c.mu.Lock()
	c.conn = conn
	c.cancelRun = cancel
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	go c.readLoop(runCtx, conn)
	if c.cfg.PingInterval > 0 {
		go c.pingLoop(runCtx, conn)
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.dropped(conn, err)
			return
		}

		c.mu.RLock()
		h := c.onMessage
		c.mu.RUnlock()
		if h != nil {
			h(ctx, data)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, c.cfg.PongTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				c.dropped(conn, err)
				return
			}
		}
	}
}

// dropped handles a failed connection once, whichever loop notices first.
func (c *Client) dropped(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	cancel := c.cancelRun
	c.cancelRun = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	conn.CloseNow()

	c.setState(StateDisconnected, cause)

	if c.cfg.Reconnect {
		go c.reconnect()
	}
}

func (c *Client) reconnect() {
	c.setState(StateReconnecting, nil)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
	}
	if c.cfg.MaxReconnects > 0 {
		opts = append(opts, backoff.WithMaxTries(uint(c.cfg.MaxReconnects)))
	}

	conn, err := backoff.Retry(c.lifeCtx, func() (*websocket.Conn, error) {
		return c.dial(c.lifeCtx)
	}, opts...)
	if err != nil {
		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if !closed {
			c.setState(StateDisconnected, err)
		}
		return
	}

	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		conn.CloseNow()
		return
	}

	c.attach(conn)
}

func (c *Client) setState(state State, err error) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()

	c.mu.RLock()
	h := c.onState
	c.mu.RUnlock()
	if h != nil {
		h(state, err)
	}
}
