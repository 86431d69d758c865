package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/artcoin-trader/business/trading/app"
	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/logger"
)

// mockWallet answers JSON-RPC requests with reply.
func mockWallet(t *testing.T, reply func(req rpcRequest) (any, *RPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Logf("websocket accept error: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := context.Background()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}

			var req rpcRequest
			json.Unmarshal(data, &req)

			// An unsolicited event first, which the session must ignore.
			conn.Write(ctx, websocket.MessageText, []byte(`{"method":"chainChanged","params":["0x1"]}`))

			result, rpcErr := reply(req)
			if result == nil && rpcErr == nil {
				continue
			}
			resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
			if rpcErr != nil {
				resp["error"] = rpcErr
			} else {
				resp["result"] = result
			}
			out, _ := json.Marshal(resp)
			conn.Write(ctx, websocket.MessageText, out)
		}
	}))
}

func connect(t *testing.T, srv *httptest.Server, timeout time.Duration) *Session {
	t.Helper()
	s, err := NewSession(Config{
		URL:            "ws" + strings.TrimPrefix(srv.URL, "http"),
		RequestTimeout: timeout,
	}, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSession_ChainID(t *testing.T) {
	srv := mockWallet(t, func(req rpcRequest) (any, *RPCError) {
		if req.Method != "eth_chainId" || req.JSONRPC != "2.0" || req.ID == "" {
			t.Errorf("unexpected request %+v", req)
		}
		return "0x2105", nil
	})
	defer srv.Close()

	id, err := connect(t, srv, time.Second).ChainID(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 8453 {
		t.Errorf("expected 8453, got %d", id)
	}
}

func TestSession_SwitchChain(t *testing.T) {
	var params []map[string]string
	srv := mockWallet(t, func(req rpcRequest) (any, *RPCError) {
		raw, _ := json.Marshal(req.Params)
		json.Unmarshal(raw, &params)
		return json.RawMessage("null"), nil
	})
	defer srv.Close()

	if err := connect(t, srv, time.Second).SwitchChain(context.Background(), 8453); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(params) != 1 || params[0]["chainId"] != "0x2105" {
		t.Errorf("unexpected params %v", params)
	}
}

func TestSession_SwitchRejected(t *testing.T) {
	srv := mockWallet(t, func(req rpcRequest) (any, *RPCError) {
		return nil, &RPCError{Code: CodeUserRejected, Message: "User rejected the request."}
	})
	defer srv.Close()

	err := connect(t, srv, time.Second).SwitchChain(context.Background(), 8453)
	if !apperror.HasCode(err, apperror.CodeWalletRPCError) {
		t.Fatalf("expected wallet rpc error, got %v", err)
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != CodeUserRejected {
		t.Errorf("expected 4001 cause, got %v", err)
	}
	if app.Classify(err).Kind != apperror.CodeUserRejected {
		t.Errorf("expected user rejection, got %s", app.Classify(err).Kind)
	}
}

func TestSession_RequestTimeout(t *testing.T) {
	srv := mockWallet(t, func(req rpcRequest) (any, *RPCError) { return nil, nil })
	defer srv.Close()

	_, err := connect(t, srv, 50*time.Millisecond).ChainID(context.Background())
	if !apperror.HasCode(err, apperror.CodeServiceTimeout) {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestSession_SendWithoutConnect(t *testing.T) {
	s, err := NewSession(Config{URL: "ws://127.0.0.1:1"}, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.ChainID(context.Background())
	if !apperror.HasCode(err, apperror.CodeWebSocketClosed) {
		t.Errorf("expected closed socket error, got %v", err)
	}
}
