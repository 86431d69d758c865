package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/artcoin-trader/internal/apperror"
	"github.com/fd1az/artcoin-trader/internal/retry"
)

// Read failure classes.
const (
	ClassRateLimited = "rate_limited"
	ClassTransient   = "transient"
	ClassFatal       = "fatal"
)

// JSON-RPC error codes providers use for throttling.
const (
	rpcCodeLimitExceeded = -32005
	rpcCodeRateLimited   = -32029
)

// ClassifyRead decides whether a failed chain read is worth retrying. Only
// throttling and transient transport failures are.
func ClassifyRead(err error) retry.Decision {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Fatal(ClassFatal)
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr.StatusCode)
	}
	var httpErrPtr *rpc.HTTPError
	if errors.As(err, &httpErrPtr) && httpErrPtr != nil {
		return classifyStatus(httpErrPtr.StatusCode)
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case rpcCodeLimitExceeded, rpcCodeRateLimited:
			return retry.Retryable(ClassRateLimited)
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return retry.Retryable(ClassTransient)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return retry.Retryable(ClassTransient)
	}

	msg := strings.ToLower(apperror.FullMessage(err))
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return retry.Retryable(ClassRateLimited)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"):
		return retry.Retryable(ClassTransient)
	}

	return retry.Fatal(ClassFatal)
}

func classifyStatus(status int) retry.Decision {
	switch {
	case status == http.StatusTooManyRequests:
		return retry.Retryable(ClassRateLimited)
	case status >= 500:
		return retry.Retryable(ClassTransient)
	default:
		return retry.Fatal(ClassFatal)
	}
}
