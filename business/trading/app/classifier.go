package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/artcoin-trader/internal/apperror"
)

// Classification is the retry verdict for one trade failure.
type Classification struct {
	Kind      apperror.Code
	Retryable bool
	// DelayFactor scales the backoff curve for this kind.
	DelayFactor float64
}

const (
	defaultProviderUnavailableFactor = 2
	unknownMessageLimit              = 120
)

// JSON-RPC error codes.
const (
	rpcCodeUserRejected  = 4001
	rpcCodeLimitExceeded = -32005
	rpcCodeRateLimited   = -32029
)

var kinds = map[apperror.Code]Classification{
	apperror.CodeInvalidAmount:       {Kind: apperror.CodeInvalidAmount},
	apperror.CodeInvalidSlippage:     {Kind: apperror.CodeInvalidSlippage},
	apperror.CodeInvalidTradeRequest: {Kind: apperror.CodeInvalidTradeRequest},
	apperror.CodeNetworkMismatch:     {Kind: apperror.CodeNetworkMismatch},
	apperror.CodeInsufficientBalance: {Kind: apperror.CodeInsufficientBalance},
	apperror.CodeVestingLocked:       {Kind: apperror.CodeVestingLocked},
	apperror.CodeInsufficientGas:     {Kind: apperror.CodeInsufficientGas},
	apperror.CodeUserRejected:        {Kind: apperror.CodeUserRejected},
	apperror.CodeRateLimitExceeded:   {Kind: apperror.CodeRateLimitExceeded, Retryable: true, DelayFactor: 1},
	apperror.CodeQuoteUnavailable:    {Kind: apperror.CodeQuoteUnavailable, Retryable: true, DelayFactor: 1},
	apperror.CodeProviderUnavailable: {
		Kind:        apperror.CodeProviderUnavailable,
		Retryable:   true,
		DelayFactor: defaultProviderUnavailableFactor,
	},
}

func kind(code apperror.Code) Classification {
	if c, ok := kinds[code]; ok {
		return c
	}
	return Classification{Kind: apperror.CodeUnknownError}
}

// infraKinds maps adapter codes onto the taxonomy.
var infraKinds = map[apperror.Code]apperror.Code{
	apperror.CodeCircuitOpen:              apperror.CodeProviderUnavailable,
	apperror.CodeServiceTimeout:           apperror.CodeProviderUnavailable,
	apperror.CodeExternalServiceError:     apperror.CodeProviderUnavailable,
	apperror.CodeEthereumConnectionFailed: apperror.CodeProviderUnavailable,
	apperror.CodeWebSocketConnectionError: apperror.CodeProviderUnavailable,
	apperror.CodeWebSocketClosed:          apperror.CodeProviderUnavailable,
	apperror.CodeWebSocketSendError:       apperror.CodeProviderUnavailable,
}

// providerCodes maps the provider's error codes onto the taxonomy.
var providerCodes = map[string]apperror.Code{
	"QUOTE_UNAVAILABLE":    apperror.CodeQuoteUnavailable,
	"QUOTE_NOT_READY":      apperror.CodeQuoteUnavailable,
	"NO_QUOTE":             apperror.CodeQuoteUnavailable,
	"POOL_NOT_FOUND":       apperror.CodeQuoteUnavailable,
	"INSUFFICIENT_FUNDS":   apperror.CodeInsufficientBalance,
	"INSUFFICIENT_BALANCE": apperror.CodeInsufficientBalance,
	"INSUFFICIENT_GAS":     apperror.CodeInsufficientGas,
	"SLIPPAGE_EXCEEDED":    apperror.CodeInvalidSlippage,
	"INVALID_SLIPPAGE":     apperror.CodeInvalidSlippage,
	"INVALID_AMOUNT":       apperror.CodeInvalidAmount,
	"USER_REJECTED":        apperror.CodeUserRejected,
	"RATE_LIMITED":         apperror.CodeRateLimitExceeded,
	"RATE_LIMIT_EXCEEDED":  apperror.CodeRateLimitExceeded,
}

// substringRules run in order over the lowercased message chain. User
// rejection comes first so a rejected request never reads as a retryable
// provider failure.
var substringRules = []struct {
	kind    apperror.Code
	needles []string
}{
	{apperror.CodeUserRejected, []string{"user rejected", "user denied", "rejected the request", "request rejected", "cancelled"}},
	{apperror.CodeInsufficientGas, []string{"insufficient funds for gas", "gas required exceeds", "insufficient gas"}},
	{apperror.CodeInsufficientBalance, []string{"insufficient funds", "insufficient balance", "exceeds balance"}},
	{apperror.CodeInvalidSlippage, []string{"slippage"}},
	{apperror.CodeRateLimitExceeded, []string{"rate limit", "too many requests"}},
	{apperror.CodeQuoteUnavailable, []string{"quote not", "no quote", "pricing service", "not ready"}},
	{apperror.CodeProviderUnavailable, []string{
		"internal server error", "service unavailable", "bad gateway", "gateway timeout",
		"timeout", "timed out", "connection reset", "connection refused", "eof",
	}},
	// A bare mention of a quote only counts once server failures are ruled out.
	{apperror.CodeQuoteUnavailable, []string{"quote"}},
}

// Classify maps any error from a trade attempt onto the taxonomy. Structured
// signals win; message matching is the last resort.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: apperror.CodeUnknownError}
	}

	appErr, isApp := apperror.As(err)
	if isApp {
		if c, ok := kinds[appErr.Code]; ok {
			return c
		}
	}

	if c, ok := classifyStructured(err); ok {
		return c
	}

	if isApp {
		if code, ok := infraKinds[appErr.Code]; ok {
			return kind(code)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return kind(apperror.CodeUnknownError)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return kind(apperror.CodeProviderUnavailable)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return kind(apperror.CodeProviderUnavailable)
	}

	return classifyMessage(apperror.FullMessage(err))
}

func classifyStructured(err error) (Classification, bool) {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		if code, ok := providerCodes[strings.ToUpper(provErr.Code)]; ok {
			return kind(code), true
		}
		if c, ok := classifyStatus(provErr.StatusCode); ok {
			return c, true
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case rpcCodeUserRejected:
			return kind(apperror.CodeUserRejected), true
		case rpcCodeLimitExceeded, rpcCodeRateLimited:
			return kind(apperror.CodeRateLimitExceeded), true
		}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr.StatusCode)
	}
	var httpErrPtr *rpc.HTTPError
	if errors.As(err, &httpErrPtr) && httpErrPtr != nil {
		return classifyStatus(httpErrPtr.StatusCode)
	}

	return Classification{}, false
}

func classifyStatus(status int) (Classification, bool) {
	switch {
	case status == http.StatusTooManyRequests:
		return kind(apperror.CodeRateLimitExceeded), true
	case status >= 500:
		return kind(apperror.CodeProviderUnavailable), true
	default:
		return Classification{}, false
	}
}

func classifyMessage(msg string) Classification {
	msg = strings.ToLower(msg)
	for _, rule := range substringRules {
		for _, needle := range rule.needles {
			if strings.Contains(msg, needle) {
				return kind(rule.kind)
			}
		}
	}
	return kind(apperror.CodeUnknownError)
}

// Normalize converts err into an AppError carrying its taxonomy code.
func Normalize(err error) *apperror.AppError {
	if err == nil {
		return nil
	}
	return normalize(err, Classify(err))
}

func normalize(err error, c Classification) *apperror.AppError {
	if appErr, ok := apperror.As(err); ok && appErr.Code == c.Kind {
		return appErr
	}
	if c.Kind == apperror.CodeUnknownError {
		return apperror.New(apperror.CodeUnknownError,
			apperror.WithMessage(truncate(apperror.FullMessage(err), unknownMessageLimit)),
			apperror.WithCause(err))
	}
	return apperror.New(c.Kind, apperror.WithCause(err))
}

// ToastMessage renders a short user-facing line for a trade error.
func ToastMessage(err error) string {
	if err == nil {
		return ""
	}
	appErr := Normalize(err)

	var msg string
	switch appErr.Code {
	case apperror.CodeInvalidAmount:
		msg = "Enter an amount greater than zero."
	case apperror.CodeInvalidSlippage:
		msg = "Slippage must be at least 0% and below 100%."
	case apperror.CodeInvalidTradeRequest:
		msg = "This trade request is not valid."
	case apperror.CodeNetworkMismatch:
		msg = "Switch your wallet to the right network and try again."
		if id := appErr.Detail("required_chain_id"); id != "" {
			msg = fmt.Sprintf("Switch your wallet to chain %s and try again.", id)
		}
	case apperror.CodeInsufficientBalance:
		msg = "Insufficient balance for this trade."
		if short := appErr.Detail("shortfall_human"); short != "" {
			msg = fmt.Sprintf("Insufficient balance. You need %s more.", short)
		}
	case apperror.CodeVestingLocked:
		msg = "Creator coins are vesting-locked."
		if avail := appErr.Detail("available_human"); avail != "" {
			msg = fmt.Sprintf("Creator coins are vesting-locked. You can sell up to %s.", avail)
		}
	case apperror.CodeInsufficientGas:
		msg = "Not enough ETH left to pay for gas."
	case apperror.CodeRateLimitExceeded:
		msg = "Too many requests. Try again in a moment."
	case apperror.CodeProviderUnavailable:
		msg = "Trading is temporarily unavailable. Try again shortly."
	case apperror.CodeQuoteUnavailable:
		msg = "No quote for this coin yet. Try again in a few seconds."
	case apperror.CodeUserRejected:
		msg = "Request rejected in your wallet."
	default:
		msg = "Trade failed: " + truncate(appErr.Message, unknownMessageLimit)
	}

	if n := appErr.Detail("attempts"); n != "" {
		msg += fmt.Sprintf(" (%s attempts)", n)
	}
	return msg
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
