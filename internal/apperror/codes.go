package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Trade taxonomy codes. Every failure of a trade call surfaces as one of these.
const (
	CodeInvalidAmount       Code = "INVALID_AMOUNT"
	CodeInvalidSlippage     Code = "INVALID_SLIPPAGE"
	CodeInvalidTradeRequest Code = "INVALID_TRADE_REQUEST"
	CodeNetworkMismatch     Code = "NETWORK_MISMATCH"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeVestingLocked       Code = "VESTING_LOCKED"
	CodeInsufficientGas     Code = "INSUFFICIENT_GAS"
	CodeProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	CodeQuoteUnavailable    Code = "QUOTE_UNAVAILABLE"
	CodeUserRejected        Code = "USER_REJECTED"
)

// Infrastructure codes
const (
	// Blockchain RPC
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"

	// Wallet session
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
	CodeWalletRPCError           Code = "WALLET_RPC_ERROR"

	// Circuit breaker
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
