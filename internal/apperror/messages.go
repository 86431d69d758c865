package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Trade taxonomy
	CodeInvalidAmount:       "Amount must be a positive decimal number",
	CodeInvalidSlippage:     "Slippage tolerance must be within [0, 1)",
	CodeInvalidTradeRequest: "Invalid trade request",
	CodeNetworkMismatch:     "Wallet is not connected to the required network",
	CodeInsufficientBalance: "Insufficient balance for this trade",
	CodeVestingLocked:       "Creator coins are locked by the vesting rule",
	CodeInsufficientGas:     "Not enough native balance to cover gas",
	CodeProviderUnavailable: "Trading provider is temporarily unavailable",
	CodeQuoteUnavailable:    "No quote is available for this coin yet",
	CodeUserRejected:        "Request was rejected in the wallet",

	CodeEthereumConnectionFailed: "Failed to connect to RPC node",
	CodeEthereumRPCError:         "RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",
	CodeWalletRPCError:           "Wallet request failed",

	CodeCircuitOpen: "Circuit breaker is open",
}
