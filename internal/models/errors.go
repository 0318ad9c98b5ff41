package models

import "errors"

// Error taxonomy shared across clients, engines, and the orchestration layer.
// Tool handlers return these so the assistant can feed a correctable error
// back to the model instead of a fabricated value.
var (
	// ErrProviderUnavailable indicates an external fetch failed or timed out
	// after retries.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrUnknownTicker indicates the provider does not recognise the symbol.
	ErrUnknownTicker = errors.New("unknown ticker")

	// ErrInsufficientData indicates an indicator precondition was not met
	// (e.g. fewer bars than the requested window).
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidRange indicates a date range is inverted or outside the
	// bounds of the available series.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidTransaction indicates a portfolio mutation with non-positive
	// quantity or price. Store state is unchanged.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInvalidArguments indicates a model-requested tool call failed schema
	// validation. The call is never executed.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrQuotaExceeded indicates the user's daily message quota is exhausted.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrUserNotFound indicates no account exists for the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrHoldingNotFound indicates the user has no position in the ticker.
	ErrHoldingNotFound = errors.New("holding not found")
)
