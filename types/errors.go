package types

import (
	"errors"
	"fmt"
)

// ErrorKind groups error codes by how a caller should react to them.
type ErrorKind string

const (
	// KindValidation errors are surfaced immediately and never retried.
	KindValidation ErrorKind = "validation"
	// KindVenue errors come from the solver bus; callers may resubmit as a new operation.
	KindVenue ErrorKind = "venue"
	// KindChain errors are raw on-chain failures.
	KindChain ErrorKind = "chain"
	// KindTerminalMismatch means the venue reported a terminal status without a tx hash.
	KindTerminalMismatch ErrorKind = "terminal_mismatch"
	// KindInternal covers transport, encoding and configuration problems.
	KindInternal ErrorKind = "internal"
)

// Error is the typed error returned by every package of this module.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e Error) Error() string {
	return e.Message
}

// Kind classifies the error code.
func (e Error) Kind() ErrorKind {
	switch e.Code {
	case ErrInvalidRequest, ErrMalformedAsset, ErrUnknownAsset, ErrUnknownChain,
		ErrBelowMinimum, ErrInsufficientBalance, ErrNotDeposited, ErrMissingDestination,
		ErrQuoteExpired, ErrNotImplemented:
		return KindValidation
	case ErrNoQuote, ErrAmountTooSmall, ErrPublishFailed:
		return KindVenue
	case ErrChainError:
		return KindChain
	case ErrTerminalMismatch:
		return KindTerminalMismatch
	default:
		return KindInternal
	}
}

// Error codes
const (
	ErrInvalidRequest      = "INVALID_REQUEST"
	ErrMalformedAsset      = "MALFORMED_ASSET"
	ErrUnknownAsset        = "UNKNOWN_ASSET"
	ErrUnknownChain        = "UNKNOWN_CHAIN"
	ErrBelowMinimum        = "AMOUNT_BELOW_MINIMUM"
	ErrInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrNotDeposited        = "NOT_DEPOSITED"
	ErrMissingDestination  = "MISSING_DESTINATION"
	ErrQuoteExpired        = "QUOTE_EXPIRED"
	ErrNotImplemented      = "NOT_IMPLEMENTED"
	ErrNoQuote             = "NO_QUOTE"
	ErrAmountTooSmall      = "AMOUNT_TOO_SMALL"
	ErrPublishFailed       = "PUBLISH_FAILED"
	ErrChainError          = "CHAIN_ERROR"
	ErrTerminalMismatch    = "TERMINAL_MISMATCH"
	ErrEncoding            = "ENCODING_ERROR"
	ErrNetworkError        = "NETWORK_ERROR"
	ErrConfigError         = "CONFIG_ERROR"
)

// NewError builds an *Error with a formatted message.
func NewError(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithData attaches diagnostic data and returns the same error.
func (e *Error) WithData(data interface{}) *Error {
	e.Data = data
	return e
}

// AsError extracts the typed error from a chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind()
	}
	return KindInternal
}

// BalanceShortfall is attached to INSUFFICIENT_BALANCE errors raised by the chain.
type BalanceShortfall struct {
	AccountID string `json:"accountId"`
	Balance   string `json:"balance"`
	Cost      string `json:"cost"`
}
