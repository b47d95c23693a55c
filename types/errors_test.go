package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := map[string]ErrorKind{
		ErrInsufficientBalance: KindValidation,
		ErrBelowMinimum:        KindValidation,
		ErrNotImplemented:      KindValidation,
		ErrNoQuote:             KindVenue,
		ErrAmountTooSmall:      KindVenue,
		ErrChainError:          KindChain,
		ErrTerminalMismatch:    KindTerminalMismatch,
		ErrNetworkError:        KindInternal,
		"SOMETHING_NEW":        KindInternal,
	}
	for code, want := range tests {
		assert.Equal(t, want, NewError(code, "x").Kind(), code)
	}
}

func TestErrorThroughWrapping(t *testing.T) {
	base := NewError(ErrNotDeposited, "USDC is not deposited").WithData(map[string]string{"asset": "USDC"})
	err := fmt.Errorf("swap: %w", base)

	assert.True(t, IsCode(err, ErrNotDeposited))
	assert.False(t, IsCode(err, ErrNoQuote))
	assert.Equal(t, KindValidation, KindOf(err))

	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "USDC is not deposited", e.Error())
	assert.Equal(t, map[string]string{"asset": "USDC"}, e.Data)
}

func TestUntypedErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	_, ok := AsError(err)
	assert.False(t, ok)
	assert.Equal(t, KindInternal, KindOf(err))
}
