package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Requests reach the engine already normalized: chains lower-cased, symbols
// trimmed, amounts parsed and positive. Normalize does that once at the
// boundary.

type BalanceRequest struct {
	Symbol  string `json:"asset_symbol" validate:"required"`
	Chain   Chain  `json:"asset_chain" validate:"required"`
	OnVenue bool   `json:"on_intent_contract"`
}

func (r *BalanceRequest) Normalize() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Chain = NormalizeChain(string(r.Chain))
	return nil
}

type PriceRequest struct {
	Symbol string `json:"asset_symbol" validate:"required"`
	Chain  Chain  `json:"asset_chain" validate:"required"`
}

func (r *PriceRequest) Normalize() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Chain = NormalizeChain(string(r.Chain))
	return nil
}

// SwapRequest also serves best-quote lookups.
type SwapRequest struct {
	InSymbol  string          `json:"asset_in_symbol" validate:"required"`
	InChain   Chain           `json:"asset_in_chain" validate:"required"`
	OutSymbol string          `json:"asset_out_symbol" validate:"required"`
	OutChain  Chain           `json:"asset_out_chain" validate:"required"`
	AmountIn  decimal.Decimal `json:"amount_in"`
}

func (r *SwapRequest) Normalize() error {
	r.InSymbol = strings.TrimSpace(r.InSymbol)
	r.OutSymbol = strings.TrimSpace(r.OutSymbol)
	r.InChain = NormalizeChain(string(r.InChain))
	r.OutChain = NormalizeChain(string(r.OutChain))
	return positive("amount_in", r.AmountIn)
}

type WithdrawRequest struct {
	Symbol      string          `json:"asset_symbol" validate:"required"`
	Chain       Chain           `json:"asset_chain" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"native_dest_address,omitempty"`
}

func (r *WithdrawRequest) Normalize() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Chain = NormalizeChain(string(r.Chain))
	r.Destination = strings.TrimSpace(r.Destination)
	return positive("amount", r.Amount)
}

type DepositRequest struct {
	Symbol string          `json:"asset_symbol" validate:"required"`
	Chain  Chain           `json:"asset_chain" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func (r *DepositRequest) Normalize() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Chain = NormalizeChain(string(r.Chain))
	return positive("amount", r.Amount)
}

type SendRequest struct {
	Symbol string          `json:"asset_symbol" validate:"required"`
	Chain  Chain           `json:"asset_chain" validate:"required"`
	To     string          `json:"to_address" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func (r *SendRequest) Normalize() error {
	r.Symbol = strings.TrimSpace(r.Symbol)
	r.Chain = NormalizeChain(string(r.Chain))
	r.To = strings.TrimSpace(r.To)
	return positive("amount", r.Amount)
}

func positive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return NewError(ErrInvalidRequest, "%s must be greater than zero, got %s", field, v.String())
	}
	return nil
}
