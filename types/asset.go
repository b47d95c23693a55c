package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset is the capability set shared by every token the engine can move.
type Asset interface {
	// AssetID returns the identifier the solver bus and intents contract use.
	AssetID() string

	// ToSmallestUnit converts a human amount into an integer string of
	// smallest units, truncating anything beyond the asset precision.
	ToSmallestUnit(amount decimal.Decimal) string

	// FromSmallestUnit converts an integer string of smallest units back.
	FromSmallestUnit(units string) (decimal.Decimal, error)

	// Base exposes the fields common to both variants.
	Base() *Token
}

// Token holds the fields every asset variant carries.
type Token struct {
	DefuseAssetID string `json:"defuseAssetId"`
	Symbol        string `json:"symbol"`
	Decimals      int32  `json:"decimals"`
	Blockchain    Chain  `json:"blockchain"`
}

func (t *Token) Base() *Token {
	return t
}

func (t *Token) ToSmallestUnit(amount decimal.Decimal) string {
	return amount.Shift(t.Decimals).BigInt().String()
}

func (t *Token) FromSmallestUnit(units string) (decimal.Decimal, error) {
	if units == "" {
		return decimal.Zero, nil
	}
	v, ok := new(big.Int).SetString(units, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid integer amount %q", units)
	}
	return decimal.NewFromBigInt(v, -t.Decimals), nil
}

// NativeAsset is a token resident on the smart-contract ledger, as listed by
// the token catalog.
type NativeAsset struct {
	Token
	ContractAddress string          `json:"contractAddress"`
	Price           decimal.Decimal `json:"price"`
	PriceUpdatedAt  string          `json:"priceUpdatedAt"`
}

var _ Asset = (*NativeAsset)(nil)

func (a *NativeAsset) AssetID() string {
	return a.DefuseAssetID
}

// BridgeableAsset is a token living on an external chain that the bridge can
// route into the intents contract.
type BridgeableAsset struct {
	Token
	NearTokenID         string   `json:"nearTokenId"`
	MinDepositAmount    *big.Int `json:"minDepositAmount"`
	MinWithdrawalAmount *big.Int `json:"minWithdrawalAmount"`
}

var _ Asset = (*BridgeableAsset)(nil)

func (a *BridgeableAsset) AssetID() string {
	return "nep141:" + a.NearTokenID
}

// MinDeposit returns the minimum deposit in human units.
func (a *BridgeableAsset) MinDeposit() decimal.Decimal {
	return smallestToDecimal(a.MinDepositAmount, a.Decimals)
}

// MinWithdrawal returns the minimum withdrawal in human units.
func (a *BridgeableAsset) MinWithdrawal() decimal.Decimal {
	return smallestToDecimal(a.MinWithdrawalAmount, a.Decimals)
}

// DepositChain returns the chain namespace the bridge expects in
// deposit_address requests: the asset identifier without its last segment.
func (a *BridgeableAsset) DepositChain() string {
	parts := strings.Split(a.DefuseAssetID, ":")
	if len(parts) < 2 {
		return a.DefuseAssetID
	}
	return strings.Join(parts[:len(parts)-1], ":")
}

func smallestToDecimal(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}

// TokenDescriptor is one item of the token catalog feed.
type TokenDescriptor struct {
	Blockchain      string           `json:"blockchain" validate:"required"`
	Symbol          string           `json:"symbol" validate:"required"`
	DefuseAssetID   string           `json:"defuse_asset_id"`
	Decimals        *int32           `json:"decimals" validate:"required,gte=0,lte=38"`
	ContractAddress string           `json:"contract_address"`
	Price           *decimal.Decimal `json:"price"`
	PriceUpdatedAt  string           `json:"price_updated_at"`
}

// NewNativeAsset builds a NativeAsset from a catalog descriptor.
func NewNativeAsset(d TokenDescriptor) (*NativeAsset, error) {
	if d.Symbol == "" || d.Blockchain == "" || d.Decimals == nil {
		return nil, NewError(ErrMalformedAsset,
			"malformed catalog entry %q on %q: symbol, decimals and blockchain are required", d.Symbol, d.Blockchain)
	}

	a := &NativeAsset{
		Token: Token{
			DefuseAssetID: d.DefuseAssetID,
			Symbol:        d.Symbol,
			Decimals:      *d.Decimals,
			Blockchain:    NormalizeChain(d.Blockchain),
		},
		ContractAddress: d.ContractAddress,
		PriceUpdatedAt:  d.PriceUpdatedAt,
	}
	if d.Price != nil {
		a.Price = *d.Price
	}
	return a, nil
}

// BridgeTokenDescriptor is one item of the bridge's supported_tokens result.
type BridgeTokenDescriptor struct {
	DefuseAssetIdentifier string `json:"defuse_asset_identifier" validate:"required"`
	NearTokenID           string `json:"near_token_id" validate:"required"`
	Decimals              *int32 `json:"decimals" validate:"required,gte=0,lte=38"`
	AssetName             string `json:"asset_name" validate:"required"`
	MinDepositAmount      string `json:"min_deposit_amount,omitempty"`
	MinWithdrawalAmount   string `json:"min_withdrawal_amount,omitempty"`
	WithdrawalFee         string `json:"withdrawal_fee,omitempty"`
}

// OriginChain derives the external chain of a bridged token: the prefix of
// the NEAR token id before "-" when present, else the lower-cased asset name.
func (d BridgeTokenDescriptor) OriginChain() Chain {
	if i := strings.Index(d.NearTokenID, "-"); i > 0 {
		return NormalizeChain(d.NearTokenID[:i])
	}
	return NormalizeChain(d.AssetName)
}

// NewBridgeableAsset builds a BridgeableAsset from a bridge descriptor.
func NewBridgeableAsset(d BridgeTokenDescriptor) (*BridgeableAsset, error) {
	if d.AssetName == "" || d.NearTokenID == "" || d.Decimals == nil {
		return nil, NewError(ErrMalformedAsset,
			"malformed bridge token %q: asset_name, near_token_id and decimals are required", d.AssetName)
	}

	minDeposit, err := parseOptionalInt(d.MinDepositAmount)
	if err != nil {
		return nil, NewError(ErrMalformedAsset, "bridge token %s: min_deposit_amount: %v", d.AssetName, err)
	}
	minWithdrawal, err := parseOptionalInt(d.MinWithdrawalAmount)
	if err != nil {
		return nil, NewError(ErrMalformedAsset, "bridge token %s: min_withdrawal_amount: %v", d.AssetName, err)
	}

	return &BridgeableAsset{
		Token: Token{
			DefuseAssetID: d.DefuseAssetIdentifier,
			Symbol:        d.AssetName,
			Decimals:      *d.Decimals,
			Blockchain:    d.OriginChain(),
		},
		NearTokenID:         d.NearTokenID,
		MinDepositAmount:    minDeposit,
		MinWithdrawalAmount: minWithdrawal,
	}, nil
}

func parseOptionalInt(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}
