// Package account is the custodial identity: it owns the ed25519 key,
// makes the on-chain calls the engine needs and signs NEP-413 intents.
package account

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/clients"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/utils"
	"github.com/vitwit/zizza/utils/nep413"
)

// WithdrawalDeadline is how long a signed withdrawal stays valid.
const WithdrawalDeadline = time.Minute

// Chain is the NEAR surface the account needs. *clients.NearClient
// implements it.
type Chain interface {
	AccountID() string
	PublicKey() ed25519.PublicKey
	ViewAccount(ctx context.Context, accountID string) (*clients.AccountView, error)
	ViewFunction(ctx context.Context, contract, method string, args any, result any) error
	FunctionCall(ctx context.Context, contract, method string, args any, gas uint64, deposit *big.Int) (*types.TxOutcome, error)
	SendMoney(ctx context.Context, receiver string, amount *big.Int) (*types.TxOutcome, error)
	SignAndSubmit(ctx context.Context, receiver string, actions ...clients.Action) (*types.TxOutcome, error)
}

var _ Chain = (*clients.NearClient)(nil)

type Account struct {
	chain           Chain
	key             ed25519.PrivateKey
	intentsContract string
	wrapContract    string
	log             logger.Logger
	now             func() time.Time
}

type Option func(*Account)

func WithLogger(l logger.Logger) Option {
	return func(a *Account) { a.log = l }
}

// WithClock overrides the time source used for deadlines.
func WithClock(now func() time.Time) Option {
	return func(a *Account) { a.now = now }
}

// WithContracts overrides the intents and wrap contract ids.
func WithContracts(intents, wrap string) Option {
	return func(a *Account) {
		if intents != "" {
			a.intentsContract = intents
		}
		if wrap != "" {
			a.wrapContract = wrap
		}
	}
}

func New(chain Chain, key ed25519.PrivateKey, opts ...Option) *Account {
	a := &Account{
		chain:           chain,
		key:             key,
		intentsContract: types.DefaultIntentsContract,
		wrapContract:    types.DefaultWrapContract,
		log:             logger.NoopLogger{},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Account) AccountID() string {
	return a.chain.AccountID()
}

// PublicKey returns the signing key as "ed25519:<base58>".
func (a *Account) PublicKey() string {
	return utils.EncodePublicKey(a.key.Public().(ed25519.PublicKey))
}

func (a *Account) IntentsContract() string {
	return a.intentsContract
}

// RegisterIntentPublicKey adds the signing key to the intents contract
// unless it is already there. It reports whether a transaction was sent.
func (a *Account) RegisterIntentPublicKey(ctx context.Context) (bool, error) {
	pub := a.PublicKey()

	var has bool
	if err := a.chain.ViewFunction(ctx, a.intentsContract, "has_public_key", map[string]string{
		"account_id": a.AccountID(),
		"public_key": pub,
	}, &has); err != nil {
		return false, err
	}
	if has {
		return false, nil
	}

	out, err := a.chain.FunctionCall(ctx, a.intentsContract, "add_public_key", map[string]string{
		"public_key": pub,
	}, clients.MaxGas, clients.OneYocto)
	if err != nil {
		return false, err
	}
	a.log.Info("registered intent public key", map[string]any{"publicKey": pub, "txHash": out.TxHash})
	return true, nil
}

type storageBalance struct {
	Total     string `json:"total"`
	Available string `json:"available"`
}

// HasStorageBalance reports whether accountID is registered on the token
// contract of asset.
func (a *Account) HasStorageBalance(ctx context.Context, asset *types.NativeAsset, accountID string) (bool, error) {
	var bal *storageBalance
	if err := a.chain.ViewFunction(ctx, asset.ContractAddress, "storage_balance_of", map[string]string{
		"account_id": accountID,
	}, &bal); err != nil {
		return false, err
	}
	if bal == nil {
		return false, nil
	}
	total, ok := new(big.Int).SetString(bal.Total, 10)
	return ok && total.Sign() > 0, nil
}

// RegisterTokenStorage pays the storage deposit for accountID on the token
// contract of asset.
func (a *Account) RegisterTokenStorage(ctx context.Context, asset *types.NativeAsset, accountID string) (*types.TxOutcome, error) {
	out, err := a.chain.FunctionCall(ctx, asset.ContractAddress, "storage_deposit", map[string]string{
		"account_id": accountID,
	}, clients.MaxGas, clients.StorageDepositAmount)
	if err != nil {
		return nil, err
	}
	a.log.Info("registered token storage", map[string]any{
		"token":   asset.ContractAddress,
		"account": accountID,
		"txHash":  out.TxHash,
	})
	return out, nil
}

func (a *Account) ensureStorage(ctx context.Context, asset *types.NativeAsset, accountID string) error {
	ok, err := a.HasStorageBalance(ctx, asset, accountID)
	if err != nil || ok {
		return err
	}
	_, err = a.RegisterTokenStorage(ctx, asset, accountID)
	return err
}

// SignIntent signs msg as a NEP-413 envelope addressed to the intents
// contract, with a fresh random nonce.
func (a *Account) SignIntent(msg *types.IntentMessage) (*types.SignedEnvelope, error) {
	message, err := marshalCompact(msg)
	if err != nil {
		return nil, types.NewError(types.ErrEncoding, "encode intent message: %v", err)
	}

	nonce, err := nep413.GenerateNonce()
	if err != nil {
		return nil, err
	}
	raw, err := nep413.DecodeNonce(nonce)
	if err != nil {
		return nil, err
	}

	digest, err := nep413.EnvelopeDigest(message, a.intentsContract, raw, types.StandardNEP413)
	if err != nil {
		return nil, err
	}

	return &types.SignedEnvelope{
		Standard: types.StandardNEP413,
		Payload: types.EnvelopePayload{
			Message:   message,
			Nonce:     nonce,
			Recipient: a.intentsContract,
		},
		Signature: utils.SignDigest(digest[:], a.key),
		PublicKey: a.PublicKey(),
	}, nil
}

func marshalCompact(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// SignSwap authorizes the token diff of a quote. The deadline is the quote
// expiration. Expired quotes are refused.
func (a *Account) SignSwap(quote *types.Quote) (*types.PublishRequest, error) {
	if quote.Expired(a.now()) {
		return nil, types.NewError(types.ErrQuoteExpired, "quote %s expired at %s", quote.QuoteHash, quote.ExpirationTime)
	}

	env, err := a.SignIntent(&types.IntentMessage{
		SignerID: a.AccountID(),
		Deadline: quote.ExpirationTime,
		Intents: []types.Intent{{
			Intent: types.IntentTokenDiff,
			Diff: map[string]string{
				quote.AssetIn:  "-" + quote.AmountIn,
				quote.AssetOut: quote.AmountOut,
			},
		}},
	})
	if err != nil {
		return nil, err
	}
	return &types.PublishRequest{QuoteHashes: []string{quote.QuoteHash}, SignedData: *env}, nil
}

// Withdrawal describes funds leaving the intents contract.
type Withdrawal struct {
	Asset  types.Asset
	Amount decimal.Decimal
	// Destination is the external-chain address for bridged assets.
	Destination string
	// Native withdraws NEAR itself out of the wNEAR balance.
	Native bool
}

// SignWithdrawal builds and signs the withdrawal intent. For NEAR-resident
// tokens the account's own storage registration is ensured first.
func (a *Account) SignWithdrawal(ctx context.Context, w Withdrawal) (*types.PublishRequest, error) {
	intent := types.Intent{Amount: w.Asset.ToSmallestUnit(w.Amount)}

	switch asset := w.Asset.(type) {
	case *types.BridgeableAsset:
		if w.Destination == "" {
			return nil, types.NewError(types.ErrMissingDestination, "a destination address is required to withdraw %s", asset.Symbol)
		}
		intent.Intent = types.IntentFtWithdraw
		intent.Token = asset.NearTokenID
		intent.ReceiverID = asset.NearTokenID
		intent.Memo = "WITHDRAW_TO:" + w.Destination

	case *types.NativeAsset:
		if w.Native {
			intent.Intent = types.IntentNativeWithdraw
			intent.ReceiverID = a.AccountID()
			break
		}
		if !asset.Blockchain.IsNear() {
			return nil, types.NewError(types.ErrInvalidRequest, "%s on %s is not withdrawable to NEAR", asset.Symbol, asset.Blockchain)
		}
		if err := a.ensureStorage(ctx, asset, a.AccountID()); err != nil {
			return nil, err
		}
		intent.Intent = types.IntentFtWithdraw
		intent.Token = asset.ContractAddress
		intent.ReceiverID = a.AccountID()

	default:
		return nil, types.NewError(types.ErrInvalidRequest, "unsupported asset type %T", w.Asset)
	}

	env, err := a.SignIntent(&types.IntentMessage{
		SignerID: a.AccountID(),
		Deadline: utils.FormatDeadline(a.now(), WithdrawalDeadline),
		Intents:  []types.Intent{intent},
	})
	if err != nil {
		return nil, err
	}
	return &types.PublishRequest{QuoteHashes: []string{}, SignedData: *env}, nil
}

// Transfer sends a NEP-141 token, registering the recipient's storage
// first when needed.
func (a *Account) Transfer(ctx context.Context, asset *types.NativeAsset, to string, amount decimal.Decimal) (string, error) {
	if err := a.ensureStorage(ctx, asset, to); err != nil {
		return "", err
	}
	out, err := a.chain.FunctionCall(ctx, asset.ContractAddress, "ft_transfer", map[string]string{
		"receiver_id": to,
		"amount":      asset.ToSmallestUnit(amount),
		"msg":         "",
	}, clients.MaxGas, clients.OneYocto)
	if err != nil {
		return "", err
	}
	return out.TxHash, nil
}

var nearToken = types.Token{Symbol: types.SymbolNEAR, Decimals: types.NearDecimals, Blockchain: types.ChainNear}

// SendNative transfers NEAR.
func (a *Account) SendNative(ctx context.Context, to string, amount decimal.Decimal) (string, error) {
	yocto, ok := new(big.Int).SetString(nearToken.ToSmallestUnit(amount), 10)
	if !ok {
		return "", types.NewError(types.ErrEncoding, "invalid NEAR amount %s", amount)
	}
	out, err := a.chain.SendMoney(ctx, to, yocto)
	if err != nil {
		return "", err
	}
	return out.TxHash, nil
}

// NativeBalance returns the account's NEAR balance.
func (a *Account) NativeBalance(ctx context.Context) (decimal.Decimal, error) {
	v, err := a.chain.ViewAccount(ctx, a.AccountID())
	if err != nil {
		return decimal.Zero, err
	}
	bal, err := nearToken.FromSmallestUnit(v.Amount)
	if err != nil {
		return decimal.Zero, types.NewError(types.ErrChainError, "view_account amount: %v", err)
	}
	return bal, nil
}

// TokenBalance returns the account's wallet balance of a NEP-141 token.
func (a *Account) TokenBalance(ctx context.Context, asset *types.NativeAsset) (decimal.Decimal, error) {
	var units string
	if err := a.chain.ViewFunction(ctx, asset.ContractAddress, "ft_balance_of", map[string]string{
		"account_id": a.AccountID(),
	}, &units); err != nil {
		return decimal.Zero, err
	}
	bal, err := asset.FromSmallestUnit(units)
	if err != nil {
		return decimal.Zero, types.NewError(types.ErrChainError, "ft_balance_of %s: %v", asset.ContractAddress, err)
	}
	return bal, nil
}
