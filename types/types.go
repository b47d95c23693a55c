package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Standard is the signing standard of an intent envelope.
type Standard string

const (
	StandardNEP413 Standard = "nep413"
)

// Number returns the numeric id used to build the digest tag.
func (s Standard) Number() (uint32, bool) {
	switch s {
	case StandardNEP413:
		return 413, true
	default:
		return 0, false
	}
}

// IntentKind is the "intent" discriminator inside an intent message.
type IntentKind string

const (
	IntentTokenDiff      IntentKind = "token_diff"
	IntentNativeWithdraw IntentKind = "native_withdraw"
	IntentFtWithdraw     IntentKind = "ft_withdraw"
)

// Intent is one state change authorized by a signed message.
type Intent struct {
	Intent     IntentKind        `json:"intent"`
	Diff       map[string]string `json:"diff,omitempty"`
	Token      string            `json:"token,omitempty"`
	ReceiverID string            `json:"receiver_id,omitempty"`
	Amount     string            `json:"amount,omitempty"`
	Memo       string            `json:"memo,omitempty"`
}

// IntentMessage is the JSON document that gets signed.
type IntentMessage struct {
	SignerID string   `json:"signer_id"`
	Deadline string   `json:"deadline"`
	Intents  []Intent `json:"intents"`
}

// EnvelopePayload is the signed part of an envelope.
type EnvelopePayload struct {
	Message   string `json:"message"`
	Nonce     string `json:"nonce"`
	Recipient string `json:"recipient"`
}

// SignedEnvelope is transmitted verbatim to the solver bus.
type SignedEnvelope struct {
	Standard  Standard        `json:"standard"`
	Payload   EnvelopePayload `json:"payload"`
	Signature string          `json:"signature"`
	PublicKey string          `json:"public_key"`
}

// PublishRequest is the single parameter of publish_intent.
type PublishRequest struct {
	QuoteHashes []string       `json:"quote_hashes"`
	SignedData  SignedEnvelope `json:"signed_data"`
}

// QuoteRequest is the single parameter of the quote method.
type QuoteRequest struct {
	AssetIn       string `json:"defuse_asset_identifier_in"`
	AssetOut      string `json:"defuse_asset_identifier_out"`
	ExactAmountIn string `json:"exact_amount_in"`
}

// QuoteTypeInsufficientAmount flags a quote the solver could not fill
// because the input was too small.
const QuoteTypeInsufficientAmount = "INSUFFICIENT_AMOUNT"

// Quote is issued by a solver and is immutable until it expires.
type Quote struct {
	QuoteHash      string `json:"quote_hash"`
	AssetIn        string `json:"defuse_asset_identifier_in"`
	AssetOut       string `json:"defuse_asset_identifier_out"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	ExpirationTime string `json:"expiration_time"`
	Type           string `json:"type,omitempty"`
}

// Expired reports whether the quote expiration is at or before now.
// Unparseable expirations count as expired.
func (q *Quote) Expired(now time.Time) bool {
	exp, err := time.Parse(time.RFC3339Nano, q.ExpirationTime)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}

// IntentStatus is the settlement status reported by the solver bus.
type IntentStatus string

const (
	StatusPending       IntentStatus = "PENDING"
	StatusTxBroadcasted IntentStatus = "TX_BROADCASTED"
	StatusSettled       IntentStatus = "SETTLED"
	StatusNotFound      IntentStatus = "NOT_FOUND_OR_NOT_VALID"
)

// InFlight reports whether polling should continue for this status.
func (s IntentStatus) InFlight() bool {
	return s == StatusPending || s == StatusTxBroadcasted || s == StatusSettled
}

// StatusResponse is the result of get_status.
type StatusResponse struct {
	IntentHash string       `json:"intent_hash"`
	Status     IntentStatus `json:"status"`
	Data       *struct {
		Hash string `json:"hash"`
	} `json:"data,omitempty"`
}

// TxHash returns the on-chain hash carried by the status, if any.
func (r *StatusResponse) TxHash() string {
	if r.Data == nil {
		return ""
	}
	return r.Data.Hash
}

// Outcome is the terminal result of an intent that went through the venue.
type Outcome struct {
	Status     IntentStatus `json:"status"`
	IntentHash string       `json:"intentHash"`
	TxHash     string       `json:"txHash"`
}

// Succeeded is true only when a transaction hash was observed.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.TxHash != ""
}

// BestQuote is the selected quote plus its human-readable output amount.
type BestQuote struct {
	QuoteHash      string          `json:"quoteHash"`
	AmountOut      decimal.Decimal `json:"amountOut"`
	ExpirationTime string          `json:"expirationTime"`
	Quote          Quote           `json:"quote"`
}

type SwapOutcome struct {
	Outcome
	AmountOut decimal.Decimal `json:"amountOut"`
}

// PostSettlement describes a follow-up transaction run after a withdrawal settled.
type PostSettlement struct {
	Chain  Chain  `json:"chain"`
	TxHash string `json:"txHash"`
}

type WithdrawOutcome struct {
	Outcome
	Chain          Chain           `json:"chain"`
	PostSettlement *PostSettlement `json:"postSettlement,omitempty"`
	Notes          []string        `json:"notes,omitempty"`
}

type DepositOutcome struct {
	Chain  Chain  `json:"chain"`
	TxHash string `json:"txHash"`
}

type SendOutcome struct {
	Chain  Chain  `json:"chain"`
	TxHash string `json:"txHash"`
}

// TxOutcome is what an on-chain call returns.
type TxOutcome struct {
	TxHash       string `json:"txHash"`
	SuccessValue []byte `json:"successValue,omitempty"`
}

// AddressBalance pairs a wallet address with its balance.
type AddressBalance struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

// ZcashSummary lists the privacy-coin wallet addresses by pool.
type ZcashSummary struct {
	UnifiedAddress     AddressBalance   `json:"uaAddresses"`
	ShieldedAddresses  []AddressBalance `json:"zAddresses"`
	TransparentAddress []AddressBalance `json:"tAddresses"`
}

// WalletSummary is the combined view of both ledgers.
type WalletSummary struct {
	Zcash *ZcashSummary  `json:"ZEC,omitempty"`
	Near  AddressBalance `json:"NEAR"`
}

// TokenPrice is the last known USD price of a catalog asset.
type TokenPrice struct {
	USDPrice       decimal.Decimal `json:"usdPrice"`
	PriceUpdatedAt string          `json:"priceUpdatedAt"`
}

// NearConfig configures the smart-contract ledger identity.
type NearConfig struct {
	RPCURL          string `json:"rpcUrl" validate:"required,url"`
	AccountID       string `json:"accountId" validate:"required"`
	PrivateKey      string `json:"privateKey" validate:"required"`
	IntentsContract string `json:"intentsContract,omitempty"`
	WrapContract    string `json:"wrapContract,omitempty"`
}

// ZcashConfig configures the privacy-coin wallet process.
type ZcashConfig struct {
	Enabled  bool   `json:"enabled"`
	CLIPath  string `json:"cliPath" validate:"required_if=Enabled true"`
	Server   string `json:"server,omitempty"`
	DataDir  string `json:"dataDir,omitempty"`
	Mnemonic string `json:"mnemonic,omitempty"`
	Birthday uint64 `json:"birthday,omitempty"`
}

// Config is the top-level configuration of the engine and daemon.
type Config struct {
	Near              NearConfig  `json:"near" validate:"required"`
	Zcash             ZcashConfig `json:"zcash"`
	CatalogURL        string      `json:"catalogUrl" validate:"required,url"`
	SolverURL         string      `json:"solverUrl" validate:"required,url"`
	BridgeURL         string      `json:"bridgeUrl" validate:"required,url"`
	PollInterval      Duration    `json:"pollInterval,omitempty"`
	SettlementTimeout Duration    `json:"settlementTimeout,omitempty"`
	HTTPTimeout       Duration    `json:"httpTimeout,omitempty"`
	RetryCount        int         `json:"retryCount,omitempty" validate:"gte=0,lte=10"`
	LogLevel          string      `json:"logLevel,omitempty" validate:"omitempty,oneof=debug info warn error"`
	EnableMetrics     bool        `json:"enableMetrics,omitempty"`
	ListenAddr        string      `json:"listenAddr,omitempty"`
}

// Defaults
const (
	DefaultIntentsContract   = "intents.near"
	DefaultWrapContract      = "wrap.near"
	DefaultNearRPCURL        = "https://rpc.mainnet.near.org"
	DefaultCatalogURL        = "https://api-mng-console.chaindefuser.com/api/tokens"
	DefaultSolverURL         = "https://solver-relay-v2.chaindefuser.com/rpc"
	DefaultBridgeURL         = "https://bridge.chaindefuser.com/rpc"
	DefaultZcashServer       = "https://zec.rocks:443"
	DefaultPollInterval      = time.Second
	DefaultSettlementTimeout = 5 * time.Minute
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultListenAddr        = ":8000"
)

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.Near.RPCURL == "" {
		c.Near.RPCURL = DefaultNearRPCURL
	}
	if c.Near.IntentsContract == "" {
		c.Near.IntentsContract = DefaultIntentsContract
	}
	if c.Near.WrapContract == "" {
		c.Near.WrapContract = DefaultWrapContract
	}
	if c.CatalogURL == "" {
		c.CatalogURL = DefaultCatalogURL
	}
	if c.SolverURL == "" {
		c.SolverURL = DefaultSolverURL
	}
	if c.BridgeURL == "" {
		c.BridgeURL = DefaultBridgeURL
	}
	if c.Zcash.Server == "" {
		c.Zcash.Server = DefaultZcashServer
	}
	if c.PollInterval <= 0 {
		c.PollInterval = Duration(DefaultPollInterval)
	}
	if c.SettlementTimeout <= 0 {
		c.SettlementTimeout = Duration(DefaultSettlementTimeout)
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = Duration(DefaultHTTPTimeout)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
}
