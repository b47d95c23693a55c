// Package zizza moves value between a NEAR account and a Zcash wallet through
// the NEAR intents solver bus: it resolves assets, signs NEP-413 intents,
// picks the best solver quote and drives swaps, deposits, withdrawals and
// sends to a confirmed on-chain transaction.
package zizza

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/account"
	"github.com/vitwit/zizza/catalog"
	"github.com/vitwit/zizza/clients"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/metrics"
	"github.com/vitwit/zizza/settlement"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/utils"
	"github.com/vitwit/zizza/verification"
)

// Catalog resolves NEAR-resident assets.
type Catalog interface {
	Token(symbol string, chain types.Chain) (*types.NativeAsset, error)
	Assets() []*types.NativeAsset
	Chains() []string
	TokensByChain(chain types.Chain) []string
	ChainsByToken(symbol string) []string
	TokenPrice(ctx context.Context, symbol string, chain types.Chain) (*types.TokenPrice, error)
}

// Solver quotes swaps and settles signed intents.
type Solver interface {
	settlement.Venue
	BestQuote(ctx context.Context, in, out types.Asset, amountIn decimal.Decimal) (*types.BestQuote, error)
}

// Bridge routes assets between external chains and the intents contract.
type Bridge interface {
	Token(symbol string, chain types.Chain) *types.BridgeableAsset
	DepositAddress(ctx context.Context, asset *types.BridgeableAsset, accountID string) (string, error)
}

// Signer is the NEAR identity. *account.Account implements it.
type Signer interface {
	AccountID() string
	SignSwap(quote *types.Quote) (*types.PublishRequest, error)
	SignWithdrawal(ctx context.Context, w account.Withdrawal) (*types.PublishRequest, error)
	VenueBalances(ctx context.Context, assets []types.Asset) ([]decimal.Decimal, error)
	VenueBalance(ctx context.Context, asset types.Asset) (decimal.Decimal, error)
	NativeBalance(ctx context.Context) (decimal.Decimal, error)
	TokenBalance(ctx context.Context, asset *types.NativeAsset) (decimal.Decimal, error)
	Transfer(ctx context.Context, asset *types.NativeAsset, to string, amount decimal.Decimal) (string, error)
	SendNative(ctx context.Context, to string, amount decimal.Decimal) (string, error)
	DepositToken(ctx context.Context, asset *types.NativeAsset, amount decimal.Decimal) (string, error)
	DepositNear(ctx context.Context, wnear *types.NativeAsset, amount decimal.Decimal) (string, error)
}

// Wallet is the Zcash wallet. *clients.ZcashWallet implements it.
type Wallet interface {
	Balance(ctx context.Context) (decimal.Decimal, error)
	Summary(ctx context.Context) (*types.ZcashSummary, error)
	Address(ctx context.Context, shielded bool) (string, error)
	TransparentAddresses(ctx context.Context) ([]string, error)
	Send(ctx context.Context, to string, amount decimal.Decimal) (string, error)
	Shield(ctx context.Context, to string) (string, error)
	DefaultFee(ctx context.Context) (decimal.Decimal, error)
	WaitTxConfirmed(ctx context.Context, txid string) error
}

var (
	_ Catalog = (*catalog.Catalog)(nil)
	_ Solver  = (*clients.SolverClient)(nil)
	_ Bridge  = (*clients.BridgeClient)(nil)
	_ Signer  = (*account.Account)(nil)
	_ Wallet  = (*clients.ZcashWallet)(nil)
)

// Components are the collaborators of an Engine. Wallet may be nil when the
// Zcash side is disabled.
type Components struct {
	Catalog Catalog
	Solver  Solver
	Bridge  Bridge
	Account Signer
	Wallet  Wallet
}

// Engine runs the balance, swap, withdraw, deposit and send operations.
// Operations are independent and safe to run concurrently.
type Engine struct {
	Components

	settler  *settlement.SettlementService
	verifier *verification.VerificationService

	logger       logger.Logger
	metrics      metrics.Recorder
	timeout      time.Duration
	pollInterval time.Duration

	closers []func()
}

// NewEngine assembles an engine from ready collaborators.
func NewEngine(c Components, opts ...Option) *Engine {
	e := newEngine(opts...)
	e.attach(c)
	return e
}

func newEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:       logger.NoopLogger{},
		metrics:      metrics.NoopRecorder{},
		timeout:      types.DefaultSettlementTimeout,
		pollInterval: types.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) attach(c Components) {
	e.Components = c
	e.settler = settlement.NewSettlementService(c.Solver, e.timeout, e.logger, e.metrics)
	e.verifier = verification.NewVerificationService(c.Account)
}

// New connects to every remote collaborator described by cfg and registers
// the signing key on the intents contract.
func New(ctx context.Context, cfg *types.Config, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := utils.ValidateStruct(cfg); err != nil {
		return nil, types.NewError(types.ErrConfigError, "invalid config: %v", err)
	}

	e := newEngine(append([]Option{
		WithTimeout(cfg.SettlementTimeout.Std()),
		WithPollInterval(cfg.PollInterval.Std()),
	}, opts...)...)

	key, err := utils.ParseEd25519PrivateKey(cfg.Near.PrivateKey)
	if err != nil {
		return nil, types.NewError(types.ErrConfigError, "invalid NEAR private key: %v", err)
	}

	retry := clients.DefaultRetryConfig()
	retry.MaxRetries = cfg.RetryCount
	retry.OnRetry = func(attempt int, err error) {
		e.logger.Warn("retrying request", map[string]any{"attempt": attempt, "error": err})
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout.Std()}
	clientOpts := clients.Options{HTTPClient: httpClient, Retry: retry, Logger: e.logger}

	near := clients.NewNearClient(cfg.Near.RPCURL, cfg.Near.AccountID, key, clientOpts)
	acct := account.New(near, key,
		account.WithLogger(e.logger),
		account.WithContracts(cfg.Near.IntentsContract, cfg.Near.WrapContract),
	)

	cat, err := catalog.New(ctx, cfg.CatalogURL, httpClient)
	if err != nil {
		return nil, err
	}

	solver, err := clients.NewSolverClient(ctx, cfg.SolverURL, e.pollInterval, clientOpts)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, solver.Close)

	bridge, err := clients.NewBridgeClient(ctx, cfg.BridgeURL, clientOpts)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, bridge.Close)

	c := Components{Catalog: cat, Solver: solver, Bridge: bridge, Account: acct}
	if cfg.Zcash.Enabled {
		wallet, err := clients.NewZcashWallet(ctx, cfg.Zcash, clientOpts)
		if err != nil {
			e.Close()
			return nil, err
		}
		c.Wallet = wallet
	}
	e.attach(c)

	sent, err := acct.RegisterIntentPublicKey(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.logger.Info("engine ready", map[string]any{
		"account":        acct.AccountID(),
		"key_registered": sent,
		"zcash":          cfg.Zcash.Enabled,
	})
	return e, nil
}

// Close releases the JSON-RPC clients.
func (e *Engine) Close() {
	for _, c := range e.closers {
		c()
	}
	e.closers = nil
}

// begin records the start of an operation and returns the function that
// records its end.
func (e *Engine) begin(operation string, chain types.Chain, fields map[string]any) func(err error) {
	labels := metrics.Labels(operation, chain.String())
	start := time.Now()

	if fields == nil {
		fields = map[string]any{}
	}
	fields["operation"] = operation
	fields["chain"] = chain.String()

	e.metrics.IncCounter(metrics.OperationStarted, labels)
	e.logger.Info("operation started", fields)

	return func(err error) {
		e.metrics.ObserveLatency(operation, time.Since(start), labels)
		if err != nil {
			e.metrics.IncCounter(metrics.OperationFailed, labels)
			fields["error"] = err
			fields["kind"] = types.KindOf(err)
			e.logger.Error("operation failed", fields)
			return
		}
		e.metrics.IncCounter(metrics.OperationSucceeded, labels)
		e.logger.Info("operation finished", fields)
	}
}

func (e *Engine) wallet() (Wallet, error) {
	if e.Wallet == nil {
		return nil, types.NewError(types.ErrConfigError, "zcash wallet is not enabled")
	}
	return e.Wallet, nil
}
