package zizza

import (
	"context"
	"crypto/ed25519"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/zizza/account"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/metrics"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/utils"
	"github.com/vitwit/zizza/utils/nep413"
)

var (
	usdc = &types.NativeAsset{
		Token:           types.Token{DefuseAssetID: "nep141:usdc.near", Symbol: "USDC", Decimals: 6, Blockchain: types.ChainNear},
		ContractAddress: "usdc.near",
	}
	wnear = &types.NativeAsset{
		Token:           types.Token{DefuseAssetID: "nep141:wrap.near", Symbol: "wNEAR", Decimals: 24, Blockchain: types.ChainNear},
		ContractAddress: "wrap.near",
	}
	btc = &types.NativeAsset{
		Token: types.Token{DefuseAssetID: "nep141:btc.omft.near", Symbol: "BTC", Decimals: 8, Blockchain: "btc"},
	}
	btcBridged = &types.BridgeableAsset{
		Token:               types.Token{DefuseAssetID: "btc:mainnet:native", Symbol: "BTC", Decimals: 8, Blockchain: "btc"},
		NearTokenID:         "btc.omft.near",
		MinWithdrawalAmount: big.NewInt(10000),
	}
	zecBridged = &types.BridgeableAsset{
		Token:               types.Token{DefuseAssetID: "zec:mainnet:native", Symbol: "ZEC", Decimals: 8, Blockchain: types.ChainZcash},
		NearTokenID:         "zec.omft.near",
		MinDepositAmount:    big.NewInt(1000000),
		MinWithdrawalAmount: big.NewInt(500000),
	}
)

type fakeCatalog struct{}

func (fakeCatalog) Token(symbol string, chain types.Chain) (*types.NativeAsset, error) {
	for _, a := range []*types.NativeAsset{usdc, wnear, btc} {
		if a.Symbol == symbol && a.Blockchain == chain {
			return a, nil
		}
	}
	return nil, types.NewError(types.ErrUnknownAsset, "%s on %s not found", symbol, chain)
}

func (fakeCatalog) Assets() []*types.NativeAsset       { return []*types.NativeAsset{usdc, wnear, btc} }
func (fakeCatalog) Chains() []string                   { return []string{"btc", "near"} }
func (fakeCatalog) TokensByChain(types.Chain) []string { return []string{"USDC", "wNEAR"} }
func (fakeCatalog) ChainsByToken(string) []string      { return []string{"near"} }
func (fakeCatalog) TokenPrice(context.Context, string, types.Chain) (*types.TokenPrice, error) {
	return &types.TokenPrice{USDPrice: decimal.NewFromInt(1)}, nil
}

type fakeSolver struct {
	mu        sync.Mutex
	quotes    int
	published []*types.PublishRequest
	best      *types.BestQuote
	outcome   *types.Outcome
}

func (f *fakeSolver) BestQuote(context.Context, types.Asset, types.Asset, decimal.Decimal) (*types.BestQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes++
	return f.best, nil
}

func (f *fakeSolver) PublishIntent(_ context.Context, req *types.PublishRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, req)
	return "intent-1", nil
}

func (f *fakeSolver) WaitForSettlement(_ context.Context, hash string, onPoll func(*types.StatusResponse)) (*types.Outcome, error) {
	onPoll(&types.StatusResponse{Status: f.outcome.Status})
	out := *f.outcome
	out.IntentHash = hash
	return &out, nil
}

func (f *fakeSolver) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quotes + len(f.published)
}

type fakeBridge struct {
	addresses int
}

func (f *fakeBridge) Token(symbol string, chain types.Chain) *types.BridgeableAsset {
	switch {
	case symbol == "ZEC" && chain == types.ChainZcash:
		return zecBridged
	case symbol == "BTC" && chain == "btc":
		return btcBridged
	}
	return nil
}

func (f *fakeBridge) DepositAddress(context.Context, *types.BridgeableAsset, string) (string, error) {
	f.addresses++
	return "t1BridgeDepositAddress0000000000000", nil
}

var signingKey = ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))

// signedRequest builds a publish request whose envelope signature verifies.
func signedRequest(quoteHashes ...string) *types.PublishRequest {
	nonce, err := nep413.GenerateNonce()
	if err != nil {
		panic(err)
	}
	env := types.SignedEnvelope{
		Standard: types.StandardNEP413,
		Payload: types.EnvelopePayload{
			Message:   `{"signer_id":"alice.near","deadline":"2030-01-01T00:00:00.000Z","intents":[]}`,
			Nonce:     nonce,
			Recipient: "intents.near",
		},
		PublicKey: utils.EncodePublicKey(signingKey.Public().(ed25519.PublicKey)),
	}
	digest, err := nep413.DigestOf(&env)
	if err != nil {
		panic(err)
	}
	env.Signature = utils.SignDigest(digest[:], signingKey)
	return &types.PublishRequest{QuoteHashes: append([]string{}, quoteHashes...), SignedData: env}
}

type fakeSigner struct {
	venue       map[string]decimal.Decimal
	wallet      map[string]decimal.Decimal
	native      decimal.Decimal
	signed      []string
	withdrawals []account.Withdrawal
	txs         []string
}

func (f *fakeSigner) AccountID() string { return "alice.near" }

func (f *fakeSigner) SignSwap(q *types.Quote) (*types.PublishRequest, error) {
	f.signed = append(f.signed, "swap")
	return signedRequest(q.QuoteHash), nil
}

func (f *fakeSigner) SignWithdrawal(_ context.Context, w account.Withdrawal) (*types.PublishRequest, error) {
	f.signed = append(f.signed, "withdraw")
	f.withdrawals = append(f.withdrawals, w)
	return signedRequest(), nil
}

func (f *fakeSigner) VenueBalances(_ context.Context, assets []types.Asset) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(assets))
	for i, a := range assets {
		out[i] = f.venue[a.AssetID()]
	}
	return out, nil
}

func (f *fakeSigner) VenueBalance(_ context.Context, a types.Asset) (decimal.Decimal, error) {
	return f.venue[a.AssetID()], nil
}

func (f *fakeSigner) NativeBalance(context.Context) (decimal.Decimal, error) { return f.native, nil }

func (f *fakeSigner) TokenBalance(_ context.Context, a *types.NativeAsset) (decimal.Decimal, error) {
	return f.wallet[a.AssetID()], nil
}

func (f *fakeSigner) Transfer(_ context.Context, a *types.NativeAsset, to string, _ decimal.Decimal) (string, error) {
	f.txs = append(f.txs, "transfer:"+a.Symbol+":"+to)
	return "tx-transfer", nil
}

func (f *fakeSigner) SendNative(_ context.Context, to string, _ decimal.Decimal) (string, error) {
	f.txs = append(f.txs, "send:"+to)
	return "tx-send", nil
}

func (f *fakeSigner) DepositToken(_ context.Context, a *types.NativeAsset, _ decimal.Decimal) (string, error) {
	f.txs = append(f.txs, "deposit:"+a.Symbol)
	return "tx-deposit", nil
}

func (f *fakeSigner) DepositNear(context.Context, *types.NativeAsset, decimal.Decimal) (string, error) {
	f.txs = append(f.txs, "deposit:NEAR")
	return "tx-wrap", nil
}

type fakeWallet struct {
	balance   decimal.Decimal
	fee       decimal.Decimal
	taddr     string
	ua        string
	shieldErr error
	sent      []string
	shielded  []string
	confirmed []string
}

func (f *fakeWallet) Balance(context.Context) (decimal.Decimal, error) { return f.balance, nil }
func (f *fakeWallet) Summary(context.Context) (*types.ZcashSummary, error) {
	return &types.ZcashSummary{UnifiedAddress: types.AddressBalance{Address: f.ua, Balance: f.balance}}, nil
}

func (f *fakeWallet) Address(_ context.Context, shielded bool) (string, error) {
	if shielded {
		return f.ua, nil
	}
	return f.taddr, nil
}

func (f *fakeWallet) TransparentAddresses(context.Context) ([]string, error) {
	return []string{f.taddr}, nil
}

func (f *fakeWallet) Send(_ context.Context, to string, _ decimal.Decimal) (string, error) {
	f.sent = append(f.sent, to)
	return "zec-tx", nil
}

func (f *fakeWallet) Shield(_ context.Context, to string) (string, error) {
	if f.shieldErr != nil {
		return "", f.shieldErr
	}
	f.shielded = append(f.shielded, to)
	return "shield-tx", nil
}

func (f *fakeWallet) DefaultFee(context.Context) (decimal.Decimal, error) { return f.fee, nil }

func (f *fakeWallet) WaitTxConfirmed(_ context.Context, txid string) error {
	f.confirmed = append(f.confirmed, txid)
	return nil
}

type fixture struct {
	engine  *Engine
	solver  *fakeSolver
	bridge  *fakeBridge
	signer  *fakeSigner
	wallet  *fakeWallet
	metrics *metrics.CountingRecorder
	log     *logger.MemoryLogger
}

func newFixture() *fixture {
	f := &fixture{
		solver: &fakeSolver{
			best: &types.BestQuote{
				QuoteHash: "q-1",
				AmountOut: decimal.RequireFromString("0.5"),
				Quote:     types.Quote{QuoteHash: "q-1", AmountIn: "100000000", AmountOut: "500000000000000000000000"},
			},
			outcome: &types.Outcome{Status: types.StatusSettled, TxHash: "tx-1"},
		},
		bridge: &fakeBridge{},
		signer: &fakeSigner{
			venue:  map[string]decimal.Decimal{},
			wallet: map[string]decimal.Decimal{},
			native: decimal.NewFromInt(10),
		},
		wallet: &fakeWallet{
			balance: decimal.NewFromInt(2),
			fee:     decimal.RequireFromString("0.0001"),
			taddr:   "t1XVXWCvpMgBvUaed4XDqWtgQgJSu1Ghz7F",
			ua:      "u1unifiedaddressxxxxxxxxxxxxxxxxxxxxxxxxx",
		},
		metrics: &metrics.CountingRecorder{},
		log:     &logger.MemoryLogger{},
	}
	f.engine = NewEngine(Components{
		Catalog: fakeCatalog{},
		Solver:  f.solver,
		Bridge:  f.bridge,
		Account: f.signer,
		Wallet:  f.wallet,
	}, WithLogger(f.log), WithMetrics(f.metrics), WithTimeout(time.Second))
	return f
}

func swapReq(amount string) types.SwapRequest {
	return types.SwapRequest{
		InSymbol: "USDC", InChain: types.ChainNear,
		OutSymbol: "wNEAR", OutChain: types.ChainNear,
		AmountIn: decimal.RequireFromString(amount),
	}
}

func TestSwapFailsBeforeVenueOnLowBalance(t *testing.T) {
	f := newFixture()
	f.signer.venue[usdc.AssetID()] = decimal.NewFromInt(50)

	_, err := f.engine.Swap(context.Background(), swapReq("100"))
	require.True(t, types.IsCode(err, types.ErrInsufficientBalance))
	assert.Equal(t, 0, f.solver.calls())
	assert.Empty(t, f.signer.signed)

	assert.Equal(t, 1, f.metrics.Count(metrics.OperationStarted))
	assert.Equal(t, 1, f.metrics.Count(metrics.OperationFailed))
	assert.True(t, f.log.Has("error", "operation failed"))
}

func TestSwapNotDeposited(t *testing.T) {
	f := newFixture()

	_, err := f.engine.Swap(context.Background(), swapReq("1"))
	assert.True(t, types.IsCode(err, types.ErrNotDeposited))
	assert.Equal(t, 0, f.solver.calls())
}

func TestSwapHappyPath(t *testing.T) {
	f := newFixture()
	f.signer.venue[usdc.AssetID()] = decimal.NewFromInt(150)

	out, err := f.engine.Swap(context.Background(), swapReq("100"))
	require.NoError(t, err)
	assert.Equal(t, "intent-1", out.IntentHash)
	assert.Equal(t, "tx-1", out.TxHash)
	assert.Equal(t, "0.5", out.AmountOut.String())
	require.Len(t, f.solver.published, 1)
	assert.Equal(t, []string{"q-1"}, f.solver.published[0].QuoteHashes)

	assert.Equal(t, 1, f.metrics.Count(metrics.OperationSucceeded))
	assert.Equal(t, 1, f.metrics.Count(metrics.QuoteRequested))
	assert.Equal(t, 1, f.metrics.Count(metrics.IntentPublished))
}

func TestSwapHashlessTerminalFails(t *testing.T) {
	f := newFixture()
	f.signer.venue[usdc.AssetID()] = decimal.NewFromInt(150)
	f.solver.outcome = &types.Outcome{Status: types.StatusNotFound}

	_, err := f.engine.Swap(context.Background(), swapReq("100"))
	assert.True(t, types.IsCode(err, types.ErrTerminalMismatch))
}

func TestWithdrawBelowMinimumNeverSigns(t *testing.T) {
	f := newFixture()
	f.signer.venue[zecBridged.AssetID()] = decimal.NewFromInt(1)

	_, err := f.engine.Withdraw(context.Background(), types.WithdrawRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, Amount: decimal.RequireFromString("0.001"),
	})
	require.True(t, types.IsCode(err, types.ErrBelowMinimum))
	assert.Contains(t, err.Error(), "0.005")
	assert.Empty(t, f.signer.signed)
	assert.Equal(t, 0, f.solver.calls())
}

func TestWithdrawZecAutoFillsAndShields(t *testing.T) {
	f := newFixture()
	f.signer.venue[zecBridged.AssetID()] = decimal.NewFromInt(1)

	out, err := f.engine.Withdraw(context.Background(), types.WithdrawRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, Amount: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	require.Len(t, f.signer.withdrawals, 1)
	assert.Equal(t, f.wallet.taddr, f.signer.withdrawals[0].Destination)

	assert.Equal(t, "tx-1", out.TxHash)
	assert.Equal(t, types.ChainZcash, out.Chain)
	require.NotNil(t, out.PostSettlement)
	assert.Equal(t, types.ChainZcash, out.PostSettlement.Chain)
	assert.Equal(t, "shield-tx", out.PostSettlement.TxHash)
	assert.Equal(t, []string{f.wallet.ua}, f.wallet.shielded)
	assert.Empty(t, out.Notes)
}

func TestWithdrawShieldFailureIsANote(t *testing.T) {
	f := newFixture()
	f.signer.venue[zecBridged.AssetID()] = decimal.NewFromInt(1)
	f.wallet.shieldErr = errors.New("no transparent funds yet")

	out, err := f.engine.Withdraw(context.Background(), types.WithdrawRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, Amount: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", out.TxHash)
	assert.Equal(t, types.ChainZcash, out.Chain)
	assert.Nil(t, out.PostSettlement)
	require.Len(t, out.Notes, 1)
	assert.Contains(t, out.Notes[0], "no transparent funds yet")
}

func TestWithdrawExternalDestinationIsNotShielded(t *testing.T) {
	f := newFixture()
	f.signer.venue[zecBridged.AssetID()] = decimal.NewFromInt(1)

	out, err := f.engine.Withdraw(context.Background(), types.WithdrawRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, Amount: decimal.RequireFromString("0.5"),
		Destination: "t1SomeoneElse000000000000000000000",
	})
	require.NoError(t, err)
	assert.Nil(t, out.PostSettlement)
	assert.Empty(t, f.wallet.shielded)
}

func TestWithdrawNativeNearUsesWrappedBalance(t *testing.T) {
	f := newFixture()
	f.signer.venue[wnear.AssetID()] = decimal.NewFromInt(3)

	out, err := f.engine.Withdraw(context.Background(), types.WithdrawRequest{
		Symbol: "NEAR", Chain: types.ChainNear, Amount: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, types.ChainNear, out.Chain)
	require.Len(t, f.signer.withdrawals, 1)
	assert.True(t, f.signer.withdrawals[0].Native)
	assert.Equal(t, wnear, f.signer.withdrawals[0].Asset)
}

func TestWithdrawBridgedReportsDestinationChain(t *testing.T) {
	f := newFixture()
	f.signer.venue[btcBridged.AssetID()] = decimal.NewFromInt(1)

	out, err := f.engine.Withdraw(context.Background(), types.WithdrawRequest{
		Symbol: "BTC", Chain: "btc", Amount: decimal.RequireFromString("0.5"),
		Destination: "bc1qexampledestination",
	})
	require.NoError(t, err)
	assert.Equal(t, types.Chain("btc"), out.Chain)
	assert.Equal(t, "tx-1", out.TxHash)
	assert.Nil(t, out.PostSettlement)
	assert.Empty(t, f.wallet.shielded)
}

func TestWithdrawUnknownBridgeToken(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Withdraw(context.Background(), types.WithdrawRequest{
		Symbol: "DOGE", Chain: "doge", Amount: decimal.NewFromInt(1),
	})
	assert.True(t, types.IsCode(err, types.ErrUnknownAsset))
}

func TestDepositUnsupported(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Deposit(context.Background(), types.DepositRequest{
		Symbol: "BTC", Chain: "btc", Amount: decimal.NewFromInt(1),
	})
	require.True(t, types.IsCode(err, types.ErrNotImplemented))
	assert.Contains(t, err.Error(), ManualDepositURL)
	assert.Empty(t, f.signer.txs)
}

func TestDepositZec(t *testing.T) {
	f := newFixture()

	out, err := f.engine.Deposit(context.Background(), types.DepositRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, Amount: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, &types.DepositOutcome{Chain: types.ChainZcash, TxHash: "zec-tx"}, out)
	assert.Equal(t, 1, f.bridge.addresses)
	assert.Equal(t, []string{"zec-tx"}, f.wallet.confirmed)

	_, err = f.engine.Deposit(context.Background(), types.DepositRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, Amount: decimal.RequireFromString("0.001"),
	})
	assert.True(t, types.IsCode(err, types.ErrBelowMinimum))
	assert.Equal(t, 1, f.bridge.addresses)
}

func TestDepositNearAndToken(t *testing.T) {
	f := newFixture()
	f.signer.wallet[usdc.AssetID()] = decimal.NewFromInt(5)

	out, err := f.engine.Deposit(context.Background(), types.DepositRequest{Symbol: "NEAR", Chain: types.ChainNear, Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "tx-wrap", out.TxHash)

	_, err = f.engine.Deposit(context.Background(), types.DepositRequest{Symbol: "USDC", Chain: types.ChainNear, Amount: decimal.NewFromInt(6)})
	assert.True(t, types.IsCode(err, types.ErrInsufficientBalance))

	out, err = f.engine.Deposit(context.Background(), types.DepositRequest{Symbol: "USDC", Chain: types.ChainNear, Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, "tx-deposit", out.TxHash)
	assert.Equal(t, []string{"deposit:NEAR", "deposit:USDC"}, f.signer.txs)
}

func TestSendZecReservesFee(t *testing.T) {
	f := newFixture()

	_, err := f.engine.Send(context.Background(), types.SendRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, To: f.wallet.taddr, Amount: decimal.NewFromInt(2),
	})
	require.True(t, types.IsCode(err, types.ErrInsufficientBalance))
	assert.Contains(t, err.Error(), "fee of 0.0001")
	assert.Empty(t, f.wallet.sent)

	out, err := f.engine.Send(context.Background(), types.SendRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, To: f.wallet.taddr, Amount: decimal.RequireFromString("1.9999"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.ChainZcash, out.Chain)
}

func TestSendNearAndToken(t *testing.T) {
	f := newFixture()
	f.signer.wallet[usdc.AssetID()] = decimal.NewFromInt(5)

	out, err := f.engine.Send(context.Background(), types.SendRequest{Symbol: "NEAR", Chain: types.ChainNear, To: "bob.near", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "tx-send", out.TxHash)

	_, err = f.engine.Send(context.Background(), types.SendRequest{Symbol: "NEAR", Chain: types.ChainNear, To: "Bob!", Amount: decimal.NewFromInt(1)})
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))

	out, err = f.engine.Send(context.Background(), types.SendRequest{Symbol: "USDC", Chain: types.ChainNear, To: "bob.near", Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, "tx-transfer", out.TxHash)
	assert.Equal(t, []string{"send:bob.near", "transfer:USDC:bob.near"}, f.signer.txs)
}

func TestBalance(t *testing.T) {
	f := newFixture()
	f.signer.wallet[usdc.AssetID()] = decimal.NewFromInt(7)
	ctx := context.Background()

	bal, err := f.engine.Balance(ctx, types.BalanceRequest{Symbol: "NEAR", Chain: types.ChainNear})
	require.NoError(t, err)
	assert.Equal(t, "10", bal.String())

	_, err = f.engine.Balance(ctx, types.BalanceRequest{Symbol: "NEAR", Chain: types.ChainNear, OnVenue: true})
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))

	bal, err = f.engine.Balance(ctx, types.BalanceRequest{Symbol: "USDC", Chain: types.ChainNear})
	require.NoError(t, err)
	assert.Equal(t, "7", bal.String())

	_, err = f.engine.Balance(ctx, types.BalanceRequest{Symbol: "USDC", Chain: types.ChainNear, OnVenue: true})
	assert.True(t, types.IsCode(err, types.ErrNotDeposited))

	_, err = f.engine.Balance(ctx, types.BalanceRequest{Symbol: "DAI", Chain: types.ChainNear})
	assert.True(t, types.IsCode(err, types.ErrUnknownAsset))
}

func TestDepositedTokensAndSummary(t *testing.T) {
	f := newFixture()
	f.signer.venue[usdc.AssetID()] = decimal.NewFromInt(3)
	f.signer.venue[btc.AssetID()] = decimal.RequireFromString("0.1")

	deposited, err := f.engine.DepositedTokens(context.Background())
	require.NoError(t, err)
	assert.Len(t, deposited, 2)
	assert.Equal(t, "3", deposited[usdc.AssetID()].String())
	assert.Equal(t, "0.1", deposited[btc.AssetID()].String())

	sum, err := f.engine.WalletSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice.near", sum.Near.Address)
	assert.Equal(t, "10", sum.Near.Balance.String())
	require.NotNil(t, sum.Zcash)
	assert.Equal(t, f.wallet.ua, sum.Zcash.UnifiedAddress.Address)
}

func TestWithoutWallet(t *testing.T) {
	f := newFixture()
	f.engine.Wallet = nil

	sum, err := f.engine.WalletSummary(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sum.Zcash)

	_, err = f.engine.Send(context.Background(), types.SendRequest{
		Symbol: "ZEC", Chain: types.ChainZcash, To: f.wallet.taddr, Amount: decimal.NewFromInt(1),
	})
	assert.True(t, types.IsCode(err, types.ErrConfigError))
}

func TestResumeSettlement(t *testing.T) {
	f := newFixture()

	out, err := f.engine.ResumeSettlement(context.Background(), "intent-7")
	require.NoError(t, err)
	assert.Equal(t, "intent-7", out.IntentHash)
	assert.Equal(t, "tx-1", out.TxHash)
	assert.Empty(t, f.solver.published)
}
