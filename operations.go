package zizza

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/account"
	"github.com/vitwit/zizza/metrics"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/utils"
	"github.com/vitwit/zizza/verification"
)

// ManualDepositURL is where deposits the engine cannot route can be done by hand.
const ManualDepositURL = "https://app.near-intents.org/"

// Balance reads the balance of one asset. NEAR itself is read from the
// account; OnVenue reads the intents contract and fails with NOT_DEPOSITED
// when the asset was never deposited; ZEC is read from the Zcash wallet;
// everything else from the token contract.
func (e *Engine) Balance(ctx context.Context, req types.BalanceRequest) (bal decimal.Decimal, err error) {
	done := e.begin("balance", req.Chain, map[string]any{"asset": req.Symbol})
	defer func() { done(err) }()

	if req.Symbol == types.SymbolNEAR {
		if req.OnVenue {
			return decimal.Zero, types.NewError(types.ErrInvalidRequest,
				"only %s exists on the intents contract", types.SymbolWNEAR)
		}
		return e.Account.NativeBalance(ctx)
	}

	asset, err := e.Catalog.Token(req.Symbol, req.Chain)
	if err != nil {
		return decimal.Zero, err
	}

	switch {
	case req.OnVenue:
		return e.verifier.DepositedBalance(ctx, asset)
	case asset.Symbol == types.SymbolZEC:
		w, err := e.wallet()
		if err != nil {
			return decimal.Zero, err
		}
		return w.Balance(ctx)
	default:
		return e.Account.TokenBalance(ctx, asset)
	}
}

// BestQuote asks the solver bus for the best quote without signing anything.
func (e *Engine) BestQuote(ctx context.Context, req types.SwapRequest) (*types.BestQuote, error) {
	in, out, err := e.swapAssets(req)
	if err != nil {
		return nil, err
	}
	e.metrics.IncCounter(metrics.QuoteRequested, metrics.Labels("quote", req.InChain.String()))
	return e.Solver.BestQuote(ctx, in, out, req.AmountIn)
}

func (e *Engine) swapAssets(req types.SwapRequest) (*types.NativeAsset, *types.NativeAsset, error) {
	in, err := e.Catalog.Token(req.InSymbol, req.InChain)
	if err != nil {
		return nil, nil, err
	}
	out, err := e.Catalog.Token(req.OutSymbol, req.OutChain)
	if err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

// Swap trades AmountIn of the input asset for the output asset inside the
// intents contract. The venue balance is checked before any quote is
// requested.
func (e *Engine) Swap(ctx context.Context, req types.SwapRequest) (out *types.SwapOutcome, err error) {
	fields := map[string]any{"asset": req.InSymbol, "asset_out": req.OutSymbol, "amount": req.AmountIn.String()}
	done := e.begin("swap", req.InChain, fields)
	defer func() { done(err) }()

	in, outAsset, err := e.swapAssets(req)
	if err != nil {
		return nil, err
	}
	if _, err := e.verifier.VerifyVenueBalance(ctx, in, req.AmountIn); err != nil {
		return nil, err
	}

	e.metrics.IncCounter(metrics.QuoteRequested, metrics.Labels("swap", req.InChain.String()))
	best, err := e.Solver.BestQuote(ctx, in, outAsset, req.AmountIn)
	if err != nil {
		return nil, err
	}

	signed, err := e.Account.SignSwap(&best.Quote)
	if err != nil {
		return nil, err
	}

	outcome, err := e.settler.Settle(ctx, signed, metrics.Labels("swap", req.InChain.String()))
	if err != nil {
		return nil, err
	}
	fields["intent_hash"] = outcome.IntentHash
	fields["tx_hash"] = outcome.TxHash

	return &types.SwapOutcome{Outcome: *outcome, AmountOut: best.AmountOut}, nil
}

// Withdraw moves funds out of the intents contract. On NEAR the funds go to
// the account itself, with NEAR withdrawn natively from the wNEAR balance.
// Other chains go through the bridge; ZEC falls back to the wallet's
// transparent address and is shielded once settled.
func (e *Engine) Withdraw(ctx context.Context, req types.WithdrawRequest) (out *types.WithdrawOutcome, err error) {
	fields := map[string]any{"asset": req.Symbol, "amount": req.Amount.String()}
	done := e.begin("withdraw", req.Chain, fields)
	defer func() { done(err) }()

	w := account.Withdrawal{Amount: req.Amount, Destination: req.Destination}
	var bridged *types.BridgeableAsset

	if req.Chain.IsNear() {
		symbol := req.Symbol
		if symbol == types.SymbolNEAR {
			symbol = types.SymbolWNEAR
			w.Native = true
		}
		asset, err := e.Catalog.Token(symbol, req.Chain)
		if err != nil {
			return nil, err
		}
		w.Asset = asset
	} else {
		bridged = e.Bridge.Token(req.Symbol, req.Chain)
		if bridged == nil {
			return nil, types.NewError(types.ErrUnknownAsset, "%s on %s is not supported by the bridge", req.Symbol, req.Chain)
		}
		w.Asset = bridged
	}

	if _, err := e.verifier.VerifyVenueBalance(ctx, w.Asset, req.Amount); err != nil {
		return nil, err
	}

	if bridged != nil {
		if err := verification.CheckMinimumWithdrawal(bridged, req.Amount); err != nil {
			return nil, err
		}
		if w.Destination == "" {
			if bridged.Symbol != types.SymbolZEC || e.Wallet == nil {
				return nil, types.NewError(types.ErrMissingDestination,
					"a destination address is required to withdraw %s", bridged.Symbol)
			}
			if w.Destination, err = e.Wallet.Address(ctx, false); err != nil {
				return nil, err
			}
		}
	}

	signed, err := e.Account.SignWithdrawal(ctx, w)
	if err != nil {
		return nil, err
	}

	outcome, err := e.settler.Settle(ctx, signed, metrics.Labels("withdraw", req.Chain.String()))
	if err != nil {
		return nil, err
	}
	fields["intent_hash"] = outcome.IntentHash
	fields["tx_hash"] = outcome.TxHash

	out = &types.WithdrawOutcome{Outcome: *outcome, Chain: types.ChainNear}
	if bridged != nil {
		out.Chain = req.Chain
	}
	if bridged != nil && bridged.Symbol == types.SymbolZEC && e.Wallet != nil {
		e.autoShield(ctx, w.Destination, out)
	}
	return out, nil
}

// autoShield moves funds that arrived on one of the wallet's transparent
// addresses into its unified address and records the shield transaction as
// PostSettlement. Failures become notes on an outcome that already settled.
func (e *Engine) autoShield(ctx context.Context, destination string, out *types.WithdrawOutcome) {
	taddrs, err := e.Wallet.TransparentAddresses(ctx)
	if err != nil {
		out.Notes = append(out.Notes, "auto-shield skipped: "+err.Error())
		return
	}
	if !slices.Contains(taddrs, destination) {
		return
	}

	ua, err := e.Wallet.Address(ctx, true)
	if err != nil {
		out.Notes = append(out.Notes, "auto-shield failed: "+err.Error())
		return
	}
	txid, err := e.Wallet.Shield(ctx, ua)
	if err != nil {
		e.logger.Warn("auto-shield failed", map[string]any{"intent_hash": out.IntentHash, "error": err})
		out.Notes = append(out.Notes, "auto-shield failed: "+err.Error())
		return
	}

	out.PostSettlement = &types.PostSettlement{Chain: types.ChainZcash, TxHash: txid}
}

// Deposit moves funds into the intents contract. NEAR is wrapped and
// deposited in one transaction, ZEC is sent to a fresh bridge deposit
// address and awaited, NEAR-resident tokens use ft_transfer_call. Anything
// else is NOT_IMPLEMENTED.
func (e *Engine) Deposit(ctx context.Context, req types.DepositRequest) (out *types.DepositOutcome, err error) {
	fields := map[string]any{"asset": req.Symbol, "amount": req.Amount.String()}
	done := e.begin("deposit", req.Chain, fields)
	defer func() { done(err) }()

	var txHash string
	chain := types.ChainNear

	switch {
	case req.Symbol == types.SymbolNEAR:
		txHash, err = e.depositNear(ctx, req.Amount)
	case req.Symbol == types.SymbolZEC:
		chain = types.ChainZcash
		txHash, err = e.depositZec(ctx, req)
	case req.Chain.IsNear():
		txHash, err = e.depositToken(ctx, req)
	default:
		err = types.NewError(types.ErrNotImplemented,
			"deposit of %s from %s is not implemented, it can be done manually on %s", req.Symbol, req.Chain, ManualDepositURL)
	}
	if err != nil {
		return nil, err
	}

	fields["tx_hash"] = txHash
	return &types.DepositOutcome{Chain: chain, TxHash: txHash}, nil
}

func (e *Engine) depositNear(ctx context.Context, amount decimal.Decimal) (string, error) {
	wnear, err := e.Catalog.Token(types.SymbolWNEAR, types.ChainNear)
	if err != nil {
		return "", err
	}
	bal, err := e.Account.NativeBalance(ctx)
	if err != nil {
		return "", err
	}
	if err := verification.CheckWalletBalance(types.SymbolNEAR, bal, amount, decimal.Zero); err != nil {
		return "", err
	}
	return e.Account.DepositNear(ctx, wnear, amount)
}

func (e *Engine) depositZec(ctx context.Context, req types.DepositRequest) (string, error) {
	w, err := e.wallet()
	if err != nil {
		return "", err
	}
	asset := e.Bridge.Token(types.SymbolZEC, req.Chain)
	if asset == nil {
		return "", types.NewError(types.ErrUnknownAsset, "%s on %s is not supported by the bridge", req.Symbol, req.Chain)
	}
	if err := verification.CheckMinimumDeposit(asset, req.Amount); err != nil {
		return "", err
	}
	if err := e.checkZecBalance(ctx, w, req.Amount); err != nil {
		return "", err
	}

	address, err := e.Bridge.DepositAddress(ctx, asset, e.Account.AccountID())
	if err != nil {
		return "", err
	}
	txid, err := w.Send(ctx, address, req.Amount)
	if err != nil {
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := w.WaitTxConfirmed(waitCtx, txid); err != nil {
		return "", err
	}
	return txid, nil
}

func (e *Engine) depositToken(ctx context.Context, req types.DepositRequest) (string, error) {
	asset, err := e.Catalog.Token(req.Symbol, req.Chain)
	if err != nil {
		return "", err
	}
	bal, err := e.Account.TokenBalance(ctx, asset)
	if err != nil {
		return "", err
	}
	if err := verification.CheckWalletBalance(asset.Symbol, bal, req.Amount, decimal.Zero); err != nil {
		return "", err
	}
	return e.Account.DepositToken(ctx, asset, req.Amount)
}

func (e *Engine) checkZecBalance(ctx context.Context, w Wallet, amount decimal.Decimal) error {
	bal, err := w.Balance(ctx)
	if err != nil {
		return err
	}
	fee, err := w.DefaultFee(ctx)
	if err != nil {
		return err
	}
	return verification.CheckWalletBalance(types.SymbolZEC, bal, amount, fee)
}

// Send transfers funds out of the wallets directly, without the venue. ZEC
// sends reserve the wallet's default fee; NEAR gas is paid separately.
func (e *Engine) Send(ctx context.Context, req types.SendRequest) (out *types.SendOutcome, err error) {
	fields := map[string]any{"asset": req.Symbol, "amount": req.Amount.String(), "to": req.To}
	done := e.begin("send", req.Chain, fields)
	defer func() { done(err) }()

	var txHash string
	chain := types.ChainNear

	switch {
	case req.Symbol == types.SymbolNEAR:
		txHash, err = e.sendNear(ctx, req)
	case req.Symbol == types.SymbolZEC && req.Chain.IsZcash():
		chain = types.ChainZcash
		txHash, err = e.sendZec(ctx, req)
	default:
		txHash, err = e.sendToken(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	fields["tx_hash"] = txHash
	return &types.SendOutcome{Chain: chain, TxHash: txHash}, nil
}

func (e *Engine) sendNear(ctx context.Context, req types.SendRequest) (string, error) {
	if err := utils.ValidateNearAccountID(req.To); err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "%v", err)
	}
	bal, err := e.Account.NativeBalance(ctx)
	if err != nil {
		return "", err
	}
	if err := verification.CheckWalletBalance(types.SymbolNEAR, bal, req.Amount, decimal.Zero); err != nil {
		return "", err
	}
	return e.Account.SendNative(ctx, req.To, req.Amount)
}

func (e *Engine) sendZec(ctx context.Context, req types.SendRequest) (string, error) {
	w, err := e.wallet()
	if err != nil {
		return "", err
	}
	if err := utils.ValidateZcashAddress(req.To); err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "%v", err)
	}
	if err := e.checkZecBalance(ctx, w, req.Amount); err != nil {
		return "", err
	}
	return w.Send(ctx, req.To, req.Amount)
}

func (e *Engine) sendToken(ctx context.Context, req types.SendRequest) (string, error) {
	asset, err := e.Catalog.Token(req.Symbol, req.Chain)
	if err != nil {
		return "", err
	}
	if !asset.Blockchain.IsNear() {
		return "", types.NewError(types.ErrNotImplemented,
			"sending %s on %s is not implemented, withdraw it instead", asset.Symbol, asset.Blockchain)
	}
	if err := utils.ValidateNearAccountID(req.To); err != nil {
		return "", types.NewError(types.ErrInvalidRequest, "%v", err)
	}
	bal, err := e.Account.TokenBalance(ctx, asset)
	if err != nil {
		return "", err
	}
	if err := verification.CheckWalletBalance(asset.Symbol, bal, req.Amount, decimal.Zero); err != nil {
		return "", err
	}
	return e.Account.Transfer(ctx, asset, req.To, req.Amount)
}

// ResumeSettlement polls an intent that was published earlier, for example
// before a crash, without re-running any other step.
func (e *Engine) ResumeSettlement(ctx context.Context, intentHash string) (out *types.Outcome, err error) {
	done := e.begin("resume", types.ChainNear, map[string]any{"intent_hash": intentHash})
	defer func() { done(err) }()

	return e.settler.Resume(ctx, intentHash, metrics.Labels("resume", types.ChainNear.String()))
}
