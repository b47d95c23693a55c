package zizza

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/types"
	"golang.org/x/sync/errgroup"
)

// maxBalanceReads bounds concurrent mt_batch_balance_of calls.
const maxBalanceReads = 4

// WalletSummary reads the NEAR balance and the Zcash wallet addresses
// concurrently. The Zcash part is omitted when the wallet is disabled.
func (e *Engine) WalletSummary(ctx context.Context) (*types.WalletSummary, error) {
	summary := &types.WalletSummary{
		Near: types.AddressBalance{Address: e.Account.AccountID()},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bal, err := e.Account.NativeBalance(ctx)
		if err != nil {
			return err
		}
		summary.Near.Balance = bal
		return nil
	})
	if e.Wallet != nil {
		g.Go(func() error {
			zec, err := e.Wallet.Summary(ctx)
			if err != nil {
				return err
			}
			summary.Zcash = zec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

// DepositedTokens returns every catalog asset with a positive balance on the
// intents contract, keyed by asset id. Balances are read one batch per chain.
func (e *Engine) DepositedTokens(ctx context.Context) (map[string]decimal.Decimal, error) {
	byChain := make(map[types.Chain][]types.Asset)
	for _, a := range e.Catalog.Assets() {
		if a.AssetID() == "" {
			continue
		}
		byChain[a.Blockchain] = append(byChain[a.Blockchain], a)
	}

	var (
		mu        sync.Mutex
		deposited = make(map[string]decimal.Decimal)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBalanceReads)
	for _, assets := range byChain {
		assets := assets
		g.Go(func() error {
			bals, err := e.Account.VenueBalances(ctx, assets)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for i, bal := range bals {
				if bal.IsPositive() {
					deposited[assets[i].AssetID()] = bal
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deposited, nil
}

// TokenPrice refetches the catalog and returns the asset's USD price.
func (e *Engine) TokenPrice(ctx context.Context, req types.PriceRequest) (*types.TokenPrice, error) {
	return e.Catalog.TokenPrice(ctx, req.Symbol, req.Chain)
}

func (e *Engine) Chains() []string {
	return e.Catalog.Chains()
}

func (e *Engine) TokensByChain(chain types.Chain) []string {
	return e.Catalog.TokensByChain(types.NormalizeChain(chain.String()))
}

func (e *Engine) ChainsByToken(symbol string) []string {
	return e.Catalog.ChainsByToken(symbol)
}
