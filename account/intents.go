package account

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/clients"
	"github.com/vitwit/zizza/types"
)

// VenueBalances reads the intents contract balances of several assets in
// one mt_batch_balance_of call. Results are in input order.
func (a *Account) VenueBalances(ctx context.Context, assets []types.Asset) ([]decimal.Decimal, error) {
	if len(assets) == 0 {
		return nil, nil
	}

	ids := make([]string, len(assets))
	for i, asset := range assets {
		ids[i] = asset.AssetID()
	}

	var units []string
	if err := a.chain.ViewFunction(ctx, a.intentsContract, "mt_batch_balance_of", map[string]any{
		"account_id": a.AccountID(),
		"token_ids":  ids,
	}, &units); err != nil {
		return nil, err
	}
	if len(units) != len(assets) {
		return nil, types.NewError(types.ErrChainError, "mt_batch_balance_of returned %d balances for %d tokens", len(units), len(assets))
	}

	out := make([]decimal.Decimal, len(assets))
	for i, asset := range assets {
		bal, err := asset.FromSmallestUnit(units[i])
		if err != nil {
			return nil, types.NewError(types.ErrChainError, "balance of %s: %v", ids[i], err)
		}
		out[i] = bal
	}
	return out, nil
}

// VenueBalance reads one asset's intents contract balance.
func (a *Account) VenueBalance(ctx context.Context, asset types.Asset) (decimal.Decimal, error) {
	bals, err := a.VenueBalances(ctx, []types.Asset{asset})
	if err != nil {
		return decimal.Zero, err
	}
	return bals[0], nil
}

// DepositToken moves a NEP-141 token from the wallet into the intents
// contract with ft_transfer_call.
func (a *Account) DepositToken(ctx context.Context, asset *types.NativeAsset, amount decimal.Decimal) (string, error) {
	out, err := a.chain.FunctionCall(ctx, asset.ContractAddress, "ft_transfer_call", map[string]string{
		"receiver_id": a.intentsContract,
		"amount":      asset.ToSmallestUnit(amount),
		"msg":         "",
	}, clients.MaxGas, clients.OneYocto)
	if err != nil {
		return "", err
	}
	return out.TxHash, nil
}

// DepositNear wraps NEAR and deposits the wNEAR in a single transaction:
// near_deposit followed by ft_transfer_call to the intents contract.
// wnear is the catalog entry of the wrap contract.
func (a *Account) DepositNear(ctx context.Context, wnear *types.NativeAsset, amount decimal.Decimal) (string, error) {
	if err := a.ensureStorage(ctx, wnear, a.AccountID()); err != nil {
		return "", err
	}

	yocto, ok := new(big.Int).SetString(nearToken.ToSmallestUnit(amount), 10)
	if !ok {
		return "", types.NewError(types.ErrEncoding, "invalid NEAR amount %s", amount)
	}

	wrap, err := clients.NewFunctionCall("near_deposit", []byte("{}"), clients.NearDepositGas, yocto)
	if err != nil {
		return "", types.NewError(types.ErrEncoding, "near_deposit: %v", err)
	}

	args, err := json.Marshal(map[string]string{
		"receiver_id": a.intentsContract,
		"amount":      yocto.String(),
		"msg":         "",
	})
	if err != nil {
		return "", types.NewError(types.ErrEncoding, "ft_transfer_call args: %v", err)
	}
	transfer, err := clients.NewFunctionCall("ft_transfer_call", args, clients.FtTransferGas, clients.OneYocto)
	if err != nil {
		return "", types.NewError(types.ErrEncoding, "ft_transfer_call: %v", err)
	}

	receiver := wnear.ContractAddress
	if receiver == "" {
		receiver = a.wrapContract
	}
	out, err := a.chain.SignAndSubmit(ctx, receiver, wrap, transfer)
	if err != nil {
		return "", err
	}
	return out.TxHash, nil
}
