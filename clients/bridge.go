package clients

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-playground/validator/v10"
	"github.com/vitwit/zizza/types"
)

var bridgeValidate = validator.New()

// BridgeClient resolves bridgeable tokens and deposit addresses.
type BridgeClient struct {
	rpc   *rpc.Client
	retry *RetryConfig

	mu        sync.RWMutex
	supported map[types.Chain]map[string]*types.BridgeableAsset
}

type supportedTokensResult struct {
	Tokens []types.BridgeTokenDescriptor `json:"tokens"`
}

type depositAddressResult struct {
	Address string `json:"address"`
	Chain   string `json:"chain,omitempty"`
}

// NewBridgeClient dials the bridge and loads its supported tokens.
func NewBridgeClient(ctx context.Context, url string, opts Options) (*BridgeClient, error) {
	c, err := dialJSONRPC(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	b := &BridgeClient{rpc: c, retry: opts.Retry}
	if err := b.Refresh(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return b, nil
}

func (b *BridgeClient) Close() {
	b.rpc.Close()
}

// Refresh reloads the supported token set, keyed by origin chain and symbol.
func (b *BridgeClient) Refresh(ctx context.Context) error {
	var res supportedTokensResult
	err := withRetry(ctx, b.retry, func() error {
		// an empty, non-nil params list is sent as "params": []
		return b.rpc.CallContext(ctx, &res, "supported_tokens", []interface{}{}...)
	})
	if err != nil {
		return transportError("supported_tokens", err)
	}

	supported := make(map[types.Chain]map[string]*types.BridgeableAsset)
	for _, d := range res.Tokens {
		if err := bridgeValidate.Struct(d); err != nil {
			return types.NewError(types.ErrMalformedAsset, "malformed bridge token %q: %v", d.AssetName, err)
		}
		asset, err := types.NewBridgeableAsset(d)
		if err != nil {
			return err
		}
		chain := asset.Blockchain
		if supported[chain] == nil {
			supported[chain] = make(map[string]*types.BridgeableAsset)
		}
		supported[chain][asset.Symbol] = asset
	}

	b.mu.Lock()
	b.supported = supported
	b.mu.Unlock()
	return nil
}

// Token returns the bridgeable asset for symbol on chain, or nil when the
// bridge does not route it.
func (b *BridgeClient) Token(symbol string, chain types.Chain) *types.BridgeableAsset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.supported[types.NormalizeChain(string(chain))][symbol]
}

// DepositAddress asks the bridge for a deposit address on the asset's origin
// chain. Addresses are requested fresh every time.
func (b *BridgeClient) DepositAddress(ctx context.Context, asset *types.BridgeableAsset, accountID string) (string, error) {
	var res depositAddressResult
	err := b.rpc.CallContext(ctx, &res, "deposit_address", map[string]string{
		"account_id": accountID,
		"chain":      asset.DepositChain(),
	})
	if err != nil {
		return "", transportError("deposit_address", err)
	}
	if res.Address == "" {
		return "", types.NewError(types.ErrNetworkError, "bridge returned no deposit address for %s", asset.Symbol)
	}
	return res.Address, nil
}
