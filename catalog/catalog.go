// Package catalog keeps the token list of the intents contract: every
// NEAR-resident asset the solver bus can trade, with its last USD price.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vitwit/zizza/types"
)

var validate = validator.New()

type listResponse struct {
	Items []types.TokenDescriptor `json:"items"`
}

// Catalog maps chain to symbol to asset. It is rebuilt on construction and
// on every price query.
type Catalog struct {
	url  string
	http *http.Client

	mu     sync.RWMutex
	assets map[types.Chain]map[string]*types.NativeAsset
}

// New fetches the catalog once. A nil client uses a default with the
// standard timeout.
func New(ctx context.Context, url string, client *http.Client) (*Catalog, error) {
	if client == nil {
		client = &http.Client{Timeout: types.DefaultHTTPTimeout}
	}
	c := &Catalog{url: url, http: client}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh refetches and replaces the whole token table.
func (c *Catalog) Refresh(ctx context.Context) error {
	items, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	assets := make(map[types.Chain]map[string]*types.NativeAsset)
	for _, d := range items {
		if err := validate.Struct(d); err != nil {
			return types.NewError(types.ErrMalformedAsset, "malformed catalog entry %q on %q: %v", d.Symbol, d.Blockchain, err)
		}
		a, err := types.NewNativeAsset(d)
		if err != nil {
			return err
		}
		if assets[a.Blockchain] == nil {
			assets[a.Blockchain] = make(map[string]*types.NativeAsset)
		}
		assets[a.Blockchain][a.Symbol] = a
	}

	c.mu.Lock()
	c.assets = assets
	c.mu.Unlock()
	return nil
}

func (c *Catalog) fetch(ctx context.Context) ([]types.TokenDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, types.NewError(types.ErrConfigError, "catalog request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.NewError(types.ErrNetworkError, "fetch token catalog: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, types.NewError(types.ErrNetworkError, "fetch token catalog: HTTP %d", resp.StatusCode).
			WithData(map[string]any{"body": string(body)})
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, types.NewError(types.ErrNetworkError, "decode token catalog: %v", err)
	}
	return list.Items, nil
}

// Token looks up an asset. Chain ids are case-insensitive, symbols are not.
func (c *Catalog) Token(symbol string, chain types.Chain) (*types.NativeAsset, error) {
	chain = types.NormalizeChain(string(chain))

	c.mu.RLock()
	defer c.mu.RUnlock()

	tokens, ok := c.assets[chain]
	if !ok {
		return nil, types.NewError(types.ErrUnknownChain, "chain '%s' is not supported", chain)
	}
	a, ok := tokens[symbol]
	if !ok {
		return nil, types.NewError(types.ErrUnknownAsset, "token '%s' on chain '%s' not found", symbol, chain)
	}
	return a, nil
}

// Chains lists every chain with at least one asset.
func (c *Catalog) Chains() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.assets))
	for chain := range c.assets {
		out = append(out, string(chain))
	}
	sort.Strings(out)
	return out
}

// TokensByChain lists the symbols available on chain. Unknown chains yield
// an empty list.
func (c *Catalog) TokensByChain(chain types.Chain) []string {
	chain = types.NormalizeChain(string(chain))

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.assets[chain]))
	for symbol := range c.assets[chain] {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// ChainsByToken lists the chains on which symbol is deployed. Unknown
// symbols yield an empty list.
func (c *Catalog) ChainsByToken(symbol string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []string{}
	for chain, tokens := range c.assets {
		if _, ok := tokens[symbol]; ok {
			out = append(out, string(chain))
		}
	}
	sort.Strings(out)
	return out
}

// Assets returns every asset in the catalog, ordered by chain then symbol.
func (c *Catalog) Assets() []*types.NativeAsset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*types.NativeAsset
	for _, tokens := range c.assets {
		for _, a := range tokens {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Blockchain != out[j].Blockchain {
			return out[i].Blockchain < out[j].Blockchain
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// TokenPrice refetches the catalog and returns the current price of an asset.
func (c *Catalog) TokenPrice(ctx context.Context, symbol string, chain types.Chain) (*types.TokenPrice, error) {
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	a, err := c.Token(symbol, chain)
	if err != nil {
		return nil, err
	}
	return &types.TokenPrice{USDPrice: a.Price, PriceUpdatedAt: a.PriceUpdatedAt}, nil
}

func (c *Catalog) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, tokens := range c.assets {
		n += len(tokens)
	}
	return fmt.Sprintf("catalog(%d chains, %d assets)", len(c.assets), n)
}
