package api

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/types"
)

// Engine is what the API exposes. *zizza.Engine implements it.
type Engine interface {
	WalletSummary(ctx context.Context) (*types.WalletSummary, error)
	DepositedTokens(ctx context.Context) (map[string]decimal.Decimal, error)
	TokenPrice(ctx context.Context, req types.PriceRequest) (*types.TokenPrice, error)
	Chains() []string
	TokensByChain(chain types.Chain) []string
	ChainsByToken(symbol string) []string
	Balance(ctx context.Context, req types.BalanceRequest) (decimal.Decimal, error)
	BestQuote(ctx context.Context, req types.SwapRequest) (*types.BestQuote, error)
	Swap(ctx context.Context, req types.SwapRequest) (*types.SwapOutcome, error)
	Withdraw(ctx context.Context, req types.WithdrawRequest) (*types.WithdrawOutcome, error)
	Deposit(ctx context.Context, req types.DepositRequest) (*types.DepositOutcome, error)
	Send(ctx context.Context, req types.SendRequest) (*types.SendOutcome, error)
	ResumeSettlement(ctx context.Context, intentHash string) (*types.Outcome, error)
}

type chainParams struct {
	Chain types.Chain `json:"chain" validate:"required"`
}

func (p *chainParams) Normalize() error {
	p.Chain = types.NormalizeChain(string(p.Chain))
	return nil
}

type symbolParams struct {
	Symbol string `json:"symbol" validate:"required"`
}

func (p *symbolParams) Normalize() error {
	p.Symbol = strings.TrimSpace(p.Symbol)
	return nil
}

type resumeParams struct {
	IntentHash string `json:"intent_hash" validate:"required"`
}

type handler func(ctx context.Context, e Engine, params json.RawMessage) (interface{}, error)

var commands = map[string]handler{
	"get_wallet_summary": func(ctx context.Context, e Engine, _ json.RawMessage) (interface{}, error) {
		return e.WalletSummary(ctx)
	},
	"get_deposited_tokens": func(ctx context.Context, e Engine, _ json.RawMessage) (interface{}, error) {
		return e.DepositedTokens(ctx)
	},
	"get_chains": func(_ context.Context, e Engine, _ json.RawMessage) (interface{}, error) {
		return gin.H{"chains": e.Chains()}, nil
	},
	"get_tokens_by_chain": func(_ context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[chainParams](raw)
		if err != nil {
			return nil, err
		}
		return gin.H{"tokens": e.TokensByChain(p.Chain)}, nil
	},
	"get_chains_by_token": func(_ context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[symbolParams](raw)
		if err != nil {
			return nil, err
		}
		return gin.H{"chains": e.ChainsByToken(p.Symbol)}, nil
	},
	"get_token_price": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[types.PriceRequest](raw)
		if err != nil {
			return nil, err
		}
		return e.TokenPrice(ctx, *p)
	},
	"get_balance": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[types.BalanceRequest](raw)
		if err != nil {
			return nil, err
		}
		bal, err := e.Balance(ctx, *p)
		if err != nil {
			return nil, err
		}
		return gin.H{"balance": bal}, nil
	},
	"get_best_quote": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[types.SwapRequest](raw)
		if err != nil {
			return nil, err
		}
		return e.BestQuote(ctx, *p)
	},
	"swap": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[types.SwapRequest](raw)
		if err != nil {
			return nil, err
		}
		return e.Swap(ctx, *p)
	},
	"withdraw": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[types.WithdrawRequest](raw)
		if err != nil {
			return nil, err
		}
		return e.Withdraw(ctx, *p)
	},
	"deposit": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[types.DepositRequest](raw)
		if err != nil {
			return nil, err
		}
		return e.Deposit(ctx, *p)
	},
	"send": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[types.SendRequest](raw)
		if err != nil {
			return nil, err
		}
		return e.Send(ctx, *p)
	},
	"resume_settlement": func(ctx context.Context, e Engine, raw json.RawMessage) (interface{}, error) {
		p, err := bind[resumeParams](raw)
		if err != nil {
			return nil, err
		}
		return e.ResumeSettlement(ctx, p.IntentHash)
	},
}

// Commands lists the command names accepted by /execute.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var validate = validator.New()

type normalizer interface {
	Normalize() error
}

// bind decodes params strictly into T, normalizes and validates it.
func bind[T any](raw json.RawMessage) (*T, error) {
	p := new(T)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return nil, types.NewError(types.ErrInvalidRequest, "invalid params: %v", err)
		}
	}
	if n, ok := any(p).(normalizer); ok {
		if err := n.Normalize(); err != nil {
			return nil, err
		}
	}
	if err := validate.Struct(p); err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "invalid params: %v", err)
	}
	return p, nil
}
