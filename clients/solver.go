package clients

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/types"
)

// SolverClient talks to the solver bus over JSON-RPC.
type SolverClient struct {
	url          string
	rpc          *rpc.Client
	retry        *RetryConfig
	pollInterval time.Duration
	log          logger.Logger
}

func NewSolverClient(ctx context.Context, url string, pollInterval time.Duration, opts Options) (*SolverClient, error) {
	c, err := dialJSONRPC(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = types.DefaultPollInterval
	}
	return &SolverClient{
		url:          url,
		rpc:          c,
		retry:        opts.Retry,
		pollInterval: pollInterval,
		log:          opts.logger(),
	}, nil
}

func (s *SolverClient) Close() {
	s.rpc.Close()
}

// Quotes requests every solver quote for an exact input amount.
func (s *SolverClient) Quotes(ctx context.Context, req types.QuoteRequest) ([]types.Quote, error) {
	var quotes []types.Quote
	err := withRetry(ctx, s.retry, func() error {
		return s.rpc.CallContext(ctx, &quotes, "quote", req)
	})
	if err != nil {
		return nil, transportError("quote", err)
	}
	return quotes, nil
}

// BestQuote returns the quote with the largest output for amountIn of in.
func (s *SolverClient) BestQuote(ctx context.Context, in, out types.Asset, amountIn decimal.Decimal) (*types.BestQuote, error) {
	quotes, err := s.Quotes(ctx, types.QuoteRequest{
		AssetIn:       in.AssetID(),
		AssetOut:      out.AssetID(),
		ExactAmountIn: in.ToSmallestUnit(amountIn),
	})
	if err != nil {
		return nil, err
	}

	best, err := SelectBestQuote(quotes)
	if err != nil {
		if e, ok := types.AsError(err); ok {
			switch e.Code {
			case types.ErrNoQuote:
				e.Message = "unable to find a quote to swap " + amountIn.String() + " " + in.Base().Symbol + " to " + out.Base().Symbol
			case types.ErrAmountTooSmall:
				e.Message = amountIn.String() + " " + in.Base().Symbol + " results in INSUFFICIENT_AMOUNT to get a quote"
			}
		}
		return nil, err
	}

	amountOut, err := out.FromSmallestUnit(best.AmountOut)
	if err != nil {
		return nil, types.NewError(types.ErrEncoding, "quote %s: %v", best.QuoteHash, err)
	}

	return &types.BestQuote{
		QuoteHash:      best.QuoteHash,
		AmountOut:      amountOut,
		ExpirationTime: best.ExpirationTime,
		Quote:          *best,
	}, nil
}

// SelectBestQuote applies the selection rule: an empty set is NO_QUOTE, any
// quote flagged INSUFFICIENT_AMOUNT fails the whole set, otherwise the
// largest amount_out wins and ties keep the first seen.
func SelectBestQuote(quotes []types.Quote) (*types.Quote, error) {
	if len(quotes) == 0 {
		return nil, types.NewError(types.ErrNoQuote, "no quote found")
	}
	for i := range quotes {
		if quotes[i].Type == types.QuoteTypeInsufficientAmount {
			return nil, types.NewError(types.ErrAmountTooSmall, "amount results in INSUFFICIENT_AMOUNT")
		}
	}

	var (
		best    *types.Quote
		bestOut *big.Int
	)
	for i := range quotes {
		out, ok := new(big.Int).SetString(quotes[i].AmountOut, 10)
		if !ok {
			return nil, types.NewError(types.ErrEncoding, "quote %s has invalid amount_out %q",
				quotes[i].QuoteHash, quotes[i].AmountOut)
		}
		if best == nil || out.Cmp(bestOut) > 0 {
			best, bestOut = &quotes[i], out
		}
	}
	return best, nil
}

type publishResult struct {
	Status     string `json:"status"`
	IntentHash string `json:"intent_hash"`
	Reason     string `json:"reason,omitempty"`
}

// PublishIntent submits a signed envelope and returns its intent hash. Any
// venue-side rejection is PUBLISH_FAILED with the venue detail attached.
func (s *SolverClient) PublishIntent(ctx context.Context, req *types.PublishRequest) (string, error) {
	var res publishResult
	if err := s.rpc.CallContext(ctx, &res, "publish_intent", req); err != nil {
		if isContextErr(err) {
			return "", err
		}
		return "", types.NewError(types.ErrPublishFailed, "publish intent failed: %v", err).WithData(rpcErrorData(err))
	}

	if res.IntentHash == "" || (res.Status != "" && res.Status != "OK") {
		return "", types.NewError(types.ErrPublishFailed, "publish intent failed: status %q %s", res.Status, res.Reason).
			WithData(map[string]any{"status": res.Status, "reason": res.Reason})
	}
	return res.IntentHash, nil
}

// Status queries the settlement status of an intent.
func (s *SolverClient) Status(ctx context.Context, intentHash string) (*types.StatusResponse, error) {
	var res types.StatusResponse
	err := withRetry(ctx, s.retry, func() error {
		return s.rpc.CallContext(ctx, &res, "get_status", map[string]string{"intent_hash": intentHash})
	})
	if err != nil {
		return nil, transportError("get_status", err)
	}
	return &res, nil
}

// WaitForSettlement polls the intent status at a fixed interval until the
// status leaves the in-flight set or a transaction hash shows up. It stops
// when ctx is done. A terminal status without a hash is returned as is with
// an empty TxHash; callers decide how to treat it.
func (s *SolverClient) WaitForSettlement(ctx context.Context, intentHash string, onPoll func(*types.StatusResponse)) (*types.Outcome, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		res, err := s.Status(ctx, intentHash)
		if err != nil {
			return nil, err
		}
		if onPoll != nil {
			onPoll(res)
		}

		if hash := res.TxHash(); hash != "" || !res.Status.InFlight() {
			return &types.Outcome{Status: res.Status, IntentHash: intentHash, TxHash: hash}, nil
		}

		s.log.Debug("intent still in flight", map[string]any{"intentHash": intentHash, "status": res.Status})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
