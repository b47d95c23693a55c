package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/metrics"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/verification"
)

// Venue is the part of the solver bus a settlement needs.
type Venue interface {
	PublishIntent(ctx context.Context, req *types.PublishRequest) (string, error)
	WaitForSettlement(ctx context.Context, intentHash string, onPoll func(*types.StatusResponse)) (*types.Outcome, error)
}

// Settler interface defines the contract for intent settlement
type Settler interface {
	Settle(ctx context.Context, req *types.PublishRequest, labels map[string]string) (*types.Outcome, error)
	Resume(ctx context.Context, intentHash string, labels map[string]string) (*types.Outcome, error)
}

// SettlementService publishes signed intents and waits for their on-chain
// settlement.
type SettlementService struct {
	venue   Venue
	timeout time.Duration
	log     logger.Logger
	metrics metrics.Recorder
}

var _ Settler = (*SettlementService)(nil)

// NewSettlementService creates a new settlement service. A non-positive
// timeout falls back to the default settlement timeout.
func NewSettlementService(venue Venue, timeout time.Duration, log logger.Logger, rec metrics.Recorder) *SettlementService {
	if timeout <= 0 {
		timeout = types.DefaultSettlementTimeout
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &SettlementService{
		venue:   venue,
		timeout: timeout,
		log:     log,
		metrics: rec,
	}
}

// Settle publishes req and polls until the venue reports a terminal status.
// The envelope signature is checked before anything is sent. Success
// requires a transaction hash; a terminal status without one is a
// TERMINAL_MISMATCH error carrying the outcome.
func (s *SettlementService) Settle(
	ctx context.Context,
	req *types.PublishRequest,
	labels map[string]string,
) (*types.Outcome, error) {
	if err := verification.VerifyEnvelope(&req.SignedData); err != nil {
		s.log.Error("signed intent rejected before publish", map[string]any{"operation": labels["operation"], "error": err})
		return nil, err
	}

	intentHash, err := s.venue.PublishIntent(ctx, req)
	if err != nil {
		s.log.Error("publish intent failed", map[string]any{"operation": labels["operation"], "error": err})
		return nil, err
	}

	s.metrics.IncCounter(metrics.IntentPublished, labels)
	s.log.Info("intent published", map[string]any{"operation": labels["operation"], "intent_hash": intentHash})

	return s.Resume(ctx, intentHash, labels)
}

// Resume replays only the poll step for an intent that was already
// published, e.g. after a crash between publish and poll.
func (s *SettlementService) Resume(
	ctx context.Context,
	intentHash string,
	labels map[string]string,
) (*types.Outcome, error) {
	if intentHash == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "intent hash is required")
	}

	pollCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	outcome, err := s.venue.WaitForSettlement(pollCtx, intentHash, func(*types.StatusResponse) {
		s.metrics.IncCounter(metrics.SettlementPolled, labels)
	})
	s.metrics.ObserveLatency(metrics.SettlementPolled, time.Since(start), labels)
	if err != nil {
		s.log.Error("settlement polling stopped", map[string]any{"intent_hash": intentHash, "error": err})
		return nil, fmt.Errorf("settle intent %s: %w", intentHash, err)
	}

	if !outcome.Succeeded() {
		s.log.Warn("intent ended without a transaction", map[string]any{"intent_hash": intentHash, "status": outcome.Status})
		return nil, types.NewError(types.ErrTerminalMismatch,
			"intent %s ended with status %s and no transaction hash", intentHash, outcome.Status).WithData(outcome)
	}

	s.log.Info("intent settled", map[string]any{"intent_hash": intentHash, "tx_hash": outcome.TxHash})
	return outcome, nil
}
