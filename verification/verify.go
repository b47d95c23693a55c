package verification

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vitwit/zizza/types"
	"github.com/vitwit/zizza/utils"
	"github.com/vitwit/zizza/utils/nep413"
)

// VenueLedger reads balances held by the intents contract.
type VenueLedger interface {
	VenueBalance(ctx context.Context, asset types.Asset) (decimal.Decimal, error)
}

// VerificationService runs the balance and threshold checks every operation
// performs before anything is signed.
type VerificationService struct {
	venue VenueLedger
}

// NewVerificationService creates a new verification service
func NewVerificationService(venue VenueLedger) *VerificationService {
	return &VerificationService{venue: venue}
}

// DepositedBalance returns the venue balance of asset. A zero balance means
// the asset was never deposited and is reported as NOT_DEPOSITED.
func (s *VerificationService) DepositedBalance(ctx context.Context, asset types.Asset) (decimal.Decimal, error) {
	bal, err := s.venue.VenueBalance(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if !bal.IsPositive() {
		return decimal.Zero, types.NewError(types.ErrNotDeposited,
			"%s is not deposited into the intents contract yet", asset.Base().Symbol)
	}
	return bal, nil
}

// VerifyVenueBalance fails unless the venue holds at least amount of asset.
func (s *VerificationService) VerifyVenueBalance(ctx context.Context, asset types.Asset, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := utils.ValidatePositive(amount); err != nil {
		return decimal.Zero, types.NewError(types.ErrInvalidRequest, "%v", err)
	}
	bal, err := s.DepositedBalance(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if bal.LessThan(amount) {
		return bal, types.NewError(types.ErrInsufficientBalance,
			"insufficient %s balance on the intents contract: have %s, need %s",
			asset.Base().Symbol, bal.String(), amount.String())
	}
	return bal, nil
}

// CheckMinimumWithdrawal rejects amounts below the bridge's withdrawal
// threshold. The message carries the exact minimum.
func CheckMinimumWithdrawal(asset *types.BridgeableAsset, amount decimal.Decimal) error {
	min := asset.MinWithdrawal()
	if amount.LessThan(min) {
		return types.NewError(types.ErrBelowMinimum,
			"minimum withdrawal amount for %s is %s, requested %s", asset.Symbol, min.String(), amount.String()).
			WithData(map[string]string{"minimum": min.String()})
	}
	return nil
}

// CheckMinimumDeposit rejects amounts below the bridge's deposit threshold.
func CheckMinimumDeposit(asset *types.BridgeableAsset, amount decimal.Decimal) error {
	min := asset.MinDeposit()
	if amount.LessThan(min) {
		return types.NewError(types.ErrBelowMinimum,
			"minimum deposit amount for %s is %s, requested %s", asset.Symbol, min.String(), amount.String()).
			WithData(map[string]string{"minimum": min.String()})
	}
	return nil
}

// CheckWalletBalance fails unless balance covers amount plus fee. Pass a
// zero fee for ledgers where gas is paid from a separate allowance.
func CheckWalletBalance(symbol string, balance, amount, fee decimal.Decimal) error {
	need := amount.Add(fee)
	if balance.LessThan(need) {
		msg := fmt.Sprintf("insufficient %s balance: have %s, need %s", symbol, balance.String(), need.String())
		if fee.IsPositive() {
			msg += fmt.Sprintf(" (%s plus a fee of %s)", amount.String(), fee.String())
		}
		return &types.Error{Code: types.ErrInsufficientBalance, Message: msg}
	}
	return nil
}

// VerifyEnvelope recomputes the digest of a signed envelope and checks the
// signature against the embedded public key.
func VerifyEnvelope(env *types.SignedEnvelope) error {
	digest, err := nep413.DigestOf(env)
	if err != nil {
		return err
	}
	pub, err := utils.ParsePublicKey(env.PublicKey)
	if err != nil {
		return types.NewError(types.ErrEncoding, "envelope public key: %v", err)
	}
	ok, err := utils.VerifyDigest(digest[:], env.Signature, pub)
	if err != nil {
		return types.NewError(types.ErrEncoding, "envelope signature: %v", err)
	}
	if !ok {
		return types.NewError(types.ErrInvalidRequest, "envelope signature does not match public key %s", env.PublicKey)
	}
	return nil
}
