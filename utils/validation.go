package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// NEAR account ids: 2-64 chars of lower-case alphanumerics separated by
	// single '.', '-' or '_', or a 64-char implicit hex account.
	nearAccountRe = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

	zcashAddressRe = regexp.MustCompile(`^[a-zA-Z0-9]{34,}$`)

	base58Re = regexp.MustCompile("^[1-9A-HJ-NP-Za-km-z]+$")
)

// DeadlineLayout is the millisecond precision UTC timestamp format used in
// intent deadlines.
const DeadlineLayout = "2006-01-02T15:04:05.000Z"

// ValidatePositive rejects zero and negative amounts.
func ValidatePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero, got %s", amount)
	}
	return nil
}

// ValidateNearAccountID checks NEAR account id syntax.
func ValidateNearAccountID(id string) error {
	if len(id) < 2 || len(id) > 64 {
		return fmt.Errorf("NEAR account id %q must be 2 to 64 characters long", id)
	}
	if !nearAccountRe.MatchString(id) {
		return fmt.Errorf("invalid NEAR account id %q", id)
	}
	return nil
}

// ValidateZcashAddress checks that an address is a plausible Zcash address.
func ValidateZcashAddress(address string) error {
	if !zcashAddressRe.MatchString(address) {
		return fmt.Errorf("invalid Zcash address %q", address)
	}
	return nil
}

// IsTransparentZcashAddress reports whether the address is a transparent (t-) address.
func IsTransparentZcashAddress(address string) bool {
	return strings.HasPrefix(address, "t")
}

// IsBase58String checks the base58 alphabet.
func IsBase58String(s string) bool {
	return base58Re.MatchString(s)
}

// FormatDeadline renders now+d in the intent deadline format.
func FormatDeadline(now time.Time, d time.Duration) string {
	return now.Add(d).UTC().Format(DeadlineLayout)
}
