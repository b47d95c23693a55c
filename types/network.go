package types

import "strings"

// Chain identifies a ledger in the catalog and bridge namespaces.
type Chain string

const (
	// ChainNear is the smart-contract ledger that hosts the intents contract.
	ChainNear Chain = "near"

	// ChainZcash is the privacy-coin ledger.
	ChainZcash Chain = "zec"
)

// Well-known symbols that get special routing.
const (
	SymbolNEAR  = "NEAR"
	SymbolWNEAR = "wNEAR"
	SymbolZEC   = "ZEC"
)

// Decimals of the native gas token (yoctoNEAR).
const NearDecimals int32 = 24

// NormalizeChain lower-cases and trims a chain identifier.
func NormalizeChain(chain string) Chain {
	return Chain(strings.ToLower(strings.TrimSpace(chain)))
}

func (c Chain) IsNear() bool {
	return c == ChainNear
}

func (c Chain) IsZcash() bool {
	return c == ChainZcash
}

func (c Chain) String() string {
	return string(c)
}
