package types

import (
	"encoding/json"
	"math/big"
)

// Route is a quoted swap route from the provider. Payload carries the
// provider's opaque route document and is passed back verbatim on execute.
type Route struct {
	CoinIn            string
	CoinOut           string
	AmountIn          *big.Int
	ExpectedAmountOut *big.Int
	Slippage          float64
	Payload           json.RawMessage
}

// SwapReceipt is the provider's view of an executed swap. Settled amounts
// are re-read from chain afterwards; AmountOut here is advisory.
type SwapReceipt struct {
	TxDigest  string
	AmountOut *big.Int
}

type AssetMetadata struct {
	Symbol   string
	Decimals int
}

// ExecutionResult is the per-attempt outcome of the execution pipeline. It
// is ephemeral: used to advance order status and compose the user
// notification, never persisted verbatim.
type ExecutionResult struct {
	Success       bool
	TxDigest      string
	FeeTxDigest   string
	WalletAddress string
	TokenAddress  string
	TokenSymbol   string
	TokenDecimals int

	// Buy: SpentSUI is the native amount spent, ReceivedAmount the tokens
	// received. Sell: SoldAmount is the tokens sold, ReceivedSUI the native
	// amount received. All human-readable (decimal-adjusted).
	SpentSUI       float64
	ReceivedAmount float64
	SoldAmount     float64
	ReceivedSUI    float64
}
