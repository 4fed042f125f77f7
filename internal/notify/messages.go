// Package notify composes and delivers the curated user-facing messages for
// order executions. Raw internal errors never reach end users; failures are
// summarized, with the fee transaction surfaced when one was taken.
package notify

import (
	"fmt"

	"github.com/GOODBADBOY10/centron-bot/common"
	"github.com/GOODBADBOY10/centron-bot/internal/engine"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

const explorerTxURL = "https://suiscan.xyz/mainnet/tx/"

func kindLabel(kind types.OrderKind) string {
	if kind == types.OrderKindDCA {
		return "[DCA]"
	}
	return "[Limit]"
}

func formatNum(n float64) string {
	return fmt.Sprintf("%.5f", n)
}

// SwapSuccessMessage renders the per-execution confirmation, HTML-formatted
// for Telegram.
func SwapSuccessMessage(kind types.OrderKind, result *types.ExecutionResult) string {
	shortWallet := common.ShortenAddress(result.WalletAddress)
	explorerURL := explorerTxURL + result.TxDigest

	var swapped string
	if result.SoldAmount > 0 {
		swapped = fmt.Sprintf("Swapped %s $%s ↔ %s SUI",
			formatNum(result.SoldAmount), result.TokenSymbol, formatNum(result.ReceivedSUI))
	} else {
		swapped = fmt.Sprintf("Swapped %s SUI ↔ %s $%s",
			formatNum(result.SpentSUI), formatNum(result.ReceivedAmount), result.TokenSymbol)
	}

	return fmt.Sprintf("%s %s ✅ %s\n🔗 <a href=\"%s\">View Transaction Record on Explore</a>",
		shortWallet, kindLabel(kind), swapped, explorerURL)
}

// SwapFailureMessage renders the curated failure summary. A failure that
// happened after the platform fee was collected names the fee transaction
// explicitly so the user can reference it with support.
func SwapFailureMessage(kind types.OrderKind, walletAddress string, err error) string {
	shortWallet := common.ShortenAddress(walletAddress)

	if execErr, ok := engine.AsExecutionError(err); ok {
		if execErr.FeeTxDigest != "" {
			return fmt.Sprintf("%s %s ⚠️ Fee taken but trade failed, contact support with tx %s",
				shortWallet, kindLabel(kind), execErr.FeeTxDigest)
		}
		switch execErr.Category {
		case engine.CategoryBalance:
			return fmt.Sprintf("%s %s ❌ Trade skipped: insufficient balance", shortWallet, kindLabel(kind))
		case engine.CategoryQuote:
			return fmt.Sprintf("%s %s ❌ Trade failed: no viable swap route", shortWallet, kindLabel(kind))
		}
		if execErr.Terminal {
			return fmt.Sprintf("%s %s ❌ Order failed permanently after repeated attempts", shortWallet, kindLabel(kind))
		}
	}

	return fmt.Sprintf("%s %s ❌ Trade failed, it will be retried", shortWallet, kindLabel(kind))
}

// DCACompletedMessage is the distinct completion notice sent once a DCA
// order has run its full schedule.
func DCACompletedMessage(executedCount int) string {
	return fmt.Sprintf("✅ DCA order completed (executed %d times)", executedCount)
}

// DCAExpiredMessage is sent when an order reaches its end time before its
// execution bound.
func DCAExpiredMessage(executedCount int) string {
	return fmt.Sprintf("✅ DCA order ended (executed %d times before its end time)", executedCount)
}
