// Package trigger holds the pure evaluation rules shared by the limit and
// DCA schedulers. Evaluation never mutates state: polling an order any
// number of times before execution is safe.
package trigger

import (
	"time"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

// LimitTriggered reports whether a limit order should execute at the given
// live market cap. Buys fire at or below the trigger, sells at or above;
// equality fires in both directions.
func LimitTriggered(order types.LimitOrder, liveMarketCap float64) bool {
	switch order.Side {
	case types.OrderSideBuy:
		return liveMarketCap <= order.TriggerMarketCap
	case types.OrderSideSell:
		return liveMarketCap >= order.TriggerMarketCap
	default:
		return false
	}
}

// DCADue reports whether a DCA order's interval has elapsed. An order that
// has never executed is immediately eligible.
func DCADue(order types.DcaOrder, now time.Time) bool {
	if order.LastExecuted == nil {
		return true
	}
	interval := time.Duration(order.IntervalMinutes) * time.Minute
	return now.Sub(*order.LastExecuted) >= interval
}

// DCAExpired reports whether the order's end time has passed. Expired
// orders complete without a further execution.
func DCAExpired(order types.DcaOrder, now time.Time) bool {
	return order.EndAt != nil && now.After(*order.EndAt)
}
