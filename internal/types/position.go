package types

import (
	"fmt"
	"time"
)

// TradeEntry is one row of the append-only trade audit trail attached to a
// position. Entries are never mutated after append.
type TradeEntry struct {
	Amount   float64   `json:"amount"`
	PriceSUI float64   `json:"price_sui"`
	Time     time.Time `json:"time"`
}

// Position tracks a (user, wallet, token) holding with its running weighted
// average cost basis in SUI. AvgPriceSUI is always recomputed from
// TotalCostSUI / TotalAmount, never stored independently.
type Position struct {
	UserID        int64        `json:"user_id"`
	WalletAddress string       `json:"wallet_address"`
	TokenAddress  string       `json:"token_address"`
	Symbol        string       `json:"symbol"`
	Decimals      int          `json:"decimals"`
	TotalAmount   float64      `json:"total_amount"`
	TotalCostSUI  float64      `json:"total_cost_sui"`
	AvgPriceSUI   float64      `json:"avg_price_sui"`
	TxHistory     []TradeEntry `json:"tx_history"`
	LastUpdated   time.Time    `json:"last_updated"`
}

// ApplyBuy folds a confirmed buy into the position:
// new average = (old cost + new cost) / (old qty + new qty).
func (p *Position) ApplyBuy(amount, costSUI float64, now time.Time) error {
	if amount <= 0 {
		return fmt.Errorf("buy amount must be greater than 0, got %f", amount)
	}
	if costSUI < 0 {
		return fmt.Errorf("buy cost must not be negative, got %f", costSUI)
	}

	p.TotalAmount += amount
	p.TotalCostSUI += costSUI
	p.AvgPriceSUI = p.TotalCostSUI / p.TotalAmount
	p.TxHistory = append(p.TxHistory, TradeEntry{
		Amount:   amount,
		PriceSUI: costSUI / amount,
		Time:     now,
	})
	p.LastUpdated = now
	return nil
}

// UnrealizedPnL values the position at the given spot price. Returns the
// absolute PnL in SUI and the percentage against the average entry. Both are
// zero when no cost basis exists yet.
func (p *Position) UnrealizedPnL(currentPriceSUI float64) (pnlSUI float64, pnlPercent float64) {
	if p.AvgPriceSUI <= 0 || p.TotalAmount <= 0 {
		return 0, 0
	}
	pnlSUI = (currentPriceSUI - p.AvgPriceSUI) * p.TotalAmount
	pnlPercent = (currentPriceSUI - p.AvgPriceSUI) / p.AvgPriceSUI * 100
	return pnlSUI, pnlPercent
}

// PositionUpdate is the ledger-facing payload produced by a confirmed buy.
type PositionUpdate struct {
	TokenAddress string
	Symbol       string
	Decimals     int
	AmountBought float64
	AmountInSUI  float64
}
