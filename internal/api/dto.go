package api

import (
	"fmt"
	"math/big"
	"time"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type CreateLimitOrderRequest struct {
	WalletAddress    string  `json:"wallet_address" validate:"required"`
	TokenAddress     string  `json:"token_address" validate:"required"`
	Side             string  `json:"side" validate:"required,oneof=buy sell"`
	AmountMist       string  `json:"amount_mist,omitempty"`
	Percentage       uint8   `json:"percentage,omitempty"`
	TriggerMarketCap float64 `json:"trigger_market_cap" validate:"required,gt=0"`
	Slippage         float64 `json:"slippage" validate:"gte=0,lte=100"`
}

type CreateDCAOrderRequest struct {
	WalletAddress   string     `json:"wallet_address" validate:"required"`
	TokenAddress    string     `json:"token_address" validate:"required"`
	Side            string     `json:"side" validate:"required,oneof=buy sell"`
	AmountMist      string     `json:"amount_mist,omitempty"`
	Percentage      uint8      `json:"percentage,omitempty"`
	IntervalMinutes int        `json:"interval_minutes" validate:"required,gt=0"`
	MaxExecutions   *int       `json:"max_executions,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	Slippage        float64    `json:"slippage" validate:"gte=0,lte=100"`
}

// parseQuantity maps the request's amount fields onto the tagged quantity
// variant: exactly one of amount_mist and percentage must be set.
func parseQuantity(amountMist string, percentage uint8) (types.OrderQuantity, error) {
	if amountMist != "" && percentage != 0 {
		return types.OrderQuantity{}, fmt.Errorf("amount_mist and percentage are mutually exclusive")
	}
	if amountMist != "" {
		raw, ok := new(big.Int).SetString(amountMist, 10)
		if !ok {
			return types.OrderQuantity{}, fmt.Errorf("invalid amount_mist: %q", amountMist)
		}
		return types.FixedQuantity(raw)
	}
	if percentage != 0 {
		return types.PercentageQuantity(percentage)
	}
	return types.OrderQuantity{}, fmt.Errorf("either amount_mist or percentage is required")
}

type OrdersResponse struct {
	LimitOrders []types.LimitOrder `json:"limit_orders"`
	DcaOrders   []types.DcaOrder   `json:"dca_orders"`
}

type PositionView struct {
	types.Position
	CurrentPriceSUI float64 `json:"current_price_sui,omitempty"`
	PnLSUI          float64 `json:"pnl_sui,omitempty"`
	PnLPercent      float64 `json:"pnl_percent,omitempty"`
}
