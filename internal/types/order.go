package types

import (
	"fmt"
	"math/big"
	"time"
)

type OrderKind string

const (
	OrderKindLimit OrderKind = "limit"
	OrderKindDCA   OrderKind = "dca"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
	StatusFailed     OrderStatus = "failed"
)

type QuantityKind string

const (
	QuantityFixed      QuantityKind = "fixed"
	QuantityPercentage QuantityKind = "percentage"
)

// OrderQuantity is a tagged variant: either a fixed amount of the source
// asset in smallest units (buy) or a percentage of the current holding
// (sell). Exactly one of the two is populated.
type OrderQuantity struct {
	Kind       QuantityKind `json:"kind"`
	Fixed      *big.Int     `json:"fixed,omitempty"`
	Percentage uint8        `json:"percentage,omitempty"`
}

func FixedQuantity(raw *big.Int) (OrderQuantity, error) {
	if raw == nil || raw.Sign() <= 0 {
		return OrderQuantity{}, fmt.Errorf("fixed quantity must be greater than 0")
	}
	return OrderQuantity{Kind: QuantityFixed, Fixed: new(big.Int).Set(raw)}, nil
}

func PercentageQuantity(pct uint8) (OrderQuantity, error) {
	if pct == 0 || pct > 100 {
		return OrderQuantity{}, fmt.Errorf("percentage must be in (0,100], got %d", pct)
	}
	return OrderQuantity{Kind: QuantityPercentage, Percentage: pct}, nil
}

func (q OrderQuantity) Validate() error {
	switch q.Kind {
	case QuantityFixed:
		if q.Fixed == nil || q.Fixed.Sign() <= 0 {
			return fmt.Errorf("fixed quantity must be greater than 0")
		}
		if q.Percentage != 0 {
			return fmt.Errorf("fixed quantity must not carry a percentage")
		}
	case QuantityPercentage:
		if q.Percentage == 0 || q.Percentage > 100 {
			return fmt.Errorf("percentage must be in (0,100], got %d", q.Percentage)
		}
		if q.Fixed != nil {
			return fmt.Errorf("percentage quantity must not carry a fixed amount")
		}
	default:
		return fmt.Errorf("unknown quantity kind: %q", q.Kind)
	}
	return nil
}

// LimitOrder executes once when the token's live market cap crosses
// TriggerMarketCap (buy: at or below, sell: at or above).
type LimitOrder struct {
	ID               string       `json:"id"`
	UserID           int64        `json:"user_id"`
	WalletAddress    string       `json:"wallet_address"`
	TokenAddress     string       `json:"token_address"`
	Side             OrderSide    `json:"side"`
	Quantity         OrderQuantity `json:"quantity"`
	TriggerMarketCap float64      `json:"trigger_market_cap"`
	Slippage         float64      `json:"slippage"`
	Status           OrderStatus  `json:"status"`
	Attempts         int          `json:"attempts"`
	FeeTxDigest      string       `json:"fee_tx_digest,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

func (o *LimitOrder) Validate() error {
	if err := o.Quantity.Validate(); err != nil {
		return err
	}
	if o.Side != OrderSideBuy && o.Side != OrderSideSell {
		return fmt.Errorf("invalid order side: %q", o.Side)
	}
	if o.TriggerMarketCap <= 0 {
		return fmt.Errorf("trigger market cap must be greater than 0")
	}
	if o.Slippage < 0 || o.Slippage > 100 {
		return fmt.Errorf("slippage must be between 0 and 100")
	}
	return nil
}

// DcaOrder executes repeatedly, once every IntervalMinutes, until either
// ExecutedCount reaches MaxExecutions or EndAt passes. At least one of the
// two bounds is required at creation time.
type DcaOrder struct {
	ID              string        `json:"id"`
	UserID          int64         `json:"user_id"`
	WalletAddress   string        `json:"wallet_address"`
	TokenAddress    string        `json:"token_address"`
	Side            OrderSide     `json:"side"`
	Quantity        OrderQuantity `json:"quantity"`
	IntervalMinutes int           `json:"interval_minutes"`
	MaxExecutions   *int          `json:"max_executions,omitempty"`
	EndAt           *time.Time    `json:"end_at,omitempty"`
	LastExecuted    *time.Time    `json:"last_executed,omitempty"`
	ExecutedCount   int           `json:"executed_count"`
	Slippage        float64       `json:"slippage"`
	Status          OrderStatus   `json:"status"`
	Attempts        int           `json:"attempts"`
	FeeTxDigest     string        `json:"fee_tx_digest,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

func (o *DcaOrder) Validate() error {
	if err := o.Quantity.Validate(); err != nil {
		return err
	}
	if o.Side != OrderSideBuy && o.Side != OrderSideSell {
		return fmt.Errorf("invalid order side: %q", o.Side)
	}
	if o.IntervalMinutes <= 0 {
		return fmt.Errorf("interval must be greater than 0 minutes")
	}
	if o.MaxExecutions == nil && o.EndAt == nil {
		return fmt.Errorf("dca order requires max executions or an end time")
	}
	if o.MaxExecutions != nil && *o.MaxExecutions <= 0 {
		return fmt.Errorf("max executions must be greater than 0")
	}
	if o.Slippage < 0 || o.Slippage > 100 {
		return fmt.Errorf("slippage must be between 0 and 100")
	}
	return nil
}
