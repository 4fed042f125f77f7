package types

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrderQuantityConstructors(t *testing.T) {
	q, err := FixedQuantity(big.NewInt(2_000_000_000))
	require.NoError(t, err)
	require.Equal(t, QuantityFixed, q.Kind)
	require.Equal(t, int64(2_000_000_000), q.Fixed.Int64())
	require.NoError(t, q.Validate())

	_, err = FixedQuantity(big.NewInt(0))
	require.Error(t, err)

	_, err = FixedQuantity(nil)
	require.Error(t, err)

	p, err := PercentageQuantity(100)
	require.NoError(t, err)
	require.Equal(t, QuantityPercentage, p.Kind)
	require.NoError(t, p.Validate())

	_, err = PercentageQuantity(0)
	require.Error(t, err)

	_, err = PercentageQuantity(101)
	require.Error(t, err)
}

func TestOrderQuantityExclusivity(t *testing.T) {
	testCases := []struct {
		name     string
		quantity OrderQuantity
		wantErr  bool
	}{
		{
			name:     "fixed only",
			quantity: OrderQuantity{Kind: QuantityFixed, Fixed: big.NewInt(100)},
			wantErr:  false,
		},
		{
			name:     "percentage only",
			quantity: OrderQuantity{Kind: QuantityPercentage, Percentage: 50},
			wantErr:  false,
		},
		{
			name:     "both set",
			quantity: OrderQuantity{Kind: QuantityFixed, Fixed: big.NewInt(100), Percentage: 50},
			wantErr:  true,
		},
		{
			name:     "percentage kind with fixed amount",
			quantity: OrderQuantity{Kind: QuantityPercentage, Percentage: 50, Fixed: big.NewInt(1)},
			wantErr:  true,
		},
		{
			name:     "neither set",
			quantity: OrderQuantity{Kind: QuantityFixed},
			wantErr:  true,
		},
		{
			name:     "unknown kind",
			quantity: OrderQuantity{Kind: "weighted", Fixed: big.NewInt(1)},
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.quantity.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func validLimitOrder() LimitOrder {
	q, _ := FixedQuantity(big.NewInt(1_000_000_000))
	return LimitOrder{
		ID:               "order-1",
		UserID:           42,
		WalletAddress:    "0xabc",
		TokenAddress:     "0x123::token::ABC",
		Side:             OrderSideBuy,
		Quantity:         q,
		TriggerMarketCap: 500_000,
		Slippage:         1,
		Status:           StatusPending,
	}
}

func TestLimitOrderValidate(t *testing.T) {
	order := validLimitOrder()
	require.NoError(t, order.Validate())

	order = validLimitOrder()
	order.TriggerMarketCap = 0
	require.Error(t, order.Validate())

	order = validLimitOrder()
	order.Side = "swap"
	require.Error(t, order.Validate())

	order = validLimitOrder()
	order.Slippage = 101
	require.Error(t, order.Validate())
}

func TestDcaOrderRequiresBound(t *testing.T) {
	q, _ := FixedQuantity(big.NewInt(500_000_000))
	end := time.Now().Add(24 * time.Hour)
	three := 3

	order := DcaOrder{
		Side:            OrderSideBuy,
		Quantity:        q,
		IntervalMinutes: 60,
		Slippage:        1,
	}
	require.Error(t, order.Validate(), "unbounded dca order must be rejected")

	order.MaxExecutions = &three
	require.NoError(t, order.Validate())

	order.MaxExecutions = nil
	order.EndAt = &end
	require.NoError(t, order.Validate())

	order.IntervalMinutes = 0
	require.Error(t, order.Validate())
}
