package swapprovider

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type MockSwapProvider struct {
	mock.Mock
}

func (m *MockSwapProvider) Quote(ctx context.Context, coinIn, coinOut string, amountIn *big.Int, slippage float64) (types.Route, error) {
	args := m.Called(ctx, coinIn, coinOut, amountIn, slippage)
	if args.Get(0) == nil {
		return types.Route{}, args.Error(1)
	}
	return args.Get(0).(types.Route), args.Error(1)
}

func (m *MockSwapProvider) Execute(ctx context.Context, key *types.SigningKey, route types.Route) (types.SwapReceipt, error) {
	args := m.Called(ctx, key, route)
	if args.Get(0) == nil {
		return types.SwapReceipt{}, args.Error(1)
	}
	return args.Get(0).(types.SwapReceipt), args.Error(1)
}
