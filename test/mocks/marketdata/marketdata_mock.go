package marketdata

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) TokenData(ctx context.Context, tokenAddress string) (types.TokenMarketData, error) {
	args := m.Called(ctx, tokenAddress)
	if args.Get(0) == nil {
		return types.TokenMarketData{}, args.Error(1)
	}
	return args.Get(0).(types.TokenMarketData), args.Error(1)
}
