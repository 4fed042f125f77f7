package chainclient

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) Balance(ctx context.Context, address, coinType string) (*big.Int, error) {
	args := m.Called(ctx, address, coinType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainClient) TransferNative(ctx context.Context, key *types.SigningKey, recipient string, amount *big.Int) (string, error) {
	args := m.Called(ctx, key, recipient, amount)
	return args.String(0), args.Error(1)
}

func (m *MockChainClient) CoinMetadata(ctx context.Context, coinType string) (types.AssetMetadata, error) {
	args := m.Called(ctx, coinType)
	if args.Get(0) == nil {
		return types.AssetMetadata{}, args.Error(1)
	}
	return args.Get(0).(types.AssetMetadata), args.Error(1)
}
