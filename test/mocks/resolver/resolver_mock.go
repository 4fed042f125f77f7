package resolver

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, userID int64, walletAddress string) (*types.SigningKey, error) {
	args := m.Called(ctx, userID, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SigningKey), args.Error(1)
}
