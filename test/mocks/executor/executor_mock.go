package executor

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/GOODBADBOY10/centron-bot/internal/engine"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, req engine.Request) (*types.ExecutionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ExecutionResult), args.Error(1)
}
