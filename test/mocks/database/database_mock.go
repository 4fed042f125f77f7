package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/mock"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) Pool() *pgxpool.Pool {
	return nil
}

func (m *MockDB) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDB) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)

	if val, ok := args.Get(0).(bool); ok && val {
		return fn(ctx, nil)
	}

	return args.Error(1)
}

func (m *MockDB) InsertLimitOrder(ctx context.Context, order types.LimitOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockDB) InsertDCAOrder(ctx context.Context, order types.DcaOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockDB) GetPendingLimitOrders(ctx context.Context) ([]types.LimitOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.LimitOrder), args.Error(1)
}

func (m *MockDB) GetPendingDCAOrders(ctx context.Context) ([]types.DcaOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.DcaOrder), args.Error(1)
}

func (m *MockDB) GetUserLimitOrders(ctx context.Context, userID int64) ([]types.LimitOrder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.LimitOrder), args.Error(1)
}

func (m *MockDB) GetUserDCAOrders(ctx context.Context, userID int64) ([]types.DcaOrder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.DcaOrder), args.Error(1)
}

func (m *MockDB) ClaimOrder(ctx context.Context, kind types.OrderKind, id string) (bool, error) {
	args := m.Called(ctx, kind, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDB) ReleaseOrder(ctx context.Context, kind types.OrderKind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *MockDB) ReleaseStuckOrders(ctx context.Context, kind types.OrderKind) (int64, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDB) MarkOrderCompleted(ctx context.Context, kind types.OrderKind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *MockDB) MarkOrderFailed(ctx context.Context, kind types.OrderKind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *MockDB) CancelOrder(ctx context.Context, kind types.OrderKind, userID int64, id string) error {
	args := m.Called(ctx, kind, userID, id)
	return args.Error(0)
}

func (m *MockDB) RecordOrderFeeTx(ctx context.Context, kind types.OrderKind, id string, feeTxDigest string) error {
	args := m.Called(ctx, kind, id, feeTxDigest)
	return args.Error(0)
}

func (m *MockDB) UpdateDCAExecution(ctx context.Context, id string, lastExecuted time.Time) (int, error) {
	args := m.Called(ctx, id, lastExecuted)
	return args.Int(0), args.Error(1)
}

func (m *MockDB) UpsertPosition(ctx context.Context, userID int64, walletAddress string, update types.PositionUpdate, now time.Time) (types.Position, error) {
	args := m.Called(ctx, userID, walletAddress, update, now)
	if args.Get(0) == nil {
		return types.Position{}, args.Error(1)
	}
	return args.Get(0).(types.Position), args.Error(1)
}

func (m *MockDB) GetPositions(ctx context.Context, userID int64, walletAddress string) ([]types.Position, error) {
	args := m.Called(ctx, userID, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Position), args.Error(1)
}

func (m *MockDB) GetPosition(ctx context.Context, userID int64, walletAddress, tokenAddress string) (*types.Position, error) {
	args := m.Called(ctx, userID, walletAddress, tokenAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Position), args.Error(1)
}

func (m *MockDB) GetWallet(ctx context.Context, userID int64, address string) (*types.Wallet, error) {
	args := m.Called(ctx, userID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Wallet), args.Error(1)
}

func (m *MockDB) InsertWallet(ctx context.Context, wallet types.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}
