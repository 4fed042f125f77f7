package scheduler

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GOODBADBOY10/centron-bot/internal/engine"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
	"github.com/GOODBADBOY10/centron-bot/test/mocks/database"
	"github.com/GOODBADBOY10/centron-bot/test/mocks/executor"
	"github.com/GOODBADBOY10/centron-bot/test/mocks/notifier"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func pendingDCAOrder(executedCount int, maxExecutions int) types.DcaOrder {
	q, _ := types.FixedQuantity(big.NewInt(500_000_000))
	last := testNow.Add(-time.Hour)
	return types.DcaOrder{
		ID:              "order-2",
		UserID:          42,
		WalletAddress:   "0x1234567890abcdef1234567890abcdef12345678",
		TokenAddress:    "0x123::token::ABC",
		Side:            types.OrderSideBuy,
		Quantity:        q,
		IntervalMinutes: 60,
		MaxExecutions:   &maxExecutions,
		LastExecuted:    &last,
		ExecutedCount:   executedCount,
		Slippage:        1,
		Status:          types.StatusPending,
	}
}

func newDCAScheduler(db *database.MockDB, exec *executor.MockExecutor, n *notifier.MockNotifier) *DCAScheduler {
	s := NewDCAScheduler(db, exec, n, logrus.New(), 0)
	clock := new(MockClock)
	clock.On("Now").Return(testNow)
	s.clock = clock
	s.retryDelay = time.Millisecond
	return s
}

func successResult() *types.ExecutionResult {
	return &types.ExecutionResult{
		Success:        true,
		TxDigest:       "abc",
		WalletAddress:  "0x1234567890abcdef1234567890abcdef12345678",
		TokenSymbol:    "ABC",
		SpentSUI:       0.5,
		ReceivedAmount: 10,
	}
}

func TestDCAExecutionAdvancesCount(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	db.On("GetPendingDCAOrders", mock.Anything).Return([]types.DcaOrder{pendingDCAOrder(0, 3)}, nil)
	exec.On("Execute", mock.Anything, mock.Anything).Return(successResult(), nil)
	db.On("UpdateDCAExecution", mock.Anything, "order-2", testNow).Return(1, nil)
	n.On("Notify", mock.Anything, int64(42), mock.Anything).Return(nil)

	require.NoError(t, newDCAScheduler(db, exec, n).CheckPendingOrders(context.Background()))

	db.AssertCalled(t, "UpdateDCAExecution", mock.Anything, "order-2", testNow)
	// one execution out of three: swap notice only, no completion
	db.AssertNotCalled(t, "MarkOrderCompleted", mock.Anything, mock.Anything, mock.Anything)
	n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDCACompletionAtBoundary(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	// third execution of three: count reaches the bound exactly
	db.On("GetPendingDCAOrders", mock.Anything).Return([]types.DcaOrder{pendingDCAOrder(2, 3)}, nil)
	exec.On("Execute", mock.Anything, mock.Anything).Return(successResult(), nil)
	db.On("UpdateDCAExecution", mock.Anything, "order-2", testNow).Return(3, nil)
	db.On("MarkOrderCompleted", mock.Anything, types.OrderKindDCA, "order-2").Return(nil)
	n.On("Notify", mock.Anything, int64(42), mock.Anything).Return(nil)

	require.NoError(t, newDCAScheduler(db, exec, n).CheckPendingOrders(context.Background()))

	db.AssertCalled(t, "MarkOrderCompleted", mock.Anything, types.OrderKindDCA, "order-2")
	// swap notice plus the distinct completion notice
	n.AssertNumberOfCalls(t, "Notify", 2)
	n.AssertCalled(t, "Notify", mock.Anything, int64(42), "✅ DCA order completed (executed 3 times)")
}

func TestDCANotDueYet(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	order := pendingDCAOrder(0, 3)
	recent := testNow.Add(-30 * time.Minute)
	order.LastExecuted = &recent

	db.On("GetPendingDCAOrders", mock.Anything).Return([]types.DcaOrder{order}, nil)

	require.NoError(t, newDCAScheduler(db, exec, n).CheckPendingOrders(context.Background()))

	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestDCAExpiredCompletesWithoutExecuting(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	order := pendingDCAOrder(2, 10)
	past := testNow.Add(-time.Minute)
	order.EndAt = &past

	db.On("GetPendingDCAOrders", mock.Anything).Return([]types.DcaOrder{order}, nil)
	db.On("MarkOrderCompleted", mock.Anything, types.OrderKindDCA, "order-2").Return(nil)
	n.On("Notify", mock.Anything, int64(42), mock.Anything).Return(nil)

	require.NoError(t, newDCAScheduler(db, exec, n).CheckPendingOrders(context.Background()))

	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	db.AssertCalled(t, "MarkOrderCompleted", mock.Anything, types.OrderKindDCA, "order-2")
}

func TestDCAFailureKeepsOrderRunning(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	db.On("GetPendingDCAOrders", mock.Anything).Return([]types.DcaOrder{pendingDCAOrder(1, 3)}, nil)
	exec.On("Execute", mock.Anything, mock.Anything).Return(nil, &engine.ExecutionError{
		Category: engine.CategoryQuote,
		Err:      errors.New("no route"),
	})
	n.On("Notify", mock.Anything, int64(42), mock.Anything).Return(nil)

	require.NoError(t, newDCAScheduler(db, exec, n).CheckPendingOrders(context.Background()))

	db.AssertNotCalled(t, "UpdateDCAExecution", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "MarkOrderCompleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestDCAExecutionRecordRetried(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	db.On("GetPendingDCAOrders", mock.Anything).Return([]types.DcaOrder{pendingDCAOrder(0, 3)}, nil)
	exec.On("Execute", mock.Anything, mock.Anything).Return(successResult(), nil)
	// transient write failure: the second attempt lands
	db.On("UpdateDCAExecution", mock.Anything, "order-2", testNow).Return(0, errors.New("connection reset")).Once()
	db.On("UpdateDCAExecution", mock.Anything, "order-2", testNow).Return(1, nil)
	n.On("Notify", mock.Anything, int64(42), mock.Anything).Return(nil)

	require.NoError(t, newDCAScheduler(db, exec, n).CheckPendingOrders(context.Background()))

	db.AssertNumberOfCalls(t, "UpdateDCAExecution", 2)
	db.AssertNotCalled(t, "MarkOrderCompleted", mock.Anything, mock.Anything, mock.Anything)
	n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDCARecordFailureHoldsLease(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	db.On("GetPendingDCAOrders", mock.Anything).Return([]types.DcaOrder{pendingDCAOrder(0, 3)}, nil)
	exec.On("Execute", mock.Anything, mock.Anything).Return(successResult(), nil)
	db.On("UpdateDCAExecution", mock.Anything, "order-2", testNow).Return(0, errors.New("connection refused"))
	n.On("Notify", mock.Anything, int64(42), mock.Anything).Return(nil)

	require.NoError(t, newDCAScheduler(db, exec, n).CheckPendingOrders(context.Background()))

	// retries exhausted: the swap settled on chain, so the lease is not
	// released for a re-run. The startup sweep returns the row to pending.
	db.AssertNumberOfCalls(t, "UpdateDCAExecution", 3)
	db.AssertNotCalled(t, "ReleaseOrder", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "MarkOrderCompleted", mock.Anything, mock.Anything, mock.Anything)
	n.AssertNumberOfCalls(t, "Notify", 1)
}

func TestDCASweepReleasesStuckOrdersOnStart(t *testing.T) {
	db := new(database.MockDB)
	exec := new(executor.MockExecutor)
	n := new(notifier.MockNotifier)

	db.On("ReleaseStuckOrders", mock.Anything, types.OrderKindDCA).Return(int64(2), nil)

	s := newDCAScheduler(db, exec, n)
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	db.AssertCalled(t, "ReleaseStuckOrders", mock.Anything, types.OrderKindDCA)
	exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}
