package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type PoolProvider interface {
	Pool() *pgxpool.Pool
}

type Transactor interface {
	PoolProvider
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

type DatabaseStorage interface {
	Transactor
	OrderRepository
	PositionRepository
	WalletRepository
	Close() error
}

// OrderRepository persists limit and DCA orders. ClaimOrder and ReleaseOrder
// implement the execution lease: a claim flips pending to in_progress
// atomically so each eligible order is picked up by at most one scheduler
// pass, and a release returns a failed attempt to pending with the attempt
// counter advanced.
type OrderRepository interface {
	InsertLimitOrder(ctx context.Context, order types.LimitOrder) error
	InsertDCAOrder(ctx context.Context, order types.DcaOrder) error

	GetPendingLimitOrders(ctx context.Context) ([]types.LimitOrder, error)
	GetPendingDCAOrders(ctx context.Context) ([]types.DcaOrder, error)
	GetUserLimitOrders(ctx context.Context, userID int64) ([]types.LimitOrder, error)
	GetUserDCAOrders(ctx context.Context, userID int64) ([]types.DcaOrder, error)

	ClaimOrder(ctx context.Context, kind types.OrderKind, id string) (bool, error)
	ReleaseOrder(ctx context.Context, kind types.OrderKind, id string) error

	// ReleaseStuckOrders returns every in_progress order of the kind to
	// pending and reports how many were released. Schedulers call it once
	// on startup to recover leases orphaned by a crash mid-execution.
	ReleaseStuckOrders(ctx context.Context, kind types.OrderKind) (int64, error)
	MarkOrderCompleted(ctx context.Context, kind types.OrderKind, id string) error
	MarkOrderFailed(ctx context.Context, kind types.OrderKind, id string) error
	CancelOrder(ctx context.Context, kind types.OrderKind, userID int64, id string) error

	RecordOrderFeeTx(ctx context.Context, kind types.OrderKind, id string, feeTxDigest string) error

	// UpdateDCAExecution advances the order after a successful swap: it
	// increments executed_count, stamps last_executed, returns the order to
	// pending and clears the attempt counter and fee digest. The caller
	// checks the completion bound against the returned count.
	UpdateDCAExecution(ctx context.Context, id string, lastExecuted time.Time) (executedCount int, err error)
}

// PositionRepository is the append-only position ledger. UpsertPosition
// locks the row so concurrent buys serialize on the cost basis fold.
type PositionRepository interface {
	UpsertPosition(ctx context.Context, userID int64, walletAddress string, update types.PositionUpdate, now time.Time) (types.Position, error)
	GetPositions(ctx context.Context, userID int64, walletAddress string) ([]types.Position, error)
	GetPosition(ctx context.Context, userID int64, walletAddress, tokenAddress string) (*types.Position, error)
}

type WalletRepository interface {
	GetWallet(ctx context.Context, userID int64, address string) (*types.Wallet, error)
	InsertWallet(ctx context.Context, wallet types.Wallet) error
}
