// Package scheduler runs the background polling loops that turn pending
// orders into executions. Both loops are sequential within a tick: orders
// are processed one at a time, and a slow tick simply delays the next poll.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/GOODBADBOY10/centron-bot/internal/engine"
	"github.com/GOODBADBOY10/centron-bot/internal/notify"
	"github.com/GOODBADBOY10/centron-bot/internal/trigger"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

const (
	defaultLimitInterval = 20 * time.Second

	// Bookkeeping writes after a confirmed swap get a couple of extra
	// chances before the failure is logged and left for recovery.
	writeRetryAttempts = 2
	defaultRetryDelay  = time.Second
)

// Executor is the execution pipeline from the scheduler's point of view.
type Executor interface {
	Execute(ctx context.Context, req engine.Request) (*types.ExecutionResult, error)
}

// MarketSource provides live market data for trigger evaluation.
type MarketSource interface {
	TokenData(ctx context.Context, tokenAddress string) (types.TokenMarketData, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// OrderStore is the slice of storage the schedulers drive directly; the
// pipeline handles claim/release/failure transitions itself.
type OrderStore interface {
	GetPendingLimitOrders(ctx context.Context) ([]types.LimitOrder, error)
	GetPendingDCAOrders(ctx context.Context) ([]types.DcaOrder, error)
	ReleaseStuckOrders(ctx context.Context, kind types.OrderKind) (int64, error)
	MarkOrderCompleted(ctx context.Context, kind types.OrderKind, id string) error
	UpdateDCAExecution(ctx context.Context, id string, lastExecuted time.Time) (int, error)
}

// retryWrite gives a post-execution bookkeeping write a few bounded
// attempts. The swap it records already happened, so giving up means the
// order's state is behind the chain until something recovers it.
func retryWrite(ctx context.Context, delay time.Duration, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(writeRetryAttempts, retry.NewConstant(delay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// recoverStuckOrders runs once at scheduler startup. Any order still
// in_progress at that point lost its lease holder to a crash, so it goes
// back to pending where the polling queries can see it again.
func recoverStuckOrders(ctx context.Context, db OrderStore, kind types.OrderKind, logger *logrus.Logger) {
	released, err := db.ReleaseStuckOrders(ctx, kind)
	if err != nil {
		logger.WithError(err).Errorf("fail to release stuck %s orders", kind)
		return
	}
	if released > 0 {
		logger.Infof("released %d stuck %s orders back to pending", released, kind)
	}
}

// LimitScheduler polls pending limit orders and executes the ones whose
// market-cap trigger condition holds.
type LimitScheduler struct {
	db         OrderStore
	market     MarketSource
	executor   Executor
	notifier   Notifier
	logger     *logrus.Logger
	interval   time.Duration
	retryDelay time.Duration
	done       chan struct{}
}

func NewLimitScheduler(db OrderStore, market MarketSource, executor Executor, notifier Notifier, logger *logrus.Logger, interval time.Duration) *LimitScheduler {
	if interval <= 0 {
		interval = defaultLimitInterval
	}

	return &LimitScheduler{
		db:         db,
		market:     market,
		executor:   executor,
		notifier:   notifier,
		logger:     logger,
		interval:   interval,
		retryDelay: defaultRetryDelay,
		done:       make(chan struct{}),
	}
}

func (s *LimitScheduler) Start() {
	go s.run()
}

func (s *LimitScheduler) Stop() {
	close(s.done)
}

func (s *LimitScheduler) run() {
	recoverStuckOrders(context.Background(), s.db, types.OrderKindLimit, s.logger)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.CheckPendingOrders(context.Background()); err != nil {
				s.logger.Errorf("Failed to check pending limit orders: %v", err)
			}
		case <-s.done:
			return
		}
	}
}

// CheckPendingOrders runs one polling pass. Per-order problems never abort
// the pass: the order is skipped and picked up again next tick.
func (s *LimitScheduler) CheckPendingOrders(ctx context.Context) error {
	orders, err := s.db.GetPendingLimitOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending limit orders: %w", err)
	}

	for _, order := range orders {
		data, err := s.market.TokenData(ctx, order.TokenAddress)
		if err != nil || data.MarketCap <= 0 {
			s.logger.WithFields(logrus.Fields{
				"order_id": order.ID,
				"token":    order.TokenAddress,
			}).Warn("market cap unavailable, skipping order")
			continue
		}

		if !trigger.LimitTriggered(order, data.MarketCap) {
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"order_id":   order.ID,
			"side":       order.Side,
			"trigger":    order.TriggerMarketCap,
			"market_cap": data.MarketCap,
		}).Info("limit order triggered")

		s.executeOrder(ctx, order)
	}

	return nil
}

func (s *LimitScheduler) executeOrder(ctx context.Context, order types.LimitOrder) {
	result, err := s.executor.Execute(ctx, engine.LimitRequest(order))
	if err != nil {
		if errors.Is(err, engine.ErrOrderClaimed) {
			return
		}
		s.notify(ctx, order.UserID, notify.SwapFailureMessage(types.OrderKindLimit, order.WalletAddress, err))
		return
	}

	err = retryWrite(ctx, s.retryDelay, func(ctx context.Context) error {
		return s.db.MarkOrderCompleted(ctx, types.OrderKindLimit, order.ID)
	})
	if err != nil {
		s.logger.WithError(err).Errorf("fail to mark limit order %s completed", order.ID)
	}
	s.notify(ctx, order.UserID, notify.SwapSuccessMessage(types.OrderKindLimit, result))
}

func (s *LimitScheduler) notify(ctx context.Context, userID int64, text string) {
	if err := s.notifier.Notify(ctx, userID, text); err != nil {
		s.logger.WithError(err).Warnf("fail to notify user %d", userID)
	}
}
