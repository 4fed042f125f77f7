package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GOODBADBOY10/centron-bot/internal/engine"
	"github.com/GOODBADBOY10/centron-bot/internal/notify"
	"github.com/GOODBADBOY10/centron-bot/internal/trigger"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

const defaultDCAInterval = 60 * time.Second

// DCAScheduler polls pending DCA orders and executes the ones whose
// interval has elapsed, advancing the execution count and completing the
// order once its bound is reached.
type DCAScheduler struct {
	db         OrderStore
	executor   Executor
	notifier   Notifier
	logger     *logrus.Logger
	clock      Clock
	interval   time.Duration
	retryDelay time.Duration
	done       chan struct{}
}

func NewDCAScheduler(db OrderStore, executor Executor, notifier Notifier, logger *logrus.Logger, interval time.Duration) *DCAScheduler {
	if interval <= 0 {
		interval = defaultDCAInterval
	}

	return &DCAScheduler{
		db:         db,
		executor:   executor,
		notifier:   notifier,
		logger:     logger,
		clock:      NewRealClock(),
		interval:   interval,
		retryDelay: defaultRetryDelay,
		done:       make(chan struct{}),
	}
}

func (s *DCAScheduler) Start() {
	go s.run()
}

func (s *DCAScheduler) Stop() {
	close(s.done)
}

func (s *DCAScheduler) run() {
	recoverStuckOrders(context.Background(), s.db, types.OrderKindDCA, s.logger)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.CheckPendingOrders(context.Background()); err != nil {
				s.logger.Errorf("Failed to check pending dca orders: %v", err)
			}
		case <-s.done:
			return
		}
	}
}

func (s *DCAScheduler) CheckPendingOrders(ctx context.Context) error {
	orders, err := s.db.GetPendingDCAOrders(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending dca orders: %w", err)
	}

	now := s.clock.Now()
	for _, order := range orders {
		if trigger.DCAExpired(order, now) {
			s.completeExpired(ctx, order)
			continue
		}

		if !trigger.DCADue(order, now) {
			continue
		}

		s.executeOrder(ctx, order, now)
	}

	return nil
}

func (s *DCAScheduler) completeExpired(ctx context.Context, order types.DcaOrder) {
	err := retryWrite(ctx, s.retryDelay, func(ctx context.Context) error {
		return s.db.MarkOrderCompleted(ctx, types.OrderKindDCA, order.ID)
	})
	if err != nil {
		s.logger.WithError(err).Errorf("fail to complete expired dca order %s", order.ID)
		return
	}
	s.notify(ctx, order.UserID, notify.DCAExpiredMessage(order.ExecutedCount))
}

func (s *DCAScheduler) executeOrder(ctx context.Context, order types.DcaOrder, now time.Time) {
	result, err := s.executor.Execute(ctx, engine.DCARequest(order))
	if err != nil {
		if errors.Is(err, engine.ErrOrderClaimed) {
			return
		}
		s.notify(ctx, order.UserID, notify.SwapFailureMessage(types.OrderKindDCA, order.WalletAddress, err))
		return
	}

	// The execution record advances before the completion check so a crash
	// between the two leaves the count correct and the completion is simply
	// re-evaluated next tick. If the write keeps failing the lease stays
	// held on purpose: releasing would re-run a swap that already settled,
	// so the row waits for the startup sweep instead.
	count := 0
	err = retryWrite(ctx, s.retryDelay, func(ctx context.Context) error {
		var writeErr error
		count, writeErr = s.db.UpdateDCAExecution(ctx, order.ID, now)
		return writeErr
	})
	if err != nil {
		s.logger.WithError(err).Errorf("fail to record dca execution for %s", order.ID)
		count = order.ExecutedCount + 1
	}

	s.notify(ctx, order.UserID, notify.SwapSuccessMessage(types.OrderKindDCA, result))

	if order.MaxExecutions != nil && count >= *order.MaxExecutions {
		err = retryWrite(ctx, s.retryDelay, func(ctx context.Context) error {
			return s.db.MarkOrderCompleted(ctx, types.OrderKindDCA, order.ID)
		})
		if err != nil {
			s.logger.WithError(err).Errorf("fail to mark dca order %s completed", order.ID)
			return
		}
		s.notify(ctx, order.UserID, notify.DCACompletedMessage(count))
	}
}

func (s *DCAScheduler) notify(ctx context.Context, userID int64, text string) {
	if err := s.notifier.Notify(ctx, userID, text); err != nil {
		s.logger.WithError(err).Warnf("fail to notify user %d", userID)
	}
}
