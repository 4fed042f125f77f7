package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

func orderTable(kind types.OrderKind) (string, error) {
	switch kind {
	case types.OrderKindLimit:
		return "limit_orders", nil
	case types.OrderKindDCA:
		return "dca_orders", nil
	default:
		return "", fmt.Errorf("unknown order kind: %q", kind)
	}
}

func quantityColumns(q types.OrderQuantity) (kind string, fixed *string, pct *int16) {
	kind = string(q.Kind)
	if q.Fixed != nil {
		s := q.Fixed.String()
		fixed = &s
	}
	if q.Percentage != 0 {
		p := int16(q.Percentage)
		pct = &p
	}
	return kind, fixed, pct
}

func scanQuantity(kind string, fixed *string, pct *int16) (types.OrderQuantity, error) {
	q := types.OrderQuantity{Kind: types.QuantityKind(kind)}
	if fixed != nil {
		raw, ok := new(big.Int).SetString(*fixed, 10)
		if !ok {
			return q, fmt.Errorf("invalid stored quantity: %q", *fixed)
		}
		q.Fixed = raw
	}
	if pct != nil {
		q.Percentage = uint8(*pct)
	}
	return q, q.Validate()
}

func (p *PostgresBackend) InsertLimitOrder(ctx context.Context, order types.LimitOrder) error {
	if err := order.Validate(); err != nil {
		return fmt.Errorf("invalid limit order: %w", err)
	}

	qKind, qFixed, qPct := quantityColumns(order.Quantity)
	query := `
        INSERT INTO limit_orders (
            id, user_id, wallet_address, token_address, side,
            quantity_kind, quantity_fixed, quantity_pct,
            trigger_market_cap, slippage, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := p.pool.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.WalletAddress,
		order.TokenAddress,
		order.Side,
		qKind,
		qFixed,
		qPct,
		order.TriggerMarketCap,
		order.Slippage,
		types.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert limit order: %w", err)
	}
	return nil
}

func (p *PostgresBackend) InsertDCAOrder(ctx context.Context, order types.DcaOrder) error {
	if err := order.Validate(); err != nil {
		return fmt.Errorf("invalid dca order: %w", err)
	}

	qKind, qFixed, qPct := quantityColumns(order.Quantity)
	query := `
        INSERT INTO dca_orders (
            id, user_id, wallet_address, token_address, side,
            quantity_kind, quantity_fixed, quantity_pct,
            interval_minutes, max_executions, end_at, slippage, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := p.pool.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.WalletAddress,
		order.TokenAddress,
		order.Side,
		qKind,
		qFixed,
		qPct,
		order.IntervalMinutes,
		order.MaxExecutions,
		order.EndAt,
		order.Slippage,
		types.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dca order: %w", err)
	}
	return nil
}

const limitOrderColumns = `
        id, user_id, wallet_address, token_address, side,
        quantity_kind, quantity_fixed, quantity_pct,
        trigger_market_cap, slippage, status, attempts, fee_tx_digest,
        created_at, completed_at`

func scanLimitOrder(row pgx.Row) (types.LimitOrder, error) {
	var (
		o      types.LimitOrder
		qKind  string
		qFixed *string
		qPct   *int16
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.WalletAddress,
		&o.TokenAddress,
		&o.Side,
		&qKind,
		&qFixed,
		&qPct,
		&o.TriggerMarketCap,
		&o.Slippage,
		&o.Status,
		&o.Attempts,
		&o.FeeTxDigest,
		&o.CreatedAt,
		&o.CompletedAt,
	)
	if err != nil {
		return o, err
	}
	o.Quantity, err = scanQuantity(qKind, qFixed, qPct)
	return o, err
}

func (p *PostgresBackend) queryLimitOrders(ctx context.Context, query string, args ...any) ([]types.LimitOrder, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []types.LimitOrder
	for rows.Next() {
		o, err := scanLimitOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (p *PostgresBackend) GetPendingLimitOrders(ctx context.Context) ([]types.LimitOrder, error) {
	query := `
        SELECT ` + limitOrderColumns + `
        FROM limit_orders
        WHERE status = 'pending'
        ORDER BY created_at`
	return p.queryLimitOrders(ctx, query)
}

func (p *PostgresBackend) GetUserLimitOrders(ctx context.Context, userID int64) ([]types.LimitOrder, error) {
	query := `
        SELECT ` + limitOrderColumns + `
        FROM limit_orders
        WHERE user_id = $1
        ORDER BY created_at DESC`
	return p.queryLimitOrders(ctx, query, userID)
}

const dcaOrderColumns = `
        id, user_id, wallet_address, token_address, side,
        quantity_kind, quantity_fixed, quantity_pct,
        interval_minutes, max_executions, end_at, last_executed, executed_count,
        slippage, status, attempts, fee_tx_digest,
        created_at, completed_at`

func scanDCAOrder(row pgx.Row) (types.DcaOrder, error) {
	var (
		o      types.DcaOrder
		qKind  string
		qFixed *string
		qPct   *int16
	)
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.WalletAddress,
		&o.TokenAddress,
		&o.Side,
		&qKind,
		&qFixed,
		&qPct,
		&o.IntervalMinutes,
		&o.MaxExecutions,
		&o.EndAt,
		&o.LastExecuted,
		&o.ExecutedCount,
		&o.Slippage,
		&o.Status,
		&o.Attempts,
		&o.FeeTxDigest,
		&o.CreatedAt,
		&o.CompletedAt,
	)
	if err != nil {
		return o, err
	}
	o.Quantity, err = scanQuantity(qKind, qFixed, qPct)
	return o, err
}

func (p *PostgresBackend) queryDCAOrders(ctx context.Context, query string, args ...any) ([]types.DcaOrder, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []types.DcaOrder
	for rows.Next() {
		o, err := scanDCAOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (p *PostgresBackend) GetPendingDCAOrders(ctx context.Context) ([]types.DcaOrder, error) {
	query := `
        SELECT ` + dcaOrderColumns + `
        FROM dca_orders
        WHERE status = 'pending'
        ORDER BY created_at`
	return p.queryDCAOrders(ctx, query)
}

func (p *PostgresBackend) GetUserDCAOrders(ctx context.Context, userID int64) ([]types.DcaOrder, error) {
	query := `
        SELECT ` + dcaOrderColumns + `
        FROM dca_orders
        WHERE user_id = $1
        ORDER BY created_at DESC`
	return p.queryDCAOrders(ctx, query, userID)
}

// ClaimOrder flips a pending order to in_progress. The WHERE clause on the
// current status makes the claim atomic: of two concurrent claimers exactly
// one sees an affected row.
func (p *PostgresBackend) ClaimOrder(ctx context.Context, kind types.OrderKind, id string) (bool, error) {
	table, err := orderTable(kind)
	if err != nil {
		return false, err
	}

	query := `
        UPDATE ` + table + `
        SET status = 'in_progress'
        WHERE id = $1 AND status = 'pending'`

	tag, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim order %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *PostgresBackend) ReleaseOrder(ctx context.Context, kind types.OrderKind, id string) error {
	table, err := orderTable(kind)
	if err != nil {
		return err
	}

	query := `
        UPDATE ` + table + `
        SET status = 'pending', attempts = attempts + 1
        WHERE id = $1 AND status = 'in_progress'`

	_, err = p.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to release order %s: %w", id, err)
	}
	return nil
}

// ReleaseStuckOrders returns every in_progress order of the given kind to
// pending. A row can only be in_progress while its scheduler holds the
// lease, so on startup any such row is a lease orphaned by a crash. The
// attempt counter is left alone: the order never got a verdict.
func (p *PostgresBackend) ReleaseStuckOrders(ctx context.Context, kind types.OrderKind) (int64, error) {
	table, err := orderTable(kind)
	if err != nil {
		return 0, err
	}

	query := `
        UPDATE ` + table + `
        SET status = 'pending'
        WHERE status = 'in_progress'`

	tag, err := p.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to release stuck %s orders: %w", kind, err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresBackend) MarkOrderCompleted(ctx context.Context, kind types.OrderKind, id string) error {
	table, err := orderTable(kind)
	if err != nil {
		return err
	}

	query := `
        UPDATE ` + table + `
        SET status = 'completed', completed_at = NOW()
        WHERE id = $1`

	_, err = p.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark order %s completed: %w", id, err)
	}
	return nil
}

func (p *PostgresBackend) MarkOrderFailed(ctx context.Context, kind types.OrderKind, id string) error {
	table, err := orderTable(kind)
	if err != nil {
		return err
	}

	query := `
        UPDATE ` + table + `
        SET status = 'failed', attempts = attempts + 1
        WHERE id = $1 AND status = 'in_progress'`

	_, err = p.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark order %s failed: %w", id, err)
	}
	return nil
}

func (p *PostgresBackend) CancelOrder(ctx context.Context, kind types.OrderKind, userID int64, id string) error {
	table, err := orderTable(kind)
	if err != nil {
		return err
	}

	query := `
        DELETE FROM ` + table + `
        WHERE id = $1 AND user_id = $2 AND status = 'pending'`

	tag, err := p.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no cancellable order %s for user %d", id, userID)
	}
	return nil
}

func (p *PostgresBackend) RecordOrderFeeTx(ctx context.Context, kind types.OrderKind, id string, feeTxDigest string) error {
	table, err := orderTable(kind)
	if err != nil {
		return err
	}

	query := `
        UPDATE ` + table + `
        SET fee_tx_digest = $2
        WHERE id = $1`

	_, err = p.pool.Exec(ctx, query, id, feeTxDigest)
	if err != nil {
		return fmt.Errorf("failed to record fee tx for order %s: %w", id, err)
	}
	return nil
}

func (p *PostgresBackend) UpdateDCAExecution(ctx context.Context, id string, lastExecuted time.Time) (int, error) {
	query := `
        UPDATE dca_orders
        SET executed_count = executed_count + 1,
            last_executed = $2,
            status = 'pending',
            attempts = 0,
            fee_tx_digest = ''
        WHERE id = $1
        RETURNING executed_count`

	var count int
	err := p.pool.QueryRow(ctx, query, id, lastExecuted.UTC()).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("dca order %s not found", id)
		}
		return 0, fmt.Errorf("failed to update dca execution for %s: %w", id, err)
	}
	return count, nil
}
