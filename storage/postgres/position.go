package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

const positionColumns = `
        user_id, wallet_address, token_address, symbol, decimals,
        total_amount, total_cost_sui, avg_price_sui, tx_history, last_updated`

func scanPosition(row pgx.Row) (types.Position, error) {
	var (
		pos     types.Position
		history []byte
	)
	err := row.Scan(
		&pos.UserID,
		&pos.WalletAddress,
		&pos.TokenAddress,
		&pos.Symbol,
		&pos.Decimals,
		&pos.TotalAmount,
		&pos.TotalCostSUI,
		&pos.AvgPriceSUI,
		&history,
		&pos.LastUpdated,
	)
	if err != nil {
		return pos, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &pos.TxHistory); err != nil {
			return pos, fmt.Errorf("failed to decode tx history: %w", err)
		}
	}
	return pos, nil
}

// UpsertPosition folds a confirmed buy into the ledger row. The row is
// locked for the duration of the fold so concurrent executions against the
// same holding serialize instead of clobbering the cost basis.
func (p *PostgresBackend) UpsertPosition(ctx context.Context, userID int64, walletAddress string, update types.PositionUpdate, now time.Time) (types.Position, error) {
	var result types.Position

	err := p.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            SELECT ` + positionColumns + `
            FROM positions
            WHERE user_id = $1 AND wallet_address = $2 AND token_address = $3
            FOR UPDATE`

		pos, err := scanPosition(tx.QueryRow(ctx, query, userID, walletAddress, update.TokenAddress))
		if errors.Is(err, pgx.ErrNoRows) {
			pos = types.Position{
				UserID:        userID,
				WalletAddress: walletAddress,
				TokenAddress:  update.TokenAddress,
			}
		} else if err != nil {
			return fmt.Errorf("failed to load position: %w", err)
		}

		pos.Symbol = update.Symbol
		pos.Decimals = update.Decimals
		if err := pos.ApplyBuy(update.AmountBought, update.AmountInSUI, now); err != nil {
			return err
		}

		history, err := json.Marshal(pos.TxHistory)
		if err != nil {
			return fmt.Errorf("failed to encode tx history: %w", err)
		}

		upsert := `
            INSERT INTO positions (
                user_id, wallet_address, token_address, symbol, decimals,
                total_amount, total_cost_sui, avg_price_sui, tx_history, last_updated
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
            ON CONFLICT (user_id, wallet_address, token_address) DO UPDATE SET
                symbol = EXCLUDED.symbol,
                decimals = EXCLUDED.decimals,
                total_amount = EXCLUDED.total_amount,
                total_cost_sui = EXCLUDED.total_cost_sui,
                avg_price_sui = EXCLUDED.avg_price_sui,
                tx_history = EXCLUDED.tx_history,
                last_updated = EXCLUDED.last_updated`

		_, err = tx.Exec(ctx, upsert,
			pos.UserID,
			pos.WalletAddress,
			pos.TokenAddress,
			pos.Symbol,
			pos.Decimals,
			pos.TotalAmount,
			pos.TotalCostSUI,
			pos.AvgPriceSUI,
			history,
			pos.LastUpdated.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert position: %w", err)
		}

		result = pos
		return nil
	})

	return result, err
}

func (p *PostgresBackend) GetPositions(ctx context.Context, userID int64, walletAddress string) ([]types.Position, error) {
	query := `
        SELECT ` + positionColumns + `
        FROM positions
        WHERE user_id = $1 AND wallet_address = $2
        ORDER BY last_updated DESC`

	rows, err := p.pool.Query(ctx, query, userID, walletAddress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []types.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (p *PostgresBackend) GetPosition(ctx context.Context, userID int64, walletAddress, tokenAddress string) (*types.Position, error) {
	query := `
        SELECT ` + positionColumns + `
        FROM positions
        WHERE user_id = $1 AND wallet_address = $2 AND token_address = $3`

	pos, err := scanPosition(p.pool.QueryRow(ctx, query, userID, walletAddress, tokenAddress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no position for token %s", tokenAddress)
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &pos, nil
}
