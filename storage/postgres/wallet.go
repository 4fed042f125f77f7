package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

func (p *PostgresBackend) GetWallet(ctx context.Context, userID int64, address string) (*types.Wallet, error) {
	query := `
        SELECT user_id, address, name, encrypted_key, created_at
        FROM wallets
        WHERE user_id = $1 AND address = $2`

	var w types.Wallet
	err := p.pool.QueryRow(ctx, query, userID, address).Scan(
		&w.UserID,
		&w.Address,
		&w.Name,
		&w.EncryptedKey,
		&w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wallet %s not found for user %d", address, userID)
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

func (p *PostgresBackend) InsertWallet(ctx context.Context, wallet types.Wallet) error {
	query := `
        INSERT INTO wallets (user_id, address, name, encrypted_key)
        VALUES ($1, $2, $3, $4)`

	_, err := p.pool.Exec(ctx, query,
		wallet.UserID,
		wallet.Address,
		wallet.Name,
		wallet.EncryptedKey,
	)
	if err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}
