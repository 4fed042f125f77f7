// Package wallet resolves stored custody wallets into in-memory signing
// keys. Keys are decrypted per execution and never cached or persisted.
package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/GOODBADBOY10/centron-bot/common"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type WalletStore interface {
	GetWallet(ctx context.Context, userID int64, address string) (*types.Wallet, error)
}

type Resolver struct {
	db     WalletStore
	secret string
}

func NewResolver(db WalletStore, encryptionSecret string) (*Resolver, error) {
	if encryptionSecret == "" {
		return nil, fmt.Errorf("encryption secret is required")
	}

	return &Resolver{
		db:     db,
		secret: encryptionSecret,
	}, nil
}

func (r *Resolver) Resolve(ctx context.Context, userID int64, walletAddress string) (*types.SigningKey, error) {
	w, err := r.db.GetWallet(ctx, userID, walletAddress)
	if err != nil {
		return nil, err
	}

	seed, err := common.DecryptWalletKey(r.secret, w.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key for wallet %s: %w", common.ShortenAddress(walletAddress), err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("stored key for wallet %s has invalid length %d", common.ShortenAddress(walletAddress), len(seed))
	}

	return &types.SigningKey{
		Address: w.Address,
		Private: ed25519.NewKeyFromSeed(seed),
	}, nil
}
