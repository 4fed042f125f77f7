package types

import (
	"crypto/ed25519"
	"time"
)

// Wallet is a custody wallet record. EncryptedKey holds the AES-GCM sealed
// ed25519 seed; decryption happens in the credential resolver, never here.
type Wallet struct {
	UserID       int64     `json:"user_id"`
	Address      string    `json:"address"`
	Name         string    `json:"name"`
	EncryptedKey string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SigningKey is a decrypted in-memory signing credential. It is never
// persisted and must not outlive the execution that resolved it.
type SigningKey struct {
	Address string
	Private ed25519.PrivateKey
}

func (k *SigningKey) Public() ed25519.PublicKey {
	return k.Private.Public().(ed25519.PublicKey)
}
