package common

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// EncryptWalletKey seals a raw signing seed with AES-256-GCM, keyed by the
// sha256 of the operator secret. Output is base64(nonce || ciphertext).
func EncryptWalletKey(secret string, seed []byte) (string, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, seed, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptWalletKey reverses EncryptWalletKey.
func DecryptWalletKey(secret string, encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	seed, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet key: %w", err)
	}
	return seed, nil
}

// ShortenAddress renders an address as 0x1234...abcd for user messages.
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// ToHumanAmount converts a smallest-unit amount to its decimal-adjusted
// human-readable value: raw / 10^decimals.
func ToHumanAmount(raw *big.Int, decimals int) float64 {
	if raw == nil {
		return 0
	}
	f := new(big.Float).SetInt(raw)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(f, scale).Float64()
	return out
}
