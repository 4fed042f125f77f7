// Package sui is a minimal JSON-RPC client for the Sui fullnode: balance
// and metadata reads, native transfers and execution of pre-built
// transaction blocks with ed25519 intent signing.
package sui

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

const (
	defaultTimeout = 30 * time.Second

	// ed25519 scheme flag prepended to serialized signatures
	ed25519Flag = 0x00

	defaultGasBudget = 10_000_000
)

// transaction data intent: scope TransactionData, version 0, app id Sui
var txIntent = []byte{0, 0, 0}

type Client struct {
	rpcURL     string
	httpClient *http.Client
}

func NewClient(rpcURL string) *Client {
	return &Client{
		rpcURL:     rpcURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc call %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode rpc response for %s: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc %s returned error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) Balance(ctx context.Context, address, coinType string) (*big.Int, error) {
	var result struct {
		TotalBalance string `json:"totalBalance"`
	}
	if err := c.call(ctx, "suix_getBalance", []any{address, coinType}, &result); err != nil {
		return nil, err
	}

	balance, ok := new(big.Int).SetString(result.TotalBalance, 10)
	if !ok {
		return nil, fmt.Errorf("invalid balance value: %q", result.TotalBalance)
	}
	return balance, nil
}

func (c *Client) CoinMetadata(ctx context.Context, coinType string) (types.AssetMetadata, error) {
	var result struct {
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	}
	if err := c.call(ctx, "suix_getCoinMetadata", []any{coinType}, &result); err != nil {
		return types.AssetMetadata{}, err
	}
	return types.AssetMetadata{Symbol: result.Symbol, Decimals: result.Decimals}, nil
}

type coinPage struct {
	Data []struct {
		CoinObjectID string `json:"coinObjectId"`
	} `json:"data"`
}

func (c *Client) nativeCoinObjects(ctx context.Context, owner string) ([]string, error) {
	var page coinPage
	if err := c.call(ctx, "suix_getCoins", []any{owner, "0x2::sui::SUI", nil, nil}, &page); err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, fmt.Errorf("no native coin objects for %s", owner)
	}

	ids := make([]string, 0, len(page.Data))
	for _, coin := range page.Data {
		ids = append(ids, coin.CoinObjectID)
	}
	return ids, nil
}

// TransferNative builds, signs and submits a native transfer from the key's
// address.
func (c *Client) TransferNative(ctx context.Context, key *types.SigningKey, recipient string, amount *big.Int) (string, error) {
	coins, err := c.nativeCoinObjects(ctx, key.Address)
	if err != nil {
		return "", err
	}

	var built struct {
		TxBytes string `json:"txBytes"`
	}
	err = c.call(ctx, "unsafe_paySui", []any{
		key.Address,
		coins,
		[]string{recipient},
		[]string{amount.String()},
		fmt.Sprintf("%d", defaultGasBudget),
	}, &built)
	if err != nil {
		return "", fmt.Errorf("failed to build transfer: %w", err)
	}

	return c.SignAndExecute(ctx, key, built.TxBytes)
}

// SignAndExecute signs base64 transaction bytes under the transaction
// intent and submits them, waiting for local execution.
func (c *Client) SignAndExecute(ctx context.Context, key *types.SigningKey, txBytesB64 string) (string, error) {
	txBytes, err := base64.StdEncoding.DecodeString(txBytesB64)
	if err != nil {
		return "", fmt.Errorf("invalid transaction bytes: %w", err)
	}

	serialized := signIntent(key, txBytes)

	var result struct {
		Digest  string `json:"digest"`
		Effects struct {
			Status struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			} `json:"status"`
		} `json:"effects"`
	}
	err = c.call(ctx, "sui_executeTransactionBlock", []any{
		txBytesB64,
		[]string{base64.StdEncoding.EncodeToString(serialized)},
		map[string]bool{"showEffects": true},
		"WaitForLocalExecution",
	}, &result)
	if err != nil {
		return "", err
	}

	if result.Effects.Status.Status == "failure" {
		return result.Digest, fmt.Errorf("transaction %s failed on-chain: %s", result.Digest, result.Effects.Status.Error)
	}
	return result.Digest, nil
}

// signIntent signs the transaction bytes under the transaction intent and
// returns the serialized signature: flag || signature || public key.
func signIntent(key *types.SigningKey, txBytes []byte) []byte {
	message := append(append([]byte{}, txIntent...), txBytes...)
	digest := blake2b.Sum256(message)
	signature := ed25519.Sign(key.Private, digest[:])

	serialized := make([]byte, 0, 1+len(signature)+ed25519.PublicKeySize)
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, signature...)
	serialized = append(serialized, key.Public()...)
	return serialized
}
