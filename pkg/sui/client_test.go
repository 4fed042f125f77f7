package sui

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

func testKey(t *testing.T) *types.SigningKey {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return &types.SigningKey{
		Address: "0xsender",
		Private: ed25519.NewKeyFromSeed(seed),
	}
}

func TestSignIntent(t *testing.T) {
	key := testKey(t)
	txBytes := []byte("some transaction bytes")

	serialized := signIntent(key, txBytes)

	require.Len(t, serialized, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	require.Equal(t, byte(ed25519Flag), serialized[0])
	require.Equal(t, []byte(key.Public()), serialized[1+ed25519.SignatureSize:])

	message := append([]byte{0, 0, 0}, txBytes...)
	digest := blake2b.Sum256(message)
	sig := serialized[1 : 1+ed25519.SignatureSize]
	require.True(t, ed25519.Verify(key.Public(), digest[:], sig))
}

func rpcServer(t *testing.T, handlers map[string]func(params []json.RawMessage) any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		handler, ok := handlers[req.Method]
		require.True(t, ok, "unexpected rpc method %s", req.Method)

		result, err := json.Marshal(handler(req.Params))
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + string(result) + `}`))
	}))
}

func TestBalance(t *testing.T) {
	server := rpcServer(t, map[string]func(params []json.RawMessage) any{
		"suix_getBalance": func(params []json.RawMessage) any {
			var address, coinType string
			require.NoError(t, json.Unmarshal(params[0], &address))
			require.NoError(t, json.Unmarshal(params[1], &coinType))
			require.Equal(t, "0xsender", address)
			require.Equal(t, "0x2::sui::SUI", coinType)
			return map[string]string{"totalBalance": "3000000000"}
		},
	})
	defer server.Close()

	balance, err := NewClient(server.URL).Balance(context.Background(), "0xsender", "0x2::sui::SUI")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(3_000_000_000), balance)
}

func TestTransferNative(t *testing.T) {
	key := testKey(t)
	txBytes := base64.StdEncoding.EncodeToString([]byte("built transfer"))

	server := rpcServer(t, map[string]func(params []json.RawMessage) any{
		"suix_getCoins": func(params []json.RawMessage) any {
			return map[string]any{"data": []map[string]string{{"coinObjectId": "0xcoin1"}}}
		},
		"unsafe_paySui": func(params []json.RawMessage) any {
			var recipients, amounts []string
			require.NoError(t, json.Unmarshal(params[2], &recipients))
			require.NoError(t, json.Unmarshal(params[3], &amounts))
			require.Equal(t, []string{"0xfeewallet"}, recipients)
			require.Equal(t, []string{"20000000"}, amounts)
			return map[string]string{"txBytes": txBytes}
		},
		"sui_executeTransactionBlock": func(params []json.RawMessage) any {
			var gotTxBytes string
			var signatures []string
			require.NoError(t, json.Unmarshal(params[0], &gotTxBytes))
			require.NoError(t, json.Unmarshal(params[1], &signatures))
			require.Equal(t, txBytes, gotTxBytes)

			raw, err := base64.StdEncoding.DecodeString(signatures[0])
			require.NoError(t, err)
			require.Equal(t, byte(ed25519Flag), raw[0])

			return map[string]any{
				"digest":  "fee-abc",
				"effects": map[string]any{"status": map[string]string{"status": "success"}},
			}
		},
	})
	defer server.Close()

	digest, err := NewClient(server.URL).TransferNative(context.Background(), key, "0xfeewallet", big.NewInt(20_000_000))
	require.NoError(t, err)
	require.Equal(t, "fee-abc", digest)
}

func TestSignAndExecuteOnChainFailure(t *testing.T) {
	server := rpcServer(t, map[string]func(params []json.RawMessage) any{
		"sui_executeTransactionBlock": func(params []json.RawMessage) any {
			return map[string]any{
				"digest": "abc",
				"effects": map[string]any{
					"status": map[string]string{"status": "failure", "error": "InsufficientGas"},
				},
			}
		},
	})
	defer server.Close()

	txBytes := base64.StdEncoding.EncodeToString([]byte("tx"))
	digest, err := NewClient(server.URL).SignAndExecute(context.Background(), testKey(t), txBytes)
	require.Error(t, err)
	require.Contains(t, err.Error(), "InsufficientGas")
	require.Equal(t, "abc", digest)
}
