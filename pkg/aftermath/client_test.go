package aftermath

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

type fakeSubmitter struct {
	txBytes string
	digest  string
}

func (f *fakeSubmitter) SignAndExecute(ctx context.Context, key *types.SigningKey, txBytesB64 string) (string, error) {
	f.txBytes = txBytesB64
	return f.digest, nil
}

func routerServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trade-route":
			var req tradeRouteRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "1980000000", req.CoinInAmount)

			_, err := w.Write([]byte(`{
				"routes": [{"pool": "0xpool"}],
				"coinOut": {"amount": "49000000"}
			}`))
			require.NoError(t, err)
		case "/transactions/trade":
			var req tradeTxRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "0xwallet", req.WalletAddress)
			require.Equal(t, 0.01, req.Slippage)
			require.NotEmpty(t, req.CompleteRoute)

			_, err := w.Write([]byte(`{"txBytes": "dHhieXRlcw=="}`))
			require.NoError(t, err)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestQuoteAndExecute(t *testing.T) {
	server := routerServer(t)
	defer server.Close()

	submitter := &fakeSubmitter{digest: "abc"}
	client, err := NewClient(NewConfig(server.URL, 0), submitter)
	require.NoError(t, err)

	key := &types.SigningKey{Address: "0xwallet"}

	route, err := client.Quote(context.Background(), "0x2::sui::SUI", "0x123::token::ABC", big.NewInt(1_980_000_000), 1)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(49_000_000), route.ExpectedAmountOut)
	require.Equal(t, 1.0, route.Slippage)

	receipt, err := client.Execute(context.Background(), key, route)
	require.NoError(t, err)
	require.Equal(t, "abc", receipt.TxDigest)
	require.Equal(t, big.NewInt(49_000_000), receipt.AmountOut)
	require.Equal(t, "dHhieXRlcw==", submitter.txBytes)
}

func TestQuoteNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes": [], "coinOut": {"amount": "0"}}`))
	}))
	defer server.Close()

	client, err := NewClient(NewConfig(server.URL, 0), &fakeSubmitter{})
	require.NoError(t, err)

	_, err = client.Quote(context.Background(), "0x2::sui::SUI", "0x123::token::ABC", big.NewInt(100), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no viable trade route")
}
