// Package aftermath is a client for the Aftermath router API: it quotes
// complete trade routes and turns them into transaction blocks which are
// signed and submitted through the chain client.
package aftermath

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

// TxSubmitter signs and submits a base64 transaction block built by the
// router.
type TxSubmitter interface {
	SignAndExecute(ctx context.Context, key *types.SigningKey, txBytesB64 string) (string, error)
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	submitter  TxSubmitter
}

func NewClient(cfg Config, submitter TxSubmitter) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("aftermath base url is required")
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		submitter:  submitter,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("router request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("router request %s returned status %d: %s", path, resp.StatusCode, detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode router response for %s: %w", path, err)
	}
	return nil
}

type tradeRouteRequest struct {
	CoinInType   string `json:"coinInType"`
	CoinOutType  string `json:"coinOutType"`
	CoinInAmount string `json:"coinInAmount"`
}

type tradeRouteResponse struct {
	Routes  []json.RawMessage `json:"routes"`
	CoinOut struct {
		Amount string `json:"amount"`
	} `json:"coinOut"`
}

// Quote asks the router for a complete trade route for a fixed input
// amount. The raw route document is carried opaquely and passed back on
// Execute.
func (c *Client) Quote(ctx context.Context, coinIn, coinOut string, amountIn *big.Int, slippage float64) (types.Route, error) {
	payload := tradeRouteRequest{
		CoinInType:   coinIn,
		CoinOutType:  coinOut,
		CoinInAmount: amountIn.String(),
	}

	raw := json.RawMessage{}
	if err := c.post(ctx, "/trade-route", payload, &raw); err != nil {
		return types.Route{}, err
	}

	var parsed tradeRouteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return types.Route{}, fmt.Errorf("failed to parse trade route: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return types.Route{}, fmt.Errorf("no viable trade route found")
	}

	expectedOut, ok := new(big.Int).SetString(parsed.CoinOut.Amount, 10)
	if !ok {
		return types.Route{}, fmt.Errorf("invalid route output amount: %q", parsed.CoinOut.Amount)
	}

	return types.Route{
		CoinIn:            coinIn,
		CoinOut:           coinOut,
		AmountIn:          new(big.Int).Set(amountIn),
		ExpectedAmountOut: expectedOut,
		Slippage:          slippage,
		Payload:           raw,
	}, nil
}

type tradeTxRequest struct {
	WalletAddress string          `json:"walletAddress"`
	CompleteRoute json.RawMessage `json:"completeRoute"`
	Slippage      float64         `json:"slippage"`
}

type tradeTxResponse struct {
	TxBytes string `json:"txBytes"`
}

// Execute builds the transaction block for a quoted route and submits it
// signed. Slippage is normalized from percent to the router's fraction.
func (c *Client) Execute(ctx context.Context, key *types.SigningKey, route types.Route) (types.SwapReceipt, error) {
	payload := tradeTxRequest{
		WalletAddress: key.Address,
		CompleteRoute: route.Payload,
		Slippage:      route.Slippage / 100,
	}

	var built tradeTxResponse
	if err := c.post(ctx, "/transactions/trade", payload, &built); err != nil {
		return types.SwapReceipt{}, err
	}
	if built.TxBytes == "" {
		return types.SwapReceipt{}, fmt.Errorf("router returned no transaction bytes")
	}

	digest, err := c.submitter.SignAndExecute(ctx, key, built.TxBytes)
	if err != nil {
		return types.SwapReceipt{}, fmt.Errorf("failed to execute swap: %w", err)
	}

	return types.SwapReceipt{
		TxDigest:  digest,
		AmountOut: route.ExpectedAmountOut,
	}, nil
}
