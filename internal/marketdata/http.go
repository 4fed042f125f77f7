// Package marketdata resolves live token market snapshots for trigger
// evaluation and position valuation.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

const nativeCoinType = "0x2::sui::SUI"

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPSource reads token data from the indexer API. Market data is an
// auxiliary read: calls carry a bounded timeout and failures only skip the
// current polling tick.
type HTTPSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewHTTPSource(cfg Config, logger *logrus.Logger) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPSource{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type coinResponse struct {
	CoinType   string  `json:"coinType"`
	CoinSymbol string  `json:"coinSymbol"`
	Price      float64 `json:"price"`
	MarketCap  float64 `json:"marketCap"`
}

func (s *HTTPSource) fetchCoin(ctx context.Context, coinType string) (coinResponse, error) {
	var out coinResponse

	endpoint := fmt.Sprintf("%s/coins/%s", s.baseURL, url.PathEscape(coinType))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("accept", "*/*")
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("failed to fetch coin data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("coin data request returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode coin data: %w", err)
	}
	return out, nil
}

// TokenData returns the token's market cap and its spot price expressed in
// the native asset, derived from the USD quotes of both coins.
func (s *HTTPSource) TokenData(ctx context.Context, tokenAddress string) (types.TokenMarketData, error) {
	coin, err := s.fetchCoin(ctx, tokenAddress)
	if err != nil {
		return types.TokenMarketData{}, err
	}

	data := types.TokenMarketData{
		TokenAddress: tokenAddress,
		Symbol:       coin.CoinSymbol,
		MarketCap:    coin.MarketCap,
	}

	native, err := s.fetchCoin(ctx, nativeCoinType)
	if err != nil {
		s.logger.WithError(err).Warn("failed to fetch native coin price, price in SUI unavailable")
		return data, nil
	}
	if native.Price > 0 {
		data.PriceSUI = coin.Price / native.Price
	}

	return data, nil
}
