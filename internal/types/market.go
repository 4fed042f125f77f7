package types

// TokenMarketData is a point-in-time market snapshot for a token. PriceSUI
// is the spot price in the native asset, used for PnL valuation.
type TokenMarketData struct {
	TokenAddress string  `json:"token_address"`
	Symbol       string  `json:"symbol"`
	MarketCap    float64 `json:"market_cap"`
	PriceSUI     float64 `json:"price_sui"`
}
