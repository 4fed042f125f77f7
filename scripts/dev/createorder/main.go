package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt"

	"github.com/GOODBADBOY10/centron-bot/config"
)

var (
	userID     int64
	wallet     string
	token      string
	side       string
	amountMist string
	triggerCap float64
)

func main() {
	flag.Int64Var(&userID, "user", 0, "telegram user id")
	flag.StringVar(&wallet, "wallet", "", "wallet address")
	flag.StringVar(&token, "token", "", "token coin type, e.g. 0x...::token::ABC")
	flag.StringVar(&side, "side", "buy", "buy or sell")
	flag.StringVar(&amountMist, "amount", "1000000000", "spend amount in MIST")
	flag.Float64Var(&triggerCap, "trigger", 0, "trigger market cap in USD")
	flag.Parse()

	if userID == 0 || wallet == "" || token == "" || triggerCap <= 0 {
		panic("user, wallet, token and trigger are required")
	}

	cfg, err := config.GetConfigure()
	if err != nil {
		panic(err)
	}

	authToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
	}).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		panic(err)
	}

	body, err := json.Marshal(map[string]any{
		"wallet_address":     wallet,
		"token_address":      token,
		"side":               side,
		"amount_mist":        amountMist,
		"trigger_market_cap": triggerCap,
		"slippage":           1,
	})
	if err != nil {
		panic(err)
	}

	url := fmt.Sprintf("http://%s:%d/orders/limit", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Create limit order - %s", url)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	fmt.Printf(" - %d\n", resp.StatusCode)
}
