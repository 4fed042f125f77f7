package engine

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/GOODBADBOY10/centron-bot/common"
	"github.com/GOODBADBOY10/centron-bot/internal/types"
)

const (
	NativeCoinType = "0x2::sui::SUI"
	NativeDecimals = 9

	amountDenominator     = 100_000
	percentageDenominator = 100

	metadataRetries = 3
)

// gasBufferMist is the native reserve kept aside for transaction gas; a buy
// that would eat into it is rejected before anything touches the chain.
var gasBufferMist = big.NewInt(5_000_000)

type Storage interface {
	ClaimOrder(ctx context.Context, kind types.OrderKind, id string) (bool, error)
	ReleaseOrder(ctx context.Context, kind types.OrderKind, id string) error
	MarkOrderFailed(ctx context.Context, kind types.OrderKind, id string) error
	RecordOrderFeeTx(ctx context.Context, kind types.OrderKind, id string, feeTxDigest string) error
	UpsertPosition(ctx context.Context, userID int64, walletAddress string, update types.PositionUpdate, now time.Time) (types.Position, error)
}

// CredentialResolver turns a wallet reference into an in-memory signing key.
type CredentialResolver interface {
	Resolve(ctx context.Context, userID int64, walletAddress string) (*types.SigningKey, error)
}

// SwapProvider quotes and executes swap routes against the aggregator.
type SwapProvider interface {
	Quote(ctx context.Context, coinIn, coinOut string, amountIn *big.Int, slippage float64) (types.Route, error)
	Execute(ctx context.Context, key *types.SigningKey, route types.Route) (types.SwapReceipt, error)
}

// ChainClient reads balances and metadata from the chain and submits native
// transfers (the platform fee leg).
type ChainClient interface {
	Balance(ctx context.Context, address, coinType string) (*big.Int, error)
	TransferNative(ctx context.Context, key *types.SigningKey, recipient string, amount *big.Int) (string, error)
	CoinMetadata(ctx context.Context, coinType string) (types.AssetMetadata, error)
}

// Request is the kind-agnostic execution input, normalized from either
// order flavor by the schedulers.
type Request struct {
	Kind          types.OrderKind
	ID            string
	UserID        int64
	WalletAddress string
	TokenAddress  string
	Side          types.OrderSide
	Quantity      types.OrderQuantity
	Slippage      float64

	// FeeTxDigest carries the fee transaction recorded by a prior failed
	// attempt; a non-empty value makes this attempt skip the fee transfer.
	FeeTxDigest string
	Attempts    int
}

func LimitRequest(order types.LimitOrder) Request {
	return Request{
		Kind:          types.OrderKindLimit,
		ID:            order.ID,
		UserID:        order.UserID,
		WalletAddress: order.WalletAddress,
		TokenAddress:  order.TokenAddress,
		Side:          order.Side,
		Quantity:      order.Quantity,
		Slippage:      order.Slippage,
		FeeTxDigest:   order.FeeTxDigest,
		Attempts:      order.Attempts,
	}
}

func DCARequest(order types.DcaOrder) Request {
	return Request{
		Kind:          types.OrderKindDCA,
		ID:            order.ID,
		UserID:        order.UserID,
		WalletAddress: order.WalletAddress,
		TokenAddress:  order.TokenAddress,
		Side:          order.Side,
		Quantity:      order.Quantity,
		Slippage:      order.Slippage,
		FeeTxDigest:   order.FeeTxDigest,
		Attempts:      order.Attempts,
	}
}

type Config struct {
	FeePercent      float64       `mapstructure:"fee_percent"`
	FeeRecipient    string        `mapstructure:"fee_recipient"`
	SettlementDelay time.Duration `mapstructure:"settlement_delay"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// Engine is the shared execution pipeline behind the limit and DCA
// schedulers and direct market orders. A single Execute call performs at
// most one on-chain trade: the order is leased up front and either returned
// to pending for retry or parked as failed when attempts run out.
type Engine struct {
	db       Storage
	resolver CredentialResolver
	swap     SwapProvider
	chain    ChainClient
	logger   *logrus.Logger
	sdClient *statsd.Client
	cfg      Config

	sleep func(ctx context.Context, d time.Duration) error
}

func NewEngine(db Storage, resolver CredentialResolver, swap SwapProvider, chain ChainClient, sdClient *statsd.Client, logger *logrus.Logger, cfg Config) *Engine {
	if cfg.FeePercent == 0 {
		cfg.FeePercent = 1
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.SettlementDelay == 0 {
		cfg.SettlementDelay = 2 * time.Second
	}

	return &Engine{
		db:       db,
		resolver: resolver,
		swap:     swap,
		chain:    chain,
		logger:   logger,
		sdClient: sdClient,
		cfg:      cfg,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Engine) incCounter(name string, tags []string) {
	if e.sdClient == nil {
		return
	}
	if err := e.sdClient.Count(name, 1, tags, 1); err != nil {
		e.logger.Errorf("fail to count metric, err: %v", err)
	}
}

func (e *Engine) measureTime(name string, start time.Time, tags []string) {
	if e.sdClient == nil {
		return
	}
	if err := e.sdClient.Timing(name, time.Since(start), tags, 1); err != nil {
		e.logger.Errorf("fail to measure time metric, err: %v", err)
	}
}

// Execute runs one attempt of the pipeline for a claimed order. On failure
// the order goes back to pending, or to failed once MaxAttempts is reached;
// the caller finalizes successful orders per kind.
func (e *Engine) Execute(ctx context.Context, req Request) (*types.ExecutionResult, error) {
	defer e.measureTime("engine.execute.latency", time.Now(), []string{string(req.Kind)})

	claimed, err := e.db.ClaimOrder(ctx, req.Kind, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim order %s: %w", req.ID, err)
	}
	if !claimed {
		return nil, ErrOrderClaimed
	}
	e.incCounter("engine.execute", []string{string(req.Kind), string(req.Side)})

	result, execErr := e.run(ctx, &req)
	if execErr == nil {
		return result, nil
	}

	e.incCounter("engine.execute.error", []string{string(req.Kind), string(execErr.Category)})
	if req.Attempts+1 >= e.cfg.MaxAttempts {
		execErr.Terminal = true
		if err := e.db.MarkOrderFailed(ctx, req.Kind, req.ID); err != nil {
			e.logger.WithError(err).Errorf("fail to mark order %s failed", req.ID)
		}
	} else {
		if err := e.db.ReleaseOrder(ctx, req.Kind, req.ID); err != nil {
			e.logger.WithError(err).Errorf("fail to release order %s", req.ID)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"order_id": req.ID,
		"kind":     req.Kind,
		"category": execErr.Category,
		"attempts": req.Attempts + 1,
		"terminal": execErr.Terminal,
		"fee_tx":   execErr.FeeTxDigest,
	}).Error("order execution failed")

	return nil, execErr
}

func (e *Engine) run(ctx context.Context, req *Request) (*types.ExecutionResult, *ExecutionError) {
	if err := req.Quantity.Validate(); err != nil {
		return nil, newExecError(CategoryInternal, err)
	}

	key, err := e.resolver.Resolve(ctx, req.UserID, req.WalletAddress)
	if err != nil {
		return nil, newExecError(CategoryCredential, err)
	}

	switch req.Side {
	case types.OrderSideBuy:
		return e.runBuy(ctx, key, req)
	case types.OrderSideSell:
		return e.runSell(ctx, key, req)
	default:
		return nil, newExecError(CategoryInternal, fmt.Errorf("invalid order side: %q", req.Side))
	}
}

func (e *Engine) runBuy(ctx context.Context, key *types.SigningKey, req *Request) (*types.ExecutionResult, *ExecutionError) {
	if req.Quantity.Kind != types.QuantityFixed {
		return nil, newExecError(CategoryInternal, fmt.Errorf("buy order requires a fixed native amount"))
	}
	spend := req.Quantity.Fixed
	fee := percentageOf(spend, e.cfg.FeePercent)
	swapIn := new(big.Int).Sub(spend, fee)
	if swapIn.Sign() <= 0 {
		return nil, newExecError(CategoryInternal, fmt.Errorf("spend %s does not cover the platform fee", spend))
	}

	suiBalance, err := e.chain.Balance(ctx, req.WalletAddress, NativeCoinType)
	if err != nil {
		return nil, newExecError(CategoryBalance, fmt.Errorf("failed to fetch native balance: %w", err))
	}
	required := new(big.Int).Add(new(big.Int).Add(spend, gasBufferMist), fee)
	if suiBalance.Cmp(required) < 0 {
		return nil, newExecError(CategoryBalance, fmt.Errorf("insufficient SUI balance (including buffer for gas fees): have %s, need %s", suiBalance, required))
	}

	route, err := e.swap.Quote(ctx, NativeCoinType, req.TokenAddress, swapIn, req.Slippage)
	if err != nil {
		return nil, newExecError(CategoryQuote, fmt.Errorf("failed to find swap route, possibly unsupported token or too low amount: %w", err))
	}

	feeDigest, execErr := e.collectFee(ctx, key, req, fee)
	if execErr != nil {
		return nil, execErr
	}

	tokenBefore, err := e.chain.Balance(ctx, req.WalletAddress, req.TokenAddress)
	if err != nil {
		e.logger.WithError(err).Warn("failed to read token balance before swap")
		tokenBefore = big.NewInt(0)
	}

	receipt, err := e.swap.Execute(ctx, key, route)
	if err != nil {
		return nil, &ExecutionError{Category: CategorySwap, FeeTxDigest: feeDigest, Err: err}
	}

	received := e.settleDelta(ctx, req.WalletAddress, req.TokenAddress, tokenBefore, receipt.AmountOut)
	meta := e.tokenMetadataSafe(ctx, req.TokenAddress)

	result := &types.ExecutionResult{
		Success:        true,
		TxDigest:       receipt.TxDigest,
		FeeTxDigest:    feeDigest,
		WalletAddress:  req.WalletAddress,
		TokenAddress:   req.TokenAddress,
		TokenSymbol:    meta.Symbol,
		TokenDecimals:  meta.Decimals,
		SpentSUI:       common.ToHumanAmount(spend, NativeDecimals),
		ReceivedAmount: common.ToHumanAmount(received, meta.Decimals),
	}

	// The swap is confirmed on-chain at this point. A ledger write failure
	// must not release the order for re-execution, so it is logged and
	// flagged instead of failing the attempt.
	update := types.PositionUpdate{
		TokenAddress: req.TokenAddress,
		Symbol:       meta.Symbol,
		Decimals:     meta.Decimals,
		AmountBought: result.ReceivedAmount,
		AmountInSUI:  result.SpentSUI,
	}
	if _, err := e.db.UpsertPosition(ctx, req.UserID, req.WalletAddress, update, time.Now().UTC()); err != nil {
		e.incCounter("engine.position.error", []string{})
		e.logger.WithError(err).Errorf("fail to update position for order %s", req.ID)
	}

	return result, nil
}

func (e *Engine) runSell(ctx context.Context, key *types.SigningKey, req *Request) (*types.ExecutionResult, *ExecutionError) {
	tokenBalance, err := e.chain.Balance(ctx, req.WalletAddress, req.TokenAddress)
	if err != nil {
		return nil, newExecError(CategoryBalance, fmt.Errorf("failed to fetch token balance: %w", err))
	}
	if tokenBalance.Sign() == 0 {
		return nil, newExecError(CategoryBalance, fmt.Errorf("no balance of this token to sell"))
	}

	var amount *big.Int
	switch req.Quantity.Kind {
	case types.QuantityPercentage:
		amount = new(big.Int).Div(
			new(big.Int).Mul(tokenBalance, big.NewInt(int64(req.Quantity.Percentage))),
			big.NewInt(100),
		)
	case types.QuantityFixed:
		amount = req.Quantity.Fixed
		if amount.Cmp(tokenBalance) > 0 {
			return nil, newExecError(CategoryBalance, fmt.Errorf("sell amount %s exceeds token balance %s", amount, tokenBalance))
		}
	}
	if amount == nil || amount.Sign() == 0 {
		return nil, newExecError(CategoryBalance, fmt.Errorf("token amount to sell is too small"))
	}

	route, err := e.swap.Quote(ctx, req.TokenAddress, NativeCoinType, amount, req.Slippage)
	if err != nil {
		return nil, newExecError(CategoryQuote, fmt.Errorf("failed to find swap route, possibly due to low liquidity or unsupported token pair: %w", err))
	}

	// The native leg of a sell is the quoted output; the fee is taken on it
	// up front so the ordering invariant matches the buy path.
	fee := percentageOf(route.ExpectedAmountOut, e.cfg.FeePercent)

	suiBalance, err := e.chain.Balance(ctx, req.WalletAddress, NativeCoinType)
	if err != nil {
		return nil, newExecError(CategoryBalance, fmt.Errorf("failed to fetch native balance: %w", err))
	}
	if suiBalance.Cmp(new(big.Int).Add(fee, gasBufferMist)) < 0 {
		return nil, newExecError(CategoryBalance, fmt.Errorf("insufficient SUI balance to cover fee and gas"))
	}

	feeDigest, execErr := e.collectFee(ctx, key, req, fee)
	if execErr != nil {
		return nil, execErr
	}

	// Captured after the fee transfer, so the post-swap delta is already net
	// of the fee.
	nativeBefore, balErr := e.chain.Balance(ctx, req.WalletAddress, NativeCoinType)
	if balErr != nil {
		e.logger.WithError(balErr).Warn("failed to read native balance before swap")
	}

	receipt, err := e.swap.Execute(ctx, key, route)
	if err != nil {
		return nil, &ExecutionError{Category: CategorySwap, FeeTxDigest: feeDigest, Err: err}
	}

	meta := e.tokenMetadataSafe(ctx, req.TokenAddress)
	advisory := new(big.Int).Sub(route.ExpectedAmountOut, fee)
	if receipt.AmountOut != nil && receipt.AmountOut.Sign() > 0 {
		advisory = new(big.Int).Sub(receipt.AmountOut, fee)
	}
	receivedSUI := advisory
	if balErr == nil {
		receivedSUI = e.settleDelta(ctx, req.WalletAddress, NativeCoinType, nativeBefore, advisory)
	}

	return &types.ExecutionResult{
		Success:       true,
		TxDigest:      receipt.TxDigest,
		FeeTxDigest:   feeDigest,
		WalletAddress: req.WalletAddress,
		TokenAddress:  req.TokenAddress,
		TokenSymbol:   meta.Symbol,
		TokenDecimals: meta.Decimals,
		SoldAmount:    common.ToHumanAmount(amount, meta.Decimals),
		ReceivedSUI:   common.ToHumanAmount(receivedSUI, NativeDecimals),
	}, nil
}

// collectFee transfers the platform fee as its own transaction and records
// the digest against the order before the swap runs. An attempt that
// already carries a recorded fee digest skips the transfer entirely, which
// keeps retries after a fee-then-swap partial failure from double charging.
func (e *Engine) collectFee(ctx context.Context, key *types.SigningKey, req *Request, fee *big.Int) (string, *ExecutionError) {
	if req.FeeTxDigest != "" {
		e.logger.WithFields(logrus.Fields{
			"order_id": req.ID,
			"fee_tx":   req.FeeTxDigest,
		}).Info("fee already collected on a prior attempt, skipping transfer")
		return req.FeeTxDigest, nil
	}
	if fee == nil || fee.Sign() == 0 || e.cfg.FeeRecipient == "" {
		return "", nil
	}

	digest, err := e.chain.TransferNative(ctx, key, e.cfg.FeeRecipient, fee)
	if err != nil {
		return "", newExecError(CategoryFeeTransfer, fmt.Errorf("failed to transfer platform fee: %w", err))
	}
	if err := e.db.RecordOrderFeeTx(ctx, req.Kind, req.ID, digest); err != nil {
		// The fee is on-chain but unrecorded; surface the digest so the
		// failure can be reconciled.
		return "", &ExecutionError{Category: CategoryInternal, FeeTxDigest: digest, Err: fmt.Errorf("failed to record fee tx: %w", err)}
	}
	req.FeeTxDigest = digest
	return digest, nil
}

// settleDelta waits for settlement and reports the token balance increase.
// Falls back to the provider's advisory amount when the read-back fails or
// has not caught up yet.
func (e *Engine) settleDelta(ctx context.Context, walletAddress, coinType string, before, advisory *big.Int) *big.Int {
	if err := e.sleep(ctx, e.cfg.SettlementDelay); err != nil {
		return advisory
	}

	after, err := e.chain.Balance(ctx, walletAddress, coinType)
	if err != nil {
		e.logger.WithError(err).Warn("failed to read token balance after swap")
		return advisory
	}

	delta := new(big.Int).Sub(after, before)
	if delta.Sign() <= 0 {
		return advisory
	}
	return delta
}

func (e *Engine) tokenMetadataSafe(ctx context.Context, coinType string) types.AssetMetadata {
	var meta types.AssetMetadata
	backoff := retry.WithMaxRetries(metadataRetries-1, retry.NewConstant(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		m, err := e.chain.CoinMetadata(ctx, coinType)
		if err != nil {
			return retry.RetryableError(err)
		}
		meta = m
		return nil
	})
	if err != nil {
		e.logger.WithError(err).Warnf("token metadata error for %s", coinType)
		return types.AssetMetadata{Symbol: "UNKNOWN", Decimals: 9}
	}
	if meta.Symbol == "" {
		meta.Symbol = "UNKNOWN"
	}
	if meta.Decimals == 0 {
		meta.Decimals = 9
	}
	return meta
}

func percentageOf(base *big.Int, percent float64) *big.Int {
	if base == nil || base.Sign() <= 0 || percent <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Div(
		new(big.Int).Mul(base, big.NewInt(int64(math.Round(percent*amountDenominator)))),
		new(big.Int).Mul(big.NewInt(amountDenominator), big.NewInt(percentageDenominator)),
	)
}
