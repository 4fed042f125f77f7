package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GOODBADBOY10/centron-bot/internal/types"
	"github.com/GOODBADBOY10/centron-bot/test/mocks/chainclient"
	"github.com/GOODBADBOY10/centron-bot/test/mocks/database"
	"github.com/GOODBADBOY10/centron-bot/test/mocks/resolver"
	"github.com/GOODBADBOY10/centron-bot/test/mocks/swapprovider"
)

func newTestEngine(db *database.MockDB, res *resolver.MockResolver, swap *swapprovider.MockSwapProvider, chain *chainclient.MockChainClient) *Engine {
	e := NewEngine(db, res, swap, chain, nil, logrus.New(), Config{
		FeePercent:   1,
		FeeRecipient: "0xfee",
		MaxAttempts:  10,
	})
	e.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return e
}

func buyRequest() Request {
	q, _ := types.FixedQuantity(big.NewInt(2_000_000_000))
	return Request{
		Kind:          types.OrderKindLimit,
		ID:            "order-1",
		UserID:        42,
		WalletAddress: "0xwallet",
		TokenAddress:  "0x123::token::ABC",
		Side:          types.OrderSideBuy,
		Quantity:      q,
		Slippage:      1,
	}
}

func stubKey() *types.SigningKey {
	return &types.SigningKey{Address: "0xwallet"}
}

func TestExecuteBuySuccess(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	req := buyRequest()
	swapIn := big.NewInt(1_980_000_000) // 2 SUI minus the 1% fee
	fee := big.NewInt(20_000_000)
	route := types.Route{
		CoinIn:            NativeCoinType,
		CoinOut:           req.TokenAddress,
		AmountIn:          swapIn,
		ExpectedAmountOut: big.NewInt(49_000_000),
	}

	db.On("ClaimOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(stubKey(), nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(3_000_000_000), nil)
	swap.On("Quote", mock.Anything, NativeCoinType, req.TokenAddress, swapIn, 1.0).Return(route, nil)
	chain.On("TransferNative", mock.Anything, mock.Anything, "0xfee", fee).Return("fee-abc", nil)
	db.On("RecordOrderFeeTx", mock.Anything, types.OrderKindLimit, "order-1", "fee-abc").Return(nil)
	chain.On("Balance", mock.Anything, "0xwallet", req.TokenAddress).Return(big.NewInt(0), nil).Once()
	swap.On("Execute", mock.Anything, mock.Anything, route).Return(types.SwapReceipt{TxDigest: "abc", AmountOut: big.NewInt(49_000_000)}, nil)
	chain.On("Balance", mock.Anything, "0xwallet", req.TokenAddress).Return(big.NewInt(50_000_000), nil).Once()
	chain.On("CoinMetadata", mock.Anything, req.TokenAddress).Return(types.AssetMetadata{Symbol: "ABC", Decimals: 6}, nil)
	db.On("UpsertPosition", mock.Anything, int64(42), "0xwallet", mock.Anything, mock.Anything).Return(types.Position{}, nil)

	result, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), req)
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Equal(t, "abc", result.TxDigest)
	require.Equal(t, "fee-abc", result.FeeTxDigest)
	require.Equal(t, "ABC", result.TokenSymbol)
	require.Equal(t, 2.0, result.SpentSUI)
	require.Equal(t, 50.0, result.ReceivedAmount)

	db.AssertCalled(t, "UpsertPosition", mock.Anything, int64(42), "0xwallet", types.PositionUpdate{
		TokenAddress: req.TokenAddress,
		Symbol:       "ABC",
		Decimals:     6,
		AmountBought: 50.0,
		AmountInSUI:  2.0,
	}, mock.Anything)
	db.AssertNotCalled(t, "ReleaseOrder", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "MarkOrderFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteFeeTakenSwapFailed(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	req := buyRequest()

	db.On("ClaimOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(stubKey(), nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(3_000_000_000), nil)
	swap.On("Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(types.Route{ExpectedAmountOut: big.NewInt(1)}, nil)
	chain.On("TransferNative", mock.Anything, mock.Anything, "0xfee", mock.Anything).Return("fee-abc", nil)
	db.On("RecordOrderFeeTx", mock.Anything, types.OrderKindLimit, "order-1", "fee-abc").Return(nil)
	chain.On("Balance", mock.Anything, "0xwallet", req.TokenAddress).Return(big.NewInt(0), nil)
	swap.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return(types.SwapReceipt{}, errors.New("route expired"))
	db.On("ReleaseOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(nil)

	_, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), req)
	require.Error(t, err)

	execErr, ok := AsExecutionError(err)
	require.True(t, ok)
	require.Equal(t, CategorySwap, execErr.Category)
	require.Equal(t, "fee-abc", execErr.FeeTxDigest)
	require.False(t, execErr.Terminal)
	require.Contains(t, execErr.Error(), "fee already taken, trade failed, fee tx = fee-abc")

	// back to pending for retry, never silently completed or dropped
	db.AssertCalled(t, "ReleaseOrder", mock.Anything, types.OrderKindLimit, "order-1")
	db.AssertNotCalled(t, "MarkOrderCompleted", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "MarkOrderFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteRetrySkipsFeeTransfer(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	req := buyRequest()
	req.FeeTxDigest = "fee-prior"
	req.Attempts = 1

	db.On("ClaimOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(stubKey(), nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(3_000_000_000), nil)
	swap.On("Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(types.Route{ExpectedAmountOut: big.NewInt(1)}, nil)
	chain.On("Balance", mock.Anything, "0xwallet", req.TokenAddress).Return(big.NewInt(0), nil)
	swap.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return(types.SwapReceipt{TxDigest: "abc", AmountOut: big.NewInt(10)}, nil)
	chain.On("CoinMetadata", mock.Anything, req.TokenAddress).Return(types.AssetMetadata{Symbol: "ABC", Decimals: 6}, nil)
	db.On("UpsertPosition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(types.Position{}, nil)

	result, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "fee-prior", result.FeeTxDigest)

	chain.AssertNotCalled(t, "TransferNative", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "RecordOrderFeeTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteSkipsAlreadyClaimedOrder(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	db.On("ClaimOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(false, nil)

	_, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), buyRequest())
	require.ErrorIs(t, err, ErrOrderClaimed)

	res.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	chain.AssertNotCalled(t, "Balance", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteInsufficientBalance(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	// spend + gas buffer + fee is just above the held balance
	db.On("ClaimOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(stubKey(), nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(2_024_999_999), nil)
	db.On("ReleaseOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(nil)

	_, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), buyRequest())
	require.Error(t, err)

	execErr, ok := AsExecutionError(err)
	require.True(t, ok)
	require.Equal(t, CategoryBalance, execErr.Category)
	require.Empty(t, execErr.FeeTxDigest)

	swap.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	chain.AssertNotCalled(t, "TransferNative", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteTerminalFailureAfterMaxAttempts(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	req := buyRequest()
	req.Attempts = 9

	db.On("ClaimOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(nil, errors.New("wallet not found"))
	db.On("MarkOrderFailed", mock.Anything, types.OrderKindLimit, "order-1").Return(nil)

	_, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), req)
	require.Error(t, err)

	execErr, ok := AsExecutionError(err)
	require.True(t, ok)
	require.True(t, execErr.Terminal)
	require.Equal(t, CategoryCredential, execErr.Category)

	db.AssertCalled(t, "MarkOrderFailed", mock.Anything, types.OrderKindLimit, "order-1")
	db.AssertNotCalled(t, "ReleaseOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteSellResolvesPercentage(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	q, _ := types.PercentageQuantity(50)
	req := Request{
		Kind:          types.OrderKindDCA,
		ID:            "order-2",
		UserID:        42,
		WalletAddress: "0xwallet",
		TokenAddress:  "0x123::token::ABC",
		Side:          types.OrderSideSell,
		Quantity:      q,
		Slippage:      1,
	}

	sellAmount := big.NewInt(500_000) // half of the current holding
	route := types.Route{
		CoinIn:            req.TokenAddress,
		CoinOut:           NativeCoinType,
		AmountIn:          sellAmount,
		ExpectedAmountOut: big.NewInt(1_000_000_000),
	}

	db.On("ClaimOrder", mock.Anything, types.OrderKindDCA, "order-2").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(stubKey(), nil)
	chain.On("Balance", mock.Anything, "0xwallet", req.TokenAddress).Return(big.NewInt(1_000_000), nil)
	swap.On("Quote", mock.Anything, req.TokenAddress, NativeCoinType, sellAmount, 1.0).Return(route, nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(100_000_000), nil)
	chain.On("TransferNative", mock.Anything, mock.Anything, "0xfee", big.NewInt(10_000_000)).Return("fee-xyz", nil)
	db.On("RecordOrderFeeTx", mock.Anything, types.OrderKindDCA, "order-2", "fee-xyz").Return(nil)
	swap.On("Execute", mock.Anything, mock.Anything, route).Return(types.SwapReceipt{TxDigest: "xyz", AmountOut: big.NewInt(1_000_000_000)}, nil)
	chain.On("CoinMetadata", mock.Anything, req.TokenAddress).Return(types.AssetMetadata{Symbol: "ABC", Decimals: 6}, nil)

	result, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, "xyz", result.TxDigest)
	require.Equal(t, 0.5, result.SoldAmount)
	require.Equal(t, 0.99, result.ReceivedSUI)
	// sells never touch the buy-side cost basis
	db.AssertNotCalled(t, "UpsertPosition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteSellSettlementReadback(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	q, _ := types.PercentageQuantity(50)
	req := Request{
		Kind:          types.OrderKindDCA,
		ID:            "order-2",
		UserID:        42,
		WalletAddress: "0xwallet",
		TokenAddress:  "0x123::token::ABC",
		Side:          types.OrderSideSell,
		Quantity:      q,
		Slippage:      1,
	}

	sellAmount := big.NewInt(500_000)
	route := types.Route{
		CoinIn:            req.TokenAddress,
		CoinOut:           NativeCoinType,
		AmountIn:          sellAmount,
		ExpectedAmountOut: big.NewInt(1_000_000_000),
	}

	db.On("ClaimOrder", mock.Anything, types.OrderKindDCA, "order-2").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(stubKey(), nil)
	chain.On("Balance", mock.Anything, "0xwallet", req.TokenAddress).Return(big.NewInt(1_000_000), nil)
	swap.On("Quote", mock.Anything, req.TokenAddress, NativeCoinType, sellAmount, 1.0).Return(route, nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(2_000_000_000), nil).Once()
	chain.On("TransferNative", mock.Anything, mock.Anything, "0xfee", big.NewInt(10_000_000)).Return("fee-xyz", nil)
	db.On("RecordOrderFeeTx", mock.Anything, types.OrderKindDCA, "order-2", "fee-xyz").Return(nil)
	// pre-swap read after the fee left, post-swap read once settled: the
	// chain delivered 0.98 SUI even though the quote promised 0.99
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(1_990_000_000), nil).Once()
	swap.On("Execute", mock.Anything, mock.Anything, route).Return(types.SwapReceipt{TxDigest: "xyz", AmountOut: big.NewInt(1_000_000_000)}, nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(2_970_000_000), nil).Once()
	chain.On("CoinMetadata", mock.Anything, req.TokenAddress).Return(types.AssetMetadata{Symbol: "ABC", Decimals: 6}, nil)

	result, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), req)
	require.NoError(t, err)

	// settled balance delta wins over the provider's advisory amount
	require.Equal(t, 0.98, result.ReceivedSUI)
}

func TestExecuteMetadataFallback(t *testing.T) {
	db := new(database.MockDB)
	res := new(resolver.MockResolver)
	swap := new(swapprovider.MockSwapProvider)
	chain := new(chainclient.MockChainClient)

	req := buyRequest()

	db.On("ClaimOrder", mock.Anything, types.OrderKindLimit, "order-1").Return(true, nil)
	res.On("Resolve", mock.Anything, int64(42), "0xwallet").Return(stubKey(), nil)
	chain.On("Balance", mock.Anything, "0xwallet", NativeCoinType).Return(big.NewInt(3_000_000_000), nil)
	swap.On("Quote", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(types.Route{ExpectedAmountOut: big.NewInt(1)}, nil)
	chain.On("TransferNative", mock.Anything, mock.Anything, "0xfee", mock.Anything).Return("fee-abc", nil)
	db.On("RecordOrderFeeTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	chain.On("Balance", mock.Anything, "0xwallet", req.TokenAddress).Return(big.NewInt(0), nil)
	swap.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return(types.SwapReceipt{TxDigest: "abc", AmountOut: big.NewInt(5_000_000_000)}, nil)
	chain.On("CoinMetadata", mock.Anything, req.TokenAddress).Return(types.AssetMetadata{}, errors.New("rpc unavailable"))
	db.On("UpsertPosition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(types.Position{}, nil)

	result, err := newTestEngine(db, res, swap, chain).Execute(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, "UNKNOWN", result.TokenSymbol)
	require.Equal(t, 9, result.TokenDecimals)
	require.Equal(t, 5.0, result.ReceivedAmount)
	chain.AssertNumberOfCalls(t, "CoinMetadata", 3)
}
