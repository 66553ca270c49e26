package matching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/core"
	"matchcore/internal/matching"
	"matchcore/internal/order"
	"matchcore/internal/repository"
	"matchcore/internal/store/memory"
)

var testPair = core.AssetPair{Base: "BTC", Quote: "USD"}

func newEngine(t *testing.T) (*matching.Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	engine := matching.New(testPair, store.LimitOrders(), store.PendingStopOrders(), store.MarketPrice())
	return engine, store
}

func lastEvent(out *matching.Output) matching.Event {
	return out.Events[len(out.Events)-1]
}

// assertAccepted reports that out's first event is an Accepted for id,
// ignoring the wall-clock Timestamp it carries.
func assertAccepted(t *testing.T, out *matching.Output, id core.OrderID) {
	t.Helper()
	require.NotEmpty(t, out.Events)
	accepted, ok := out.Events[0].(matching.Accepted)
	require.True(t, ok, "first event must be Accepted, got %T", out.Events[0])
	assert.Equal(t, id, accepted.OrderID)
}

// containsFilled reports whether out carries a Filled event matching the
// given fields. It compares Price/Quantity via their Equal methods rather
// than struct equality, since two decimal.Decimal values can represent the
// same number with different internal scale after arithmetic.
func containsFilled(out *matching.Output, taker, maker core.OrderID, price core.Price, qty core.Quantity) bool {
	for _, evt := range out.Events {
		f, ok := evt.(matching.Filled)
		if !ok {
			continue
		}
		if f.TakerOrderID == taker && f.MakerOrderID == maker && f.Price.Equal(price) && f.Quantity.Equal(qty) {
			return true
		}
	}
	return false
}

func containsPartiallyFilled(out *matching.Output, taker, maker core.OrderID, price core.Price, qty core.Quantity) bool {
	for _, evt := range out.Events {
		f, ok := evt.(matching.PartiallyFilled)
		if !ok {
			continue
		}
		if f.TakerOrderID == taker && f.MakerOrderID == maker && f.Price.Equal(price) && f.Quantity.Equal(qty) {
			return true
		}
	}
	return false
}

func TestLimitOrderRestsWhenNoCross(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	id := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewLimitRequest(id, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("10"), core.GoodTilCancelled))
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assertAccepted(t, out, id)

	resting, ok, err := store.LimitOrders().GetByOrderID(tx, core.Buy, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, resting.Quantity.Equal(core.MustQuantity("10")))
}

func TestLimitOrderFullyMatchesRestingOrder(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	askID := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(askID, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("10"), core.GoodTilCancelled))
	require.NoError(t, err)

	bidID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewLimitRequest(bidID, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("10"), core.GoodTilCancelled))
	require.NoError(t, err)

	assert.True(t, containsFilled(out, bidID, askID, core.MustPrice("100"), core.MustQuantity("10")))
	assert.True(t, out.MarketPrice.Equal(core.MustPrice("100")))

	_, ok, err := store.LimitOrders().GetByOrderID(tx, core.Sell, askID)
	require.NoError(t, err)
	assert.False(t, ok, "fully matched resting order must be removed from the book")

	_, ok, err = store.LimitOrders().GetByOrderID(tx, core.Buy, bidID)
	require.NoError(t, err)
	assert.False(t, ok, "fully matched incoming order must not rest")
}

func TestLimitOrderPartiallyMatchesAndRestsRemainder(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	askID := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(askID, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("4"), core.GoodTilCancelled))
	require.NoError(t, err)

	bidID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewLimitRequest(bidID, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("10"), core.GoodTilCancelled))
	require.NoError(t, err)

	assert.True(t, containsFilled(out, bidID, askID, core.MustPrice("100"), core.MustQuantity("4")))

	resting, ok, err := store.LimitOrders().GetByOrderID(tx, core.Buy, bidID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, resting.Quantity.Equal(core.MustQuantity("6")))
}

func TestFIFOPriorityAtSamePriceLevel(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	first := core.NewOrderID()
	second := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(first, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)
	_, err = engine.Process(tx, nil, order.NewLimitRequest(second, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)

	takerID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewLimitRequest(takerID, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)

	assert.True(t, containsFilled(out, takerID, first, core.MustPrice("100"), core.MustQuantity("5")))

	_, ok, err := store.LimitOrders().GetByOrderID(tx, core.Sell, second)
	require.NoError(t, err)
	assert.True(t, ok, "the order placed second must still be resting — price-time priority protects it")
}

func TestMarketOrderSweepsMultipleLevels(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	lowAsk := core.NewOrderID()
	highAsk := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(lowAsk, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("3"), core.GoodTilCancelled))
	require.NoError(t, err)
	_, err = engine.Process(tx, nil, order.NewLimitRequest(highAsk, testPair, core.Sell, core.MustPrice("101"), core.MustQuantity("3"), core.GoodTilCancelled))
	require.NoError(t, err)

	takerID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewMarketRequest(takerID, testPair, core.Buy, core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)

	assert.True(t, containsFilled(out, takerID, lowAsk, core.MustPrice("100"), core.MustQuantity("3")))
	assert.True(t, containsPartiallyFilled(out, takerID, highAsk, core.MustPrice("101"), core.MustQuantity("2")))
	assert.True(t, out.MarketPrice.Equal(core.MustPrice("101")))
}

func TestMarketOrderWithNoLiquidityReportsNoMatch(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	id := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewMarketRequest(id, testPair, core.Buy, core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	assert.Equal(t, matching.NoMatch{OrderID: id}, lastEvent(out))
}

func TestAmendSamePriceKeepsQueuePosition(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	first := core.NewOrderID()
	second := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(first, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)
	_, err = engine.Process(tx, nil, order.NewLimitRequest(second, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)

	amendID := core.NewOrderID()
	_, err = engine.Process(tx, nil, order.NewAmendRequest(amendID, testPair, first, core.LimitOrderType, core.Sell, core.MustPrice("100"), core.MustQuantity("2")))
	require.NoError(t, err)

	takerID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewMarketRequest(takerID, testPair, core.Buy, core.MustQuantity("2"), core.GoodTilCancelled))
	require.NoError(t, err)

	assert.True(t, containsFilled(out, takerID, first, core.MustPrice("100"), core.MustQuantity("2")))
}

func TestAmendPriceChangeMovesToTailOfNewLevel(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	id := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(id, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)
	atNewLevel := core.NewOrderID()
	_, err = engine.Process(tx, nil, order.NewLimitRequest(atNewLevel, testPair, core.Sell, core.MustPrice("105"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)

	amendID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewAmendRequest(amendID, testPair, id, core.LimitOrderType, core.Sell, core.MustPrice("105"), core.MustQuantity("5")))
	require.NoError(t, err)
	amended, ok := lastEvent(out).(matching.Amended)
	require.True(t, ok)
	assert.Equal(t, amendID, amended.OrderID)
	assert.Equal(t, id, amended.TargetOrderID)
	assert.True(t, amended.NewPrice.Equal(core.MustPrice("105")))
	assert.True(t, amended.NewQuantity.Equal(core.MustQuantity("5")))

	resting, ok, err := store.LimitOrders().GetByOrderID(tx, core.Sell, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, resting.Price.Equal(core.MustPrice("105")))

	next, ok, err := store.LimitOrders().Next(tx, core.Sell)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, atNewLevel, next.ID, "the amended order queues behind the order already resting at 105")
}

func TestAmendUnknownOrderReportsOrderNotFound(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	amendID := core.NewOrderID()
	ghost := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewAmendRequest(amendID, testPair, ghost, core.LimitOrderType, core.Buy, core.MustPrice("1"), core.MustQuantity("1")))
	require.NoError(t, err)
	assert.Equal(t, matching.OrderNotFound{OrderID: amendID, TargetOrderID: ghost}, lastEvent(out))
}

func TestAmendRejectsMarketOrderTarget(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	amendID := core.NewOrderID()
	target := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewAmendRequest(amendID, testPair, target, core.MarketOrderType, core.Buy, core.MustPrice("1"), core.MustQuantity("1")))
	require.ErrorIs(t, err, matching.ErrInvalidAmendCancelTarget)
}

func TestProcessRejectsMismatchedAssetPair(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	wrongPair := core.AssetPair{Base: "ETH", Quote: "USD"}
	id := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(id, wrongPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.ErrorIs(t, err, matching.ErrAssetPairMismatch)
}

func TestCancelRestingLimitOrder(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	id := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(id, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	cancelID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewCancelRequest(cancelID, testPair, id, core.LimitOrderType, core.Buy))
	require.NoError(t, err)
	cancelled, ok := lastEvent(out).(matching.Cancelled)
	require.True(t, ok)
	assert.Equal(t, cancelID, cancelled.OrderID)
	assert.Equal(t, id, cancelled.TargetOrderID)
	assert.False(t, cancelled.Timestamp.IsZero())

	_, ok, err = store.LimitOrders().GetByOrderID(tx, core.Buy, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelUnknownOrderReportsOrderNotFound(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	cancelID := core.NewOrderID()
	ghost := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewCancelRequest(cancelID, testPair, ghost, core.LimitOrderType, core.Sell))
	require.NoError(t, err)
	assert.Equal(t, matching.OrderNotFound{OrderID: cancelID, TargetOrderID: ghost}, lastEvent(out))
}

func TestCancelRejectsMarketOrderTarget(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	cancelID := core.NewOrderID()
	target := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewCancelRequest(cancelID, testPair, target, core.MarketOrderType, core.Sell))
	require.ErrorIs(t, err, matching.ErrInvalidAmendCancelTarget)
}

func TestStopOrderWithNoMarketPriceReportsMissingMarketPrice(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	id := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewStopRequest(id, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	assert.Equal(t, matching.MissingMarketPriceForStopOrder{OrderID: id}, lastEvent(out))
}

func TestStopOrderRestsUntilTriggeredByPriceMovement(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	// First trade establishes a market price of 100.
	askID := core.NewOrderID()
	bidID := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(askID, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	_, err = engine.Process(tx, nil, order.NewLimitRequest(bidID, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	// A buy stop above the market price waits in the pool.
	stopID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewStopRequest(stopID, testPair, core.Buy, core.MustPrice("110"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	assertAccepted(t, out, stopID)

	_, ok, err := store.PendingStopOrders().GetByOrderID(tx, repository.HighPool, stopID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Liquidity appears at 110 and a trade there should trigger the stop.
	liquidityID := core.NewOrderID()
	_, err = engine.Process(tx, nil, order.NewLimitRequest(liquidityID, testPair, core.Sell, core.MustPrice("110"), core.MustQuantity("5"), core.GoodTilCancelled))
	require.NoError(t, err)

	sweepID := core.NewOrderID()
	out, err = engine.Process(tx, nil, order.NewLimitRequest(sweepID, testPair, core.Buy, core.MustPrice("110"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	var triggered bool
	for _, evt := range out.Events {
		if accepted, ok := evt.(matching.Accepted); ok && accepted.OrderID == stopID {
			t.Fatalf("derived market order from a triggered stop must not push its own Accepted event")
		}
		if issue, ok := evt.(matching.StopOrderIssueMarketOrder); ok && issue.StopOrderID == stopID {
			triggered = true
		}
	}
	assert.True(t, triggered, "stop order should trigger once the market price reaches its stop price")

	_, ok, err = store.PendingStopOrders().GetByOrderID(tx, repository.HighPool, stopID)
	require.NoError(t, err)
	assert.False(t, ok, "triggered stop order must leave the pending pool")
}

func TestStopOrderTriggersImmediatelyWhenAlreadyCrossed(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	askID := core.NewOrderID()
	bidID := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(askID, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	_, err = engine.Process(tx, nil, order.NewLimitRequest(bidID, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	// Liquidity for the stop's resulting market order to sweep.
	liquidityID := core.NewOrderID()
	_, err = engine.Process(tx, nil, order.NewLimitRequest(liquidityID, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	// A buy stop at the current market price is already crossed and fires
	// immediately instead of waiting in a pool.
	stopID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewStopRequest(stopID, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	var triggeredImmediately bool
	for _, evt := range out.Events {
		if issue, ok := evt.(matching.StopOrderIssueMarketOrder); ok && issue.StopOrderID == stopID {
			triggeredImmediately = true
		}
	}
	assert.True(t, triggeredImmediately)

	_, ok, err := store.PendingStopOrders().GetByOrderID(tx, repository.HighPool, stopID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStopLimitOrderRestsThenIssuesLimitOrderOnTrigger(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()
	defer tx.Commit()

	// Establish a market price of 100.
	askID := core.NewOrderID()
	bidID := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(askID, testPair, core.Sell, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	_, err = engine.Process(tx, nil, order.NewLimitRequest(bidID, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	// A buy stop-limit above the market price waits in the high pool.
	stopID := core.NewOrderID()
	out, err := engine.Process(tx, nil, order.NewStopLimitRequest(stopID, testPair, core.Buy, core.MustPrice("110"), core.MustPrice("112"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	assertAccepted(t, out, stopID)

	_, ok, err := store.PendingStopOrders().GetByOrderID(tx, repository.HighPool, stopID)
	require.NoError(t, err)
	assert.True(t, ok)

	// A trade at 110 that takes all the liquidity there should trigger the
	// stop-limit, issuing a limit order that rests at its LimitPrice of 112
	// because no ask is left for it to match.
	liquidityID := core.NewOrderID()
	_, err = engine.Process(tx, nil, order.NewLimitRequest(liquidityID, testPair, core.Sell, core.MustPrice("110"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	sweepID := core.NewOrderID()
	out, err = engine.Process(tx, nil, order.NewLimitRequest(sweepID, testPair, core.Buy, core.MustPrice("110"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)

	var issuedLimitID core.OrderID
	for _, evt := range out.Events {
		if accepted, ok := evt.(matching.Accepted); ok && accepted.OrderID == stopID {
			t.Fatalf("derived limit order from a triggered stop-limit must not push its own Accepted event")
		}
		if issue, ok := evt.(matching.StopLimitOrderIssueLimitOrder); ok && issue.StopOrderID == stopID {
			issuedLimitID = issue.LimitOrderID
		}
	}
	require.Equal(t, stopID, issuedLimitID, "a stop-limit order carries its own ID through to the issued limit order")

	_, ok, err = store.PendingStopOrders().GetByOrderID(tx, repository.HighPool, stopID)
	require.NoError(t, err)
	assert.False(t, ok, "triggered stop-limit order must leave the pending pool")

	resting, ok, err := store.LimitOrders().GetByOrderID(tx, core.Buy, stopID)
	require.NoError(t, err)
	require.True(t, ok, "the issued limit order rests on the book since nothing offers at its limit price")
	assert.True(t, resting.Price.Equal(core.MustPrice("112")))
	assert.True(t, resting.Quantity.Equal(core.MustQuantity("1")))
}

func TestAbortedTransactionDiscardsAllMutations(t *testing.T) {
	engine, store := newEngine(t)
	tx := store.Begin()

	id := core.NewOrderID()
	_, err := engine.Process(tx, nil, order.NewLimitRequest(id, testPair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
	require.NoError(t, err)
	tx.Abort()

	tx2 := store.Begin()
	defer tx2.Commit()
	_, ok, err := store.LimitOrders().GetByOrderID(tx2, core.Buy, id)
	require.NoError(t, err)
	assert.False(t, ok, "an aborted transaction must leave no trace")
}
