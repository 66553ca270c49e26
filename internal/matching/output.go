package matching

import (
	"time"

	"matchcore/internal/core"
)

// Event is the closed sum of everything Process can report back to the
// caller. Domain failures (OrderNotFound, NoMatch,
// MissingMarketPriceForStopOrder) are Events too, not Go errors — the
// transaction still commits, the caller just learns the request could not
// be satisfied. Process returns a real Go error only when a repository
// call itself fails.
type Event interface {
	isEvent()
	// Failed reports whether this event represents a domain failure
	// (true) rather than a successful state transition (false), so
	// logging and metrics can tell the two apart without a type switch.
	Failed() bool
}

// Accepted is emitted once, by the top-level dispatch, for a genuine
// Market/Limit/Stop/StopLimit order request — before any trade or resting
// decision is known. It is never emitted for an order derived from a
// triggered stop; the stop's own Accepted already covers it.
type Accepted struct {
	OrderID   core.OrderID
	Timestamp time.Time
}

func (Accepted) isEvent()     {}
func (Accepted) Failed() bool { return false }

// Filled is emitted for a trade that consumed a resting order's entire
// remaining quantity. Each trade produces exactly one event, Filled or
// PartiallyFilled, naming both the taker and the maker; no separate event
// is emitted for the taker's side of the trade.
type Filled struct {
	TakerOrderID core.OrderID
	MakerOrderID core.OrderID
	Price        core.Price
	Quantity     core.Quantity
	Timestamp    time.Time
}

func (Filled) isEvent()     {}
func (Filled) Failed() bool { return false }

// PartiallyFilled is emitted for a trade that left the maker with remaining
// quantity. Whether the taker has quantity left does not affect which of
// the two event types a trade produces.
type PartiallyFilled struct {
	TakerOrderID core.OrderID
	MakerOrderID core.OrderID
	Price        core.Price
	Quantity     core.Quantity
	Timestamp    time.Time
}

func (PartiallyFilled) isEvent()     {}
func (PartiallyFilled) Failed() bool { return false }

// Amended is emitted when a resting limit order's price and/or quantity
// changed successfully. OrderID is the amend instruction's own id;
// TargetOrderID is the order that was amended.
type Amended struct {
	OrderID       core.OrderID
	TargetOrderID core.OrderID
	NewPrice      core.Price
	NewQuantity   core.Quantity
	Timestamp     time.Time
}

func (Amended) isEvent()     {}
func (Amended) Failed() bool { return false }

// Cancelled is emitted when a resting limit order or pending stop order was
// removed from the book. OrderID is the cancel instruction's own id;
// TargetOrderID is the order that was removed.
type Cancelled struct {
	OrderID       core.OrderID
	TargetOrderID core.OrderID
	Timestamp     time.Time
}

func (Cancelled) isEvent()     {}
func (Cancelled) Failed() bool { return false }

// StopOrderIssueMarketOrder is emitted when a pending stop order triggers
// and is converted into (and then processed as) a market order.
type StopOrderIssueMarketOrder struct {
	StopOrderID   core.OrderID
	MarketOrderID core.OrderID
	Timestamp     time.Time
}

func (StopOrderIssueMarketOrder) isEvent()     {}
func (StopOrderIssueMarketOrder) Failed() bool { return false }

// StopLimitOrderIssueLimitOrder is emitted when a pending stop-limit order
// triggers and is converted into (and then processed as) a limit order.
type StopLimitOrderIssueLimitOrder struct {
	StopOrderID  core.OrderID
	LimitOrderID core.OrderID
	Timestamp    time.Time
}

func (StopLimitOrderIssueLimitOrder) isEvent()     {}
func (StopLimitOrderIssueLimitOrder) Failed() bool { return false }

// OrderNotFound is a domain failure: an amend or cancel named a target that
// does not exist (or no longer rests) on the named side. OrderID is the
// instruction's own id, TargetOrderID the target that could not be found.
type OrderNotFound struct {
	OrderID       core.OrderID
	TargetOrderID core.OrderID
}

func (OrderNotFound) isEvent()     {}
func (OrderNotFound) Failed() bool { return true }

// NoMatch is a domain failure: a market order found no resting liquidity on
// the opposite side at all.
type NoMatch struct {
	OrderID core.OrderID
}

func (NoMatch) isEvent()     {}
func (NoMatch) Failed() bool { return true }

// MissingMarketPriceForStopOrder is a domain failure: a stop or stop-limit
// order was requested before any trade has ever set the market price, so
// there is nothing to compare StopPrice against.
type MissingMarketPriceForStopOrder struct {
	OrderID core.OrderID
}

func (MissingMarketPriceForStopOrder) isEvent()     {}
func (MissingMarketPriceForStopOrder) Failed() bool { return true }

// Output is everything Process produces for a single request: the book's
// market price as of the end of processing, and the ordered sequence of
// events (successes and failures alike) that occurred while handling it,
// including any cascading stop triggers.
type Output struct {
	MarketPrice core.Price
	Events      []Event
}

func (o *Output) append(e Event) {
	o.Events = append(o.Events, e)
}
