package order

import (
	"time"

	"matchcore/internal/core"
)

// MarketOrder is never stored by a repository — it either matches
// immediately against the book or the remainder is discarded.
type MarketOrder struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
	Timestamp   time.Time
}

// SubQuantity returns a copy of m with qty removed from its remaining
// quantity, used while sweeping the book.
func (m MarketOrder) SubQuantity(qty core.Quantity) MarketOrder {
	m.Quantity = m.Quantity.Sub(qty)
	return m
}

func (m MarketOrder) IsFilled() bool { return m.Quantity.IsZero() }

// LimitOrder rests on the book at Price until filled, cancelled, or amended
// away. It is the only order type a LimitOrderRepository stores.
type LimitOrder struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	Price       core.Price
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
	Timestamp   time.Time
}

func (l LimitOrder) SubQuantity(qty core.Quantity) LimitOrder {
	l.Quantity = l.Quantity.Sub(qty)
	return l
}

func (l LimitOrder) IsFilled() bool { return l.Quantity.IsZero() }

// WithPrice returns a copy of l resting at a new price — used by amend when
// the price changes, since that forfeits queue position (the order is
// re-appended to the tail of the new price level).
func (l LimitOrder) WithPrice(p core.Price) LimitOrder {
	l.Price = p
	return l
}

func (l LimitOrder) WithQuantity(q core.Quantity) LimitOrder {
	l.Quantity = q
	return l
}

// StopOrder becomes a MarketOrder the instant the market price crosses
// StopPrice. It never rests in the matching book itself — only in a
// PendingStopOrderRepository's high or low pool.
type StopOrder struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	StopPrice   core.Price
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
	Timestamp   time.Time
}

func (StopOrder) isPendingStopOrder() {}

// IssueMarketOrder converts a triggered stop order into the market order it
// becomes — the stop's identity (ID, AssetPair, Side, Quantity, TimeInForce)
// carries straight through, stamped with the trigger instant at.
func (s StopOrder) IssueMarketOrder(at time.Time) MarketOrder {
	return MarketOrder{
		ID:          s.ID,
		AssetPair:   s.AssetPair,
		Side:        s.Side,
		Quantity:    s.Quantity,
		TimeInForce: s.TimeInForce,
		Timestamp:   at,
	}
}

// StopLimitOrder becomes a LimitOrder at LimitPrice the instant the market
// price crosses StopPrice.
type StopLimitOrder struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	StopPrice   core.Price
	LimitPrice  core.Price
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
	Timestamp   time.Time
}

func (StopLimitOrder) isPendingStopOrder() {}

// IssueLimitOrder converts a triggered stop-limit order into the limit
// order it becomes, stamped with the trigger instant at.
func (s StopLimitOrder) IssueLimitOrder(at time.Time) LimitOrder {
	return LimitOrder{
		ID:          s.ID,
		AssetPair:   s.AssetPair,
		Side:        s.Side,
		Price:       s.LimitPrice,
		Quantity:    s.Quantity,
		TimeInForce: s.TimeInForce,
		Timestamp:   at,
	}
}

// PendingStopOrder is the closed two-case sum of stop orders waiting in a
// high or low pool. The marker method is the tag check: callers type-switch
// on the concrete type, they never ask a PendingStopOrder to behave
// polymorphically.
type PendingStopOrder interface {
	isPendingStopOrder()
	StopID() core.OrderID
	StopSide() core.Side
	TriggerPrice() core.Price
}

func (s StopOrder) StopID() core.OrderID     { return s.ID }
func (s StopOrder) StopSide() core.Side      { return s.Side }
func (s StopOrder) TriggerPrice() core.Price { return s.StopPrice }

func (s StopLimitOrder) StopID() core.OrderID     { return s.ID }
func (s StopLimitOrder) StopSide() core.Side      { return s.Side }
func (s StopLimitOrder) TriggerPrice() core.Price { return s.StopPrice }
