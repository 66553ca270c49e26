// Package repository defines the storage contracts the matching engine
// depends on. It ships no implementation of its own — matchcore/internal/store/memory
// provides a reference one — so the engine never knows whether orders live
// in memory, in an embedded database, or behind a network call.
package repository

import (
	"matchcore/internal/core"
	"matchcore/internal/order"
)

// Transaction is an opaque handle a caller opens before calling into the
// engine and commits or aborts afterward. The engine and the repository
// contracts never inspect it; each concrete repository implementation
// type-asserts it back to its own transaction type.
type Transaction interface{}

// StopPool names which side of the pending stop order repository a stop
// order belongs in: the high pool holds stops with StopPrice above the last
// known market price, the low pool holds stops below it.
type StopPool int

const (
	HighPool StopPool = iota
	LowPool
)

func (p StopPool) String() string {
	if p == HighPool {
		return "high"
	}
	return "low"
}

// LimitOrderRepository stores the resting limit order book for one side
// (buy or sell) of the asset pair. Next must return orders in price-time
// priority: best price first, and within a price level, earliest-created
// first.
type LimitOrderRepository interface {
	Create(tx Transaction, o order.LimitOrder) error
	Update(tx Transaction, o order.LimitOrder) error
	DeleteByOrderID(tx Transaction, side core.Side, id core.OrderID) error
	GetByOrderID(tx Transaction, side core.Side, id core.OrderID) (order.LimitOrder, bool, error)
	// Next returns the best-priority resting order on the given side, or
	// ok=false if the side is empty.
	Next(tx Transaction, side core.Side) (order.LimitOrder, bool, error)
}

// PendingStopOrderRepository stores stop and stop-limit orders that have
// not yet triggered, split into a high pool and a low pool per StopPool.
type PendingStopOrderRepository interface {
	Create(tx Transaction, pool StopPool, o order.PendingStopOrder) error
	Update(tx Transaction, pool StopPool, o order.PendingStopOrder) error
	Delete(tx Transaction, pool StopPool, o order.PendingStopOrder) error
	DeleteByOrderID(tx Transaction, pool StopPool, id core.OrderID) error
	GetByOrderID(tx Transaction, pool StopPool, id core.OrderID) (order.PendingStopOrder, bool, error)
	// GetListByMarketPrice returns up to batchSize pending stop orders in
	// the given pool whose trigger price has been crossed by marketPrice,
	// in the order they should be triggered.
	GetListByMarketPrice(tx Transaction, pool StopPool, marketPrice core.Price, batchSize int) ([]order.PendingStopOrder, error)
}

// MarketPriceRepository stores the single last-traded price for the asset
// pair. It is empty until the first trade occurs.
type MarketPriceRepository interface {
	Get(tx Transaction) (core.Price, bool, error)
	Update(tx Transaction, price core.Price) error
}
