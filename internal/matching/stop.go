package matching

import (
	"fmt"
	"time"

	"matchcore/internal/core"
	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// stopTriggered reports whether marketPrice has crossed a stop order's
// trigger: a buy-side stop fires once the price has risen to meet or pass
// it, a sell-side stop fires once the price has fallen to meet or pass it.
func stopTriggered(side core.Side, stopPrice, marketPrice core.Price) bool {
	if side == core.Buy {
		return marketPrice.GreaterOrEqual(stopPrice)
	}
	return marketPrice.LessOrEqual(stopPrice)
}

// stopPoolFor decides which pool an untriggered stop waits in: the high
// pool if its trigger sits above the current market price, the low pool if
// it sits at or below it.
func stopPoolFor(stopPrice, marketPrice core.Price) repository.StopPool {
	if stopPrice.GreaterThan(marketPrice) {
		return repository.HighPool
	}
	return repository.LowPool
}

func (e *Engine) processStopOrderRequest(tx repository.Transaction, out *Output, req order.StopOrderRequest, at time.Time) error {
	out.append(Accepted{OrderID: req.ID, Timestamp: at})
	mp, ok, err := e.marketPrice.Get(tx)
	if err != nil {
		return fmt.Errorf("matching: read market price: %w", err)
	}
	if !ok {
		out.append(MissingMarketPriceForStopOrder{OrderID: req.ID})
		return nil
	}

	so := order.StopOrder{
		ID:          req.ID,
		AssetPair:   req.AssetPair,
		Side:        req.Side,
		StopPrice:   req.StopPrice,
		Quantity:    req.Quantity,
		TimeInForce: req.TimeInForce,
		Timestamp:   at,
	}

	if stopTriggered(so.Side, so.StopPrice, mp) {
		mo := so.IssueMarketOrder(at)
		out.append(StopOrderIssueMarketOrder{StopOrderID: so.ID, MarketOrderID: mo.ID, Timestamp: at})
		return e.processMarketOrder(tx, out, mo, at)
	}

	pool := stopPoolFor(so.StopPrice, mp)
	if err := e.pendingStopOrders.Create(tx, pool, so); err != nil {
		return fmt.Errorf("matching: create pending stop order: %w", err)
	}
	return nil
}

func (e *Engine) processStopLimitOrderRequest(tx repository.Transaction, out *Output, req order.StopLimitOrderRequest, at time.Time) error {
	out.append(Accepted{OrderID: req.ID, Timestamp: at})
	mp, ok, err := e.marketPrice.Get(tx)
	if err != nil {
		return fmt.Errorf("matching: read market price: %w", err)
	}
	if !ok {
		out.append(MissingMarketPriceForStopOrder{OrderID: req.ID})
		return nil
	}

	so := order.StopLimitOrder{
		ID:          req.ID,
		AssetPair:   req.AssetPair,
		Side:        req.Side,
		StopPrice:   req.StopPrice,
		LimitPrice:  req.LimitPrice,
		Quantity:    req.Quantity,
		TimeInForce: req.TimeInForce,
		Timestamp:   at,
	}

	if stopTriggered(so.Side, so.StopPrice, mp) {
		lo := so.IssueLimitOrder(at)
		out.append(StopLimitOrderIssueLimitOrder{StopOrderID: so.ID, LimitOrderID: lo.ID, Timestamp: at})
		return e.processLimitOrder(tx, out, lo, at)
	}

	pool := stopPoolFor(so.StopPrice, mp)
	if err := e.pendingStopOrders.Create(tx, pool, so); err != nil {
		return fmt.Errorf("matching: create pending stop order: %w", err)
	}
	return nil
}

// handlePriceChange is the price-change handler: it records the new market
// price and then, in batches of triggerBatchSize, drains every pending stop
// order in either pool whose trigger the new price has crossed. Triggering
// a stop order can itself move the market price again (its issued
// market/limit order may trade), so this loops to a fixpoint: a full pass
// over both pools that finds nothing left to trigger.
func (e *Engine) handlePriceChange(tx repository.Transaction, out *Output, newPrice core.Price, at time.Time) error {
	if err := e.marketPrice.Update(tx, newPrice); err != nil {
		return fmt.Errorf("matching: update market price: %w", err)
	}

	for {
		triggeredAny := false
		for _, pool := range [...]repository.StopPool{repository.HighPool, repository.LowPool} {
			latest, ok, err := e.marketPrice.Get(tx)
			if err != nil {
				return fmt.Errorf("matching: read market price: %w", err)
			}
			if !ok {
				latest = newPrice
			}

			triggered, err := e.pendingStopOrders.GetListByMarketPrice(tx, pool, latest, triggerBatchSize)
			if err != nil {
				return fmt.Errorf("matching: list triggered stop orders: %w", err)
			}
			for _, pso := range triggered {
				// An earlier stop in this batch may already have drained this
				// one through the nested cascade its own trades started.
				_, pending, err := e.pendingStopOrders.GetByOrderID(tx, pool, pso.StopID())
				if err != nil {
					return fmt.Errorf("matching: lookup triggered stop order: %w", err)
				}
				if !pending {
					continue
				}
				triggeredAny = true
				if err := e.pendingStopOrders.DeleteByOrderID(tx, pool, pso.StopID()); err != nil {
					return fmt.Errorf("matching: delete triggered stop order: %w", err)
				}
				if err := e.triggerPendingStopOrder(tx, out, pso, at); err != nil {
					return err
				}
			}
		}
		if !triggeredAny {
			return nil
		}
	}
}

func (e *Engine) triggerPendingStopOrder(tx repository.Transaction, out *Output, pso order.PendingStopOrder, at time.Time) error {
	switch s := pso.(type) {
	case order.StopOrder:
		mo := s.IssueMarketOrder(at)
		out.append(StopOrderIssueMarketOrder{StopOrderID: s.ID, MarketOrderID: mo.ID, Timestamp: at})
		return e.processMarketOrder(tx, out, mo, at)
	case order.StopLimitOrder:
		lo := s.IssueLimitOrder(at)
		out.append(StopLimitOrderIssueLimitOrder{StopOrderID: s.ID, LimitOrderID: lo.ID, Timestamp: at})
		return e.processLimitOrder(tx, out, lo, at)
	default:
		return fmt.Errorf("matching: unknown pending stop order type %T", pso)
	}
}
