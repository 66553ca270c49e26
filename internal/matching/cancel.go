package matching

import (
	"fmt"
	"time"

	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// processCancel removes an order by TargetID, checking the resting limit
// book first and then both pending stop order pools. A cancel names the
// side the target was placed on but not which pool it rests in, since the
// caller may not remember whether a stop has triggered yet.
// req.TargetOrderType can never be MarketOrderType — Process asserts this
// before dispatch ever reaches here.
func (e *Engine) processCancel(tx repository.Transaction, out *Output, req order.CancelOrderRequest, at time.Time) error {
	_, ok, err := e.limitOrders.GetByOrderID(tx, req.Side, req.TargetID)
	if err != nil {
		return fmt.Errorf("matching: lookup resting order to cancel: %w", err)
	}
	if ok {
		if err := e.limitOrders.DeleteByOrderID(tx, req.Side, req.TargetID); err != nil {
			return fmt.Errorf("matching: cancel resting order: %w", err)
		}
		out.append(Cancelled{OrderID: req.ID, TargetOrderID: req.TargetID, Timestamp: at})
		return nil
	}

	for _, pool := range [...]repository.StopPool{repository.HighPool, repository.LowPool} {
		pso, ok, err := e.pendingStopOrders.GetByOrderID(tx, pool, req.TargetID)
		if err != nil {
			return fmt.Errorf("matching: lookup pending stop order to cancel: %w", err)
		}
		if ok {
			if err := e.pendingStopOrders.Delete(tx, pool, pso); err != nil {
				return fmt.Errorf("matching: cancel pending stop order: %w", err)
			}
			out.append(Cancelled{OrderID: req.ID, TargetOrderID: req.TargetID, Timestamp: at})
			return nil
		}
	}

	out.append(OrderNotFound{OrderID: req.ID, TargetOrderID: req.TargetID})
	return nil
}
