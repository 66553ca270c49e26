package matching

import (
	"fmt"
	"time"

	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// processAmend changes a resting limit order's price and/or quantity.
// Queue position at its price level survives only if the price is
// unchanged; otherwise the order is removed and re-created, which the
// repository places at the tail of the new level. Per the Open Question in
// SPEC_FULL.md §9, an amend is never re-matched against the book even if
// the new price would now cross it — the order simply rests at its new
// terms until the next incoming order reaches it. req.TargetOrderType can
// never be MarketOrderType — Process asserts this before dispatch ever
// reaches here.
func (e *Engine) processAmend(tx repository.Transaction, out *Output, req order.AmendOrderRequest, at time.Time) error {
	existing, ok, err := e.limitOrders.GetByOrderID(tx, req.Side, req.TargetID)
	if err != nil {
		return fmt.Errorf("matching: lookup order to amend: %w", err)
	}
	if !ok {
		out.append(OrderNotFound{OrderID: req.ID, TargetOrderID: req.TargetID})
		return nil
	}

	samePrice := existing.Price.Equal(req.NewPrice)
	amended := existing.WithPrice(req.NewPrice).WithQuantity(req.NewQuantity)

	if samePrice {
		if err := e.limitOrders.Update(tx, amended); err != nil {
			return fmt.Errorf("matching: update amended order: %w", err)
		}
	} else {
		if err := e.limitOrders.DeleteByOrderID(tx, req.Side, req.TargetID); err != nil {
			return fmt.Errorf("matching: remove order before re-resting: %w", err)
		}
		if err := e.limitOrders.Create(tx, amended); err != nil {
			return fmt.Errorf("matching: re-rest amended order: %w", err)
		}
	}

	out.append(Amended{OrderID: req.ID, TargetOrderID: req.TargetID, NewPrice: req.NewPrice, NewQuantity: req.NewQuantity, Timestamp: at})
	return nil
}
