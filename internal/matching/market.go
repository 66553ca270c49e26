package matching

import (
	"fmt"
	"time"

	"matchcore/internal/core"
	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// processMarketOrder sweeps the opposite side of the book until mo is
// either fully filled or liquidity runs out. Market orders never rest —
// any unfilled remainder is simply discarded, per the core's scope. It
// never pushes Accepted itself: that belongs to whichever caller is
// handling a genuine new request (Process, for a MarketOrderRequest) —
// a market order derived from a triggered stop already had its own
// Accepted pushed when the stop request first arrived.
func (e *Engine) processMarketOrder(tx repository.Transaction, out *Output, mo order.MarketOrder, at time.Time) error {
	matched := false
	for !mo.IsFilled() {
		resting, ok, err := e.limitOrders.Next(tx, mo.Side.Opposite())
		if err != nil {
			return fmt.Errorf("matching: next resting order: %w", err)
		}
		if !ok {
			break
		}

		matchQty := core.Min(mo.Quantity, resting.Quantity)
		tradePrice := resting.Price

		mo = mo.SubQuantity(matchQty)
		resting = resting.SubQuantity(matchQty)
		matched = true

		if resting.IsFilled() {
			if err := e.limitOrders.DeleteByOrderID(tx, resting.Side, resting.ID); err != nil {
				return fmt.Errorf("matching: delete filled resting order: %w", err)
			}
			out.append(Filled{TakerOrderID: mo.ID, MakerOrderID: resting.ID, Price: tradePrice, Quantity: matchQty, Timestamp: at})
		} else {
			if err := e.limitOrders.Update(tx, resting); err != nil {
				return fmt.Errorf("matching: update partially filled resting order: %w", err)
			}
			out.append(PartiallyFilled{TakerOrderID: mo.ID, MakerOrderID: resting.ID, Price: tradePrice, Quantity: matchQty, Timestamp: at})
		}

		if err := e.recordTrade(tx, out, tradePrice, at); err != nil {
			return err
		}
	}

	if !matched {
		out.append(NoMatch{OrderID: mo.ID})
	}
	return nil
}
