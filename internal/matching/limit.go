package matching

import (
	"fmt"
	"time"

	"matchcore/internal/core"
	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// processLimitOrder matches lo against the opposite side while prices
// cross, then rests whatever quantity remains at lo.Price. Like
// processMarketOrder, it never pushes Accepted itself — see that function's
// doc comment.
func (e *Engine) processLimitOrder(tx repository.Transaction, out *Output, lo order.LimitOrder, at time.Time) error {
	for !lo.IsFilled() {
		resting, ok, err := e.limitOrders.Next(tx, lo.Side.Opposite())
		if err != nil {
			return fmt.Errorf("matching: next resting order: %w", err)
		}
		if !ok || !priceCrosses(lo.Side, lo.Price, resting.Price) {
			break
		}

		matchQty := core.Min(lo.Quantity, resting.Quantity)
		tradePrice := resting.Price

		lo = lo.SubQuantity(matchQty)
		resting = resting.SubQuantity(matchQty)

		if resting.IsFilled() {
			if err := e.limitOrders.DeleteByOrderID(tx, resting.Side, resting.ID); err != nil {
				return fmt.Errorf("matching: delete filled resting order: %w", err)
			}
			out.append(Filled{TakerOrderID: lo.ID, MakerOrderID: resting.ID, Price: tradePrice, Quantity: matchQty, Timestamp: at})
		} else {
			if err := e.limitOrders.Update(tx, resting); err != nil {
				return fmt.Errorf("matching: update partially filled resting order: %w", err)
			}
			out.append(PartiallyFilled{TakerOrderID: lo.ID, MakerOrderID: resting.ID, Price: tradePrice, Quantity: matchQty, Timestamp: at})
		}

		if err := e.recordTrade(tx, out, tradePrice, at); err != nil {
			return err
		}
	}

	if !lo.IsFilled() {
		if err := e.limitOrders.Create(tx, lo); err != nil {
			return fmt.Errorf("matching: rest unfilled limit order: %w", err)
		}
	}
	return nil
}
