// Package matching implements the price-time priority matching algorithm
// itself: order acceptance, recursive market/limit matching, and the
// stop/stop-limit trigger mechanism. It holds no state of its own — every
// mutation goes through the repository contracts in matchcore/internal/repository
// — so the same Engine works unmodified against any conforming backend.
package matching

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"matchcore/internal/core"
	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// triggerBatchSize bounds how many pending stop orders handlePriceChange
// pulls per pool on a single pass, so one price move cannot hold a
// transaction open scanning an unbounded queue.
const triggerBatchSize = 100

// Engine is the matching core for a single asset pair. It is not safe for
// concurrent use by multiple goroutines without external serialization —
// see matchcore/internal/sequencer — but a single goroutine may call Process
// directly with no locking of its own.
type Engine struct {
	Pair core.AssetPair

	limitOrders       repository.LimitOrderRepository
	pendingStopOrders repository.PendingStopOrderRepository
	marketPrice       repository.MarketPriceRepository

	log zerolog.Logger
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger attaches a structured logger. Without it the engine logs
// nothing (zerolog.Nop()), so embedding it in another service never forces
// that service's log format.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

func New(
	pair core.AssetPair,
	limitOrders repository.LimitOrderRepository,
	pendingStopOrders repository.PendingStopOrderRepository,
	marketPrice repository.MarketPriceRepository,
	opts ...Option,
) *Engine {
	e := &Engine{
		Pair:              pair,
		limitOrders:       limitOrders,
		pendingStopOrders: pendingStopOrders,
		marketPrice:       marketPrice,
		log:               zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process dispatches a single order request against the book. override, if
// non-nil, is the initial Output.MarketPrice for this call in place of the
// repository's stored price. Stop placement and the stop-trigger scan read
// the market price from the repository, not from override, and once
// dispatch finishes Output.MarketPrice is replaced by the repository's
// price whenever one is stored.
//
// Every request must name this Engine's own asset pair, and an amend or
// cancel may never target a market order (it never rests to be acted on);
// either violation is a programmer error, reported as a wrapped sentinel
// rather than a domain failure Event.
func (e *Engine) Process(tx repository.Transaction, override *core.Price, req order.Request) (*Output, error) {
	if pair, ok := requestAssetPair(req); ok && pair != e.Pair {
		return nil, fmt.Errorf("%w: request pair %s, engine pair %s", ErrAssetPairMismatch, pair, e.Pair)
	}
	if targetType, ok := requestTargetOrderType(req); ok && targetType == core.MarketOrderType {
		return nil, fmt.Errorf("%w", ErrInvalidAmendCancelTarget)
	}

	now := time.Now()
	out := &Output{}

	if override != nil {
		out.MarketPrice = *override
	} else if mp, ok, err := e.marketPrice.Get(tx); err != nil {
		return nil, fmt.Errorf("matching: read market price: %w", err)
	} else if ok {
		out.MarketPrice = mp
	}

	var err error
	switch r := req.(type) {
	case order.MarketOrderRequest:
		out.append(Accepted{OrderID: r.ID, Timestamp: now})
		err = e.processMarketOrder(tx, out, order.MarketOrder{
			ID:          r.ID,
			AssetPair:   r.AssetPair,
			Side:        r.Side,
			Quantity:    r.Quantity,
			TimeInForce: r.TimeInForce,
			Timestamp:   now,
		}, now)
	case order.LimitOrderRequest:
		out.append(Accepted{OrderID: r.ID, Timestamp: now})
		err = e.processLimitOrder(tx, out, order.LimitOrder{
			ID:          r.ID,
			AssetPair:   r.AssetPair,
			Side:        r.Side,
			Price:       r.Price,
			Quantity:    r.Quantity,
			TimeInForce: r.TimeInForce,
			Timestamp:   now,
		}, now)
	case order.StopOrderRequest:
		err = e.processStopOrderRequest(tx, out, r, now)
	case order.StopLimitOrderRequest:
		err = e.processStopLimitOrderRequest(tx, out, r, now)
	case order.AmendOrderRequest:
		err = e.processAmend(tx, out, r, now)
	case order.CancelOrderRequest:
		err = e.processCancel(tx, out, r, now)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownRequestType, req)
	}
	if err != nil {
		e.log.Error().Err(err).Str("pair", e.Pair.String()).Msg("order processing failed")
		return nil, err
	}

	if mp, ok, err := e.marketPrice.Get(tx); err != nil {
		return nil, fmt.Errorf("matching: read market price: %w", err)
	} else if ok {
		out.MarketPrice = mp
	}

	e.log.Debug().
		Str("pair", e.Pair.String()).
		Int("events", len(out.Events)).
		Msg("order processed")
	return out, nil
}

// requestAssetPair extracts the asset pair a request names, for the
// cross-pair assertion at the top of Process.
func requestAssetPair(req order.Request) (core.AssetPair, bool) {
	switch r := req.(type) {
	case order.MarketOrderRequest:
		return r.AssetPair, true
	case order.LimitOrderRequest:
		return r.AssetPair, true
	case order.StopOrderRequest:
		return r.AssetPair, true
	case order.StopLimitOrderRequest:
		return r.AssetPair, true
	case order.AmendOrderRequest:
		return r.AssetPair, true
	case order.CancelOrderRequest:
		return r.AssetPair, true
	default:
		return core.AssetPair{}, false
	}
}

// requestTargetOrderType extracts the target type named by an amend or
// cancel request, for the market-order-target assertion at the top of
// Process.
func requestTargetOrderType(req order.Request) (core.OrderType, bool) {
	switch r := req.(type) {
	case order.AmendOrderRequest:
		return r.TargetOrderType, true
	case order.CancelOrderRequest:
		return r.TargetOrderType, true
	default:
		return 0, false
	}
}

// recordTrade persists the price a trade just occurred at and runs the
// stop-trigger cascade against it, per the price-change handler in
// SPEC_FULL.md §4.
func (e *Engine) recordTrade(tx repository.Transaction, out *Output, price core.Price, at time.Time) error {
	return e.handlePriceChange(tx, out, price, at)
}

func priceCrosses(side core.Side, limitPrice, restingPrice core.Price) bool {
	if side == core.Buy {
		return limitPrice.GreaterOrEqual(restingPrice)
	}
	return limitPrice.LessOrEqual(restingPrice)
}
