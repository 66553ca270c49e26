package order

import "matchcore/internal/core"

// Request is the closed sum of everything a caller can ask the engine to
// do: place a market, limit, stop, or stop-limit order, amend a resting
// limit order, or cancel one. Dispatch is a type switch in the engine, not
// virtual behavior on the Request itself.
type Request interface {
	isOrderRequest()
}

type MarketOrderRequest struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
}

func (MarketOrderRequest) isOrderRequest() {}

func NewMarketRequest(id core.OrderID, pair core.AssetPair, side core.Side, qty core.Quantity, tif core.TimeInForce) MarketOrderRequest {
	return MarketOrderRequest{ID: id, AssetPair: pair, Side: side, Quantity: qty, TimeInForce: tif}
}

type LimitOrderRequest struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	Price       core.Price
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
}

func (LimitOrderRequest) isOrderRequest() {}

func NewLimitRequest(id core.OrderID, pair core.AssetPair, side core.Side, price core.Price, qty core.Quantity, tif core.TimeInForce) LimitOrderRequest {
	return LimitOrderRequest{ID: id, AssetPair: pair, Side: side, Price: price, Quantity: qty, TimeInForce: tif}
}

type StopOrderRequest struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	StopPrice   core.Price
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
}

func (StopOrderRequest) isOrderRequest() {}

func NewStopRequest(id core.OrderID, pair core.AssetPair, side core.Side, stopPrice core.Price, qty core.Quantity, tif core.TimeInForce) StopOrderRequest {
	return StopOrderRequest{ID: id, AssetPair: pair, Side: side, StopPrice: stopPrice, Quantity: qty, TimeInForce: tif}
}

type StopLimitOrderRequest struct {
	ID          core.OrderID
	AssetPair   core.AssetPair
	Side        core.Side
	StopPrice   core.Price
	LimitPrice  core.Price
	Quantity    core.Quantity
	TimeInForce core.TimeInForce
}

func (StopLimitOrderRequest) isOrderRequest() {}

func NewStopLimitRequest(id core.OrderID, pair core.AssetPair, side core.Side, stopPrice, limitPrice core.Price, qty core.Quantity, tif core.TimeInForce) StopLimitOrderRequest {
	return StopLimitOrderRequest{ID: id, AssetPair: pair, Side: side, StopPrice: stopPrice, LimitPrice: limitPrice, Quantity: qty, TimeInForce: tif}
}

// AmendOrderRequest changes a resting limit order's price and/or quantity.
// ID is the instruction's own identifier; TargetID and TargetOrderType name
// the order it acts on, which need not share ID — a caller may reuse one
// instruction id across several amends of different orders. TargetOrderType
// can never be MarketOrderType, since a market order never rests to be
// amended; Process asserts this and treats a violation as a programmer
// error, not a domain failure. Queue position at the target's price level
// survives the amend only if NewPrice equals the order's current price; any
// price change sends it to the tail of the new level.
type AmendOrderRequest struct {
	ID              core.OrderID
	AssetPair       core.AssetPair
	TargetID        core.OrderID
	TargetOrderType core.OrderType
	Side            core.Side
	NewPrice        core.Price
	NewQuantity     core.Quantity
}

func (AmendOrderRequest) isOrderRequest() {}

func NewAmendRequest(id core.OrderID, pair core.AssetPair, targetID core.OrderID, targetType core.OrderType, side core.Side, newPrice core.Price, newQty core.Quantity) AmendOrderRequest {
	return AmendOrderRequest{ID: id, AssetPair: pair, TargetID: targetID, TargetOrderType: targetType, Side: side, NewPrice: newPrice, NewQuantity: newQty}
}

// CancelOrderRequest removes a resting limit order or a pending stop order
// from the book/pool entirely. Like AmendOrderRequest, ID is the
// instruction's own identifier and TargetID/TargetOrderType name the order
// being cancelled; TargetOrderType can never be MarketOrderType.
type CancelOrderRequest struct {
	ID              core.OrderID
	AssetPair       core.AssetPair
	TargetID        core.OrderID
	TargetOrderType core.OrderType
	Side            core.Side
}

func (CancelOrderRequest) isOrderRequest() {}

func NewCancelRequest(id core.OrderID, pair core.AssetPair, targetID core.OrderID, targetType core.OrderType, side core.Side) CancelOrderRequest {
	return CancelOrderRequest{ID: id, AssetPair: pair, TargetID: targetID, TargetOrderType: targetType, Side: side}
}
