package core

// Side is which side of the book an order rests on or takes from.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side, used throughout matching to find the
// book a taker sweeps against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// TimeInForce is carried on every order but, per the core's scope, is never
// enforced by the matching logic itself (see the Open Questions in
// SPEC_FULL.md) — it is a pass-through tag for whatever layer sits above
// the core.
type TimeInForce int

const (
	GoodTilCancelled TimeInForce = iota
	ImmediateOrCancel
	FillOrKill
)

func (t TimeInForce) String() string {
	switch t {
	case ImmediateOrCancel:
		return "IOC"
	case FillOrKill:
		return "FOK"
	default:
		return "GTC"
	}
}

// OrderType names which of the four order kinds a request or an amend/cancel
// target refers to. A Market order never rests, so it can never be the
// target of an amend or cancel — Process asserts TargetOrderType is never
// MarketOrderType for those requests.
type OrderType int

const (
	MarketOrderType OrderType = iota
	LimitOrderType
	StopOrderType
	StopLimitOrderType
)

func (t OrderType) String() string {
	switch t {
	case LimitOrderType:
		return "limit"
	case StopOrderType:
		return "stop"
	case StopLimitOrderType:
		return "stop_limit"
	default:
		return "market"
	}
}

// TrailingDelta is a basis-point offset value type, carried forward from the
// original implementation's trailing-stop support. No operation in this
// core reads or writes a TrailingDelta; it exists only so a future trailing
// stop order type has a ready-made value type to attach to.
type TrailingDelta struct {
	BasisPoints uint32
}
