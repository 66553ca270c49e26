package core

import (
	"github.com/shopspring/decimal"
)

// Price is a quote-currency amount per unit of base currency. It wraps
// decimal.Decimal instead of float64 so comparisons and arithmetic never
// drift from rounding error, and so equality respects scale the way
// "1.50" and "1.5" are the same price.
type Price struct{ d decimal.Decimal }

// NewPrice builds a Price from a decimal string, e.g. "101.25".
func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	return Price{d: d}, nil
}

// MustPrice is NewPrice for callers (tests, demo scripts) that already know
// the string is well formed.
func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Price) Cmp(other Price) int       { return p.d.Cmp(other.d) }
func (p Price) Equal(other Price) bool    { return p.d.Equal(other.d) }
func (p Price) GreaterThan(o Price) bool  { return p.d.GreaterThan(o.d) }
func (p Price) LessThan(o Price) bool     { return p.d.LessThan(o.d) }
func (p Price) GreaterOrEqual(o Price) bool {
	return p.d.GreaterThanOrEqual(o.d)
}
func (p Price) LessOrEqual(o Price) bool { return p.d.LessThanOrEqual(o.d) }
func (p Price) String() string           { return p.d.String() }
func (p Price) IsZero() bool             { return p.d.IsZero() }
func (p Price) Decimal() decimal.Decimal { return p.d }

// Quantity is a base-currency amount. Matching consumes Quantity from both
// sides of a trade by the same matched amount, so it exposes the arithmetic
// the engine actually needs (Sub, Min, IsZero) rather than the full decimal
// surface.
type Quantity struct{ d decimal.Decimal }

func NewQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, err
	}
	if d.IsNegative() {
		return Quantity{}, ErrNegativeQuantity
	}
	return Quantity{d: d}, nil
}

func MustQuantity(s string) Quantity {
	q, err := NewQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func ZeroQuantity() Quantity { return Quantity{d: decimal.Zero} }

func (q Quantity) Cmp(other Quantity) int    { return q.d.Cmp(other.d) }
func (q Quantity) Equal(other Quantity) bool { return q.d.Equal(other.d) }
func (q Quantity) IsZero() bool              { return q.d.IsZero() }
func (q Quantity) GreaterThan(o Quantity) bool {
	return q.d.GreaterThan(o.d)
}
func (q Quantity) String() string           { return q.d.String() }
func (q Quantity) Decimal() decimal.Decimal { return q.d }

// Sub returns q-other. The caller (the matching engine) is responsible for
// never subtracting more than q holds; Min below exists precisely to make
// that safe.
func (q Quantity) Sub(other Quantity) Quantity {
	return Quantity{d: q.d.Sub(other.d)}
}

func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{d: q.d.Add(other.d)}
}

// Min returns whichever of q, other is smaller — the quantity a single
// match between two orders can consume.
func Min(a, b Quantity) Quantity {
	if a.d.LessThanOrEqual(b.d) {
		return a
	}
	return b
}
