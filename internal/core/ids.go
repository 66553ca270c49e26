package core

import (
	"bytes"

	"github.com/google/uuid"
)

// OrderID uniquely identifies an order for the lifetime of the book. It is
// backed by a UUID so it is comparable (usable as a map key) without the
// engine needing to know anything about how identifiers are minted.
type OrderID uuid.UUID

// NewOrderID mints a fresh, randomly generated order identifier.
func NewOrderID() OrderID {
	return OrderID(uuid.New())
}

func (id OrderID) String() string {
	return uuid.UUID(id).String()
}

// Compare gives a total, if arbitrary, order over identifiers. The engine
// never depends on this ordering for matching decisions; it exists only so
// reference backends can use OrderID as a secondary sort key in debug output.
func (id OrderID) Compare(other OrderID) int {
	return bytes.Compare(id[:], other[:])
}

// Asset names one leg of a trading pair, e.g. "BTC" or "USD".
type Asset string

// AssetPair identifies the single market an engine instance is responsible
// for. The core never routes across pairs; a separate AssetPair means a
// separate Engine and a separate set of repositories.
type AssetPair struct {
	Base  Asset
	Quote Asset
}

func (p AssetPair) String() string {
	return string(p.Base) + "/" + string(p.Quote)
}
