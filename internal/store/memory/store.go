// Package memory is the reference in-memory backend for the repository
// contracts in matchcore/internal/repository. It is not meant to be the
// production persistence layer for any real venue — it exists so the
// matching engine is runnable and testable without picking a real database,
// exactly as SPEC_FULL.md's repository contracts intend.
package memory

import "sync"

// Store holds one asset pair's entire book state: the bid and ask limit
// order books, the high and low pending stop order pools, and the last
// traded market price. A Store is safe for concurrent use — Begin blocks
// until any other open transaction commits or aborts, giving the
// single-writer semantics the matching engine's concurrency model assumes.
type Store struct {
	writer sync.Mutex

	bids *book
	asks *book

	highStops *stopPool
	lowStops  *stopPool

	marketPriceMu sync.RWMutex
	marketPrice   *priceCell
}

func New() *Store {
	return &Store{
		bids:      newBook(descendingByPrice),
		asks:      newBook(ascendingByPrice),
		highStops: newStopPool(ascendingByStopPrice, highPoolCrossed),
		lowStops:  newStopPool(descendingByStopPrice, lowPoolCrossed),
		marketPrice: &priceCell{},
	}
}

// Begin opens a new transaction, blocking until the previous one (if any)
// has committed or aborted.
func (s *Store) Begin() *Tx {
	s.writer.Lock()
	return newTx(s)
}

// LimitOrders returns a repository.LimitOrderRepository backed by this store.
func (s *Store) LimitOrders() *LimitOrderRepository {
	return &LimitOrderRepository{store: s}
}

// PendingStopOrders returns a repository.PendingStopOrderRepository backed
// by this store.
func (s *Store) PendingStopOrders() *PendingStopOrderRepository {
	return &PendingStopOrderRepository{store: s}
}

// MarketPrice returns a repository.MarketPriceRepository backed by this
// store.
func (s *Store) MarketPrice() *MarketPriceRepository {
	return &MarketPriceRepository{store: s}
}
