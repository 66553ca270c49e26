package memory

import (
	"matchcore/internal/core"
	"matchcore/internal/repository"
)

// priceCell holds the single last-traded price for the asset pair. It is
// unset until the first trade occurs — Get then reports ok=false, which is
// how MissingMarketPriceForStopOrder gets triggered for the very first stop
// order placed against a fresh book.
type priceCell struct {
	price core.Price
	set   bool
}

// MarketPriceRepository adapts a Store's priceCell to
// repository.MarketPriceRepository.
type MarketPriceRepository struct {
	store *Store
}

func (r *MarketPriceRepository) Get(tx repository.Transaction) (core.Price, bool, error) {
	if _, err := asTx(tx, r.store); err != nil {
		return core.Price{}, false, err
	}
	r.store.marketPriceMu.RLock()
	defer r.store.marketPriceMu.RUnlock()
	c := r.store.marketPrice
	return c.price, c.set, nil
}

func (r *MarketPriceRepository) Update(tx repository.Transaction, price core.Price) error {
	t, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	r.store.marketPriceMu.Lock()
	previous := *r.store.marketPrice
	r.store.marketPrice.price = price
	r.store.marketPrice.set = true
	r.store.marketPriceMu.Unlock()

	t.recordUndo(func() {
		r.store.marketPriceMu.Lock()
		*r.store.marketPrice = previous
		r.store.marketPriceMu.Unlock()
	})
	return nil
}
