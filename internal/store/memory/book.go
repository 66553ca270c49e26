package memory

import (
	"fmt"

	"github.com/tidwall/btree"

	"matchcore/internal/core"
	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// priceLevel holds every resting order at one price, in FIFO arrival order —
// the in-memory analogue of the bidPriceIndex/askPriceIndex tables described
// in SPEC_FULL.md §6. Adapted from a production order book's price-level
// btree: a single ordered tree of levels, each level a plain append-only
// slice of order pointers.
type priceLevel struct {
	price  core.Price
	orders []*order.LimitOrder
}

func ascendingByPrice(a, b *priceLevel) bool  { return a.price.LessThan(b.price) }
func descendingByPrice(a, b *priceLevel) bool { return a.price.GreaterThan(b.price) }

type orderLocation struct {
	level *priceLevel
	order *order.LimitOrder
}

// book is one side (bid or ask) of the limit order book.
type book struct {
	levels *btree.BTreeG[*priceLevel]
	byID   map[core.OrderID]orderLocation
}

func newBook(less func(a, b *priceLevel) bool) *book {
	return &book{
		levels: btree.NewBTreeG(less),
		byID:   make(map[core.OrderID]orderLocation),
	}
}

// best returns the first (highest-priority) order at the best price level,
// without removing it.
func (b *book) best() (order.LimitOrder, bool) {
	level, ok := b.levels.Min()
	if !ok || len(level.orders) == 0 {
		return order.LimitOrder{}, false
	}
	return *level.orders[0], true
}

func (b *book) getByID(id core.OrderID) (order.LimitOrder, bool) {
	loc, ok := b.byID[id]
	if !ok {
		return order.LimitOrder{}, false
	}
	return *loc.order, true
}

// create appends o to the tail of its price level, creating the level if
// this is the first order at that price.
func (b *book) create(o order.LimitOrder) {
	stored := o
	level, ok := b.levels.GetMut(&priceLevel{price: o.Price})
	if ok {
		level.orders = append(level.orders, &stored)
	} else {
		level = &priceLevel{price: o.Price, orders: []*order.LimitOrder{&stored}}
		b.levels.Set(level)
	}
	b.byID[o.ID] = orderLocation{level: level, order: &stored}
}

// update mutates an already-resting order in place, preserving its queue
// position. It is only ever called with the order's price unchanged — a
// price change goes through delete+create (see matching.processAmend).
func (b *book) update(o order.LimitOrder) error {
	loc, ok := b.byID[o.ID]
	if !ok {
		return fmt.Errorf("memory: order %s not resting", o.ID)
	}
	if !loc.level.price.Equal(o.Price) {
		return fmt.Errorf("memory: update must not change price for order %s; use delete+create", o.ID)
	}
	*loc.order = o
	return nil
}

// deleteByID removes an order from its level, and removes the level itself
// once it is left empty. Deleting an ID that is not present is a no-op.
func (b *book) deleteByID(id core.OrderID) {
	loc, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)

	orders := loc.level.orders
	for i, o := range orders {
		if o == loc.order {
			loc.level.orders = append(orders[:i], orders[i+1:]...)
			break
		}
	}
	if len(loc.level.orders) == 0 {
		b.levels.Delete(loc.level)
	}
}

// LimitOrderRepository adapts a Store's bid and ask books to
// repository.LimitOrderRepository.
type LimitOrderRepository struct {
	store *Store
}

func (r *LimitOrderRepository) bookFor(side core.Side) *book {
	if side == core.Buy {
		return r.store.bids
	}
	return r.store.asks
}

func (r *LimitOrderRepository) Create(tx repository.Transaction, o order.LimitOrder) error {
	t, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	b := r.bookFor(o.Side)
	b.create(o)
	t.recordUndo(func() { b.deleteByID(o.ID) })
	return nil
}

func (r *LimitOrderRepository) Update(tx repository.Transaction, o order.LimitOrder) error {
	t, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	b := r.bookFor(o.Side)
	previous, ok := b.getByID(o.ID)
	if !ok {
		return fmt.Errorf("memory: order %s not resting", o.ID)
	}
	if err := b.update(o); err != nil {
		return err
	}
	t.recordUndo(func() { _ = b.update(previous) })
	return nil
}

func (r *LimitOrderRepository) DeleteByOrderID(tx repository.Transaction, side core.Side, id core.OrderID) error {
	t, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	b := r.bookFor(side)
	previous, existed := b.getByID(id)
	b.deleteByID(id)
	if existed {
		t.recordUndo(func() { b.create(previous) })
	}
	return nil
}

func (r *LimitOrderRepository) GetByOrderID(tx repository.Transaction, side core.Side, id core.OrderID) (order.LimitOrder, bool, error) {
	if _, err := asTx(tx, r.store); err != nil {
		return order.LimitOrder{}, false, err
	}
	o, ok := r.bookFor(side).getByID(id)
	return o, ok, nil
}

func (r *LimitOrderRepository) Next(tx repository.Transaction, side core.Side) (order.LimitOrder, bool, error) {
	if _, err := asTx(tx, r.store); err != nil {
		return order.LimitOrder{}, false, err
	}
	o, ok := r.bookFor(side).best()
	return o, ok, nil
}
