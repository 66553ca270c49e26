package memory

import (
	"fmt"

	"github.com/tidwall/btree"

	"matchcore/internal/core"
	"matchcore/internal/order"
	"matchcore/internal/repository"
)

func ascendingByStopPrice(a, b *stopLevel) bool  { return a.price.LessThan(b.price) }
func descendingByStopPrice(a, b *stopLevel) bool { return a.price.GreaterThan(b.price) }

// stopLevel groups every pending stop/stop-limit order sharing a trigger
// price, in the order they were placed.
type stopLevel struct {
	price  core.Price
	orders []order.PendingStopOrder
}

type stopLocation struct {
	level *stopLevel
	index int
}

// stopPool is one of the two pending-stop-order pools (high or low). crossed
// reports whether a level's trigger price has been reached by the current
// market price; the high pool's levels are crossed once the price rises to
// meet them, the low pool's once it falls to meet them.
type stopPool struct {
	levels  *btree.BTreeG[*stopLevel]
	byID    map[core.OrderID]stopLocation
	crossed func(levelPrice, marketPrice core.Price) bool
}

func newStopPool(less func(a, b *stopLevel) bool, crossed func(levelPrice, marketPrice core.Price) bool) *stopPool {
	return &stopPool{
		levels:  btree.NewBTreeG(less),
		byID:    make(map[core.OrderID]stopLocation),
		crossed: crossed,
	}
}

// highPoolCrossed reports whether the market price has risen to meet or
// pass a high-pool level's trigger price.
func highPoolCrossed(levelPrice, marketPrice core.Price) bool {
	return levelPrice.LessOrEqual(marketPrice)
}

// lowPoolCrossed reports whether the market price has fallen to meet or
// pass a low-pool level's trigger price.
func lowPoolCrossed(levelPrice, marketPrice core.Price) bool {
	return levelPrice.GreaterOrEqual(marketPrice)
}

func (p *stopPool) create(pso order.PendingStopOrder) {
	price := pso.TriggerPrice()
	level, ok := p.levels.GetMut(&stopLevel{price: price})
	if !ok {
		level = &stopLevel{price: price}
		p.levels.Set(level)
	}
	level.orders = append(level.orders, pso)
	p.byID[pso.StopID()] = stopLocation{level: level, index: len(level.orders) - 1}
	p.reindex(level)
}

func (p *stopPool) reindex(level *stopLevel) {
	for i, o := range level.orders {
		p.byID[o.StopID()] = stopLocation{level: level, index: i}
	}
}

func (p *stopPool) getByID(id core.OrderID) (order.PendingStopOrder, bool) {
	loc, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	return loc.level.orders[loc.index], true
}

func (p *stopPool) deleteByID(id core.OrderID) {
	loc, ok := p.byID[id]
	if !ok {
		return
	}
	delete(p.byID, id)
	level := loc.level
	level.orders = append(level.orders[:loc.index], level.orders[loc.index+1:]...)
	if len(level.orders) == 0 {
		p.levels.Delete(level)
		return
	}
	p.reindex(level)
}

// triggeredBy scans levels whose trigger price is crossed by marketPrice,
// in priority order, returning up to batchSize orders.
func (p *stopPool) triggeredBy(marketPrice core.Price, batchSize int) []order.PendingStopOrder {
	var result []order.PendingStopOrder
	p.levels.Scan(func(level *stopLevel) bool {
		if !p.crossed(level.price, marketPrice) {
			return false
		}
		for _, o := range level.orders {
			result = append(result, o)
			if len(result) >= batchSize {
				return false
			}
		}
		return true
	})
	return result
}

// PendingStopOrderRepository adapts a Store's high and low pools to
// repository.PendingStopOrderRepository.
type PendingStopOrderRepository struct {
	store *Store
}

func (r *PendingStopOrderRepository) poolFor(pool repository.StopPool) *stopPool {
	if pool == repository.HighPool {
		return r.store.highStops
	}
	return r.store.lowStops
}

func (r *PendingStopOrderRepository) Create(tx repository.Transaction, pool repository.StopPool, o order.PendingStopOrder) error {
	t, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	p := r.poolFor(pool)
	p.create(o)
	t.recordUndo(func() { p.deleteByID(o.StopID()) })
	return nil
}

func (r *PendingStopOrderRepository) Update(tx repository.Transaction, pool repository.StopPool, o order.PendingStopOrder) error {
	t, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	p := r.poolFor(pool)
	previous, ok := p.getByID(o.StopID())
	if !ok {
		return fmt.Errorf("memory: pending stop order %s not in %s pool", o.StopID(), pool)
	}
	p.deleteByID(o.StopID())
	p.create(o)
	t.recordUndo(func() {
		p.deleteByID(o.StopID())
		p.create(previous)
	})
	return nil
}

func (r *PendingStopOrderRepository) Delete(tx repository.Transaction, pool repository.StopPool, o order.PendingStopOrder) error {
	return r.DeleteByOrderID(tx, pool, o.StopID())
}

func (r *PendingStopOrderRepository) DeleteByOrderID(tx repository.Transaction, pool repository.StopPool, id core.OrderID) error {
	t, err := asTx(tx, r.store)
	if err != nil {
		return err
	}
	p := r.poolFor(pool)
	previous, existed := p.getByID(id)
	p.deleteByID(id)
	if existed {
		t.recordUndo(func() { p.create(previous) })
	}
	return nil
}

func (r *PendingStopOrderRepository) GetByOrderID(tx repository.Transaction, pool repository.StopPool, id core.OrderID) (order.PendingStopOrder, bool, error) {
	if _, err := asTx(tx, r.store); err != nil {
		return nil, false, err
	}
	o, ok := r.poolFor(pool).getByID(id)
	return o, ok, nil
}

func (r *PendingStopOrderRepository) GetListByMarketPrice(tx repository.Transaction, pool repository.StopPool, marketPrice core.Price, batchSize int) ([]order.PendingStopOrder, error) {
	if _, err := asTx(tx, r.store); err != nil {
		return nil, err
	}
	return r.poolFor(pool).triggeredBy(marketPrice, batchSize), nil
}
