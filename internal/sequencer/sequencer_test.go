package sequencer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcore/internal/core"
	"matchcore/internal/matching"
	"matchcore/internal/order"
	"matchcore/internal/sequencer"
	"matchcore/internal/store/memory"
)

func TestSubmitSerializesConcurrentCallers(t *testing.T) {
	store := memory.New()
	pair := core.AssetPair{Base: "BTC", Quote: "USD"}
	engine := matching.New(pair, store.LimitOrders(), store.PendingStopOrders(), store.MarketPrice())
	seq := sequencer.New(engine, sequencer.WithQueueSize(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seq.Start(ctx)
	defer func() { require.NoError(t, seq.Stop()) }()

	tx := store.Begin()
	defer tx.Commit()

	const n = 20
	ids := make([]core.OrderID, n)
	for i := range ids {
		ids[i] = core.NewOrderID()
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := seq.Submit(tx, nil, order.NewLimitRequest(ids[i], pair, core.Buy, core.MustPrice("100"), core.MustQuantity("1"), core.GoodTilCancelled))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		_, ok, err := store.LimitOrders().GetByOrderID(tx, core.Buy, id)
		require.NoError(t, err)
		assert.True(t, ok, "every concurrently submitted order must have reached the book exactly once")
	}
}

func TestSubmitReturnsErrStoppedAfterStop(t *testing.T) {
	store := memory.New()
	pair := core.AssetPair{Base: "BTC", Quote: "USD"}
	engine := matching.New(pair, store.LimitOrders(), store.PendingStopOrders(), store.MarketPrice())
	seq := sequencer.New(engine)

	ctx := context.Background()
	seq.Start(ctx)
	require.NoError(t, seq.Stop())

	tx := store.Begin()
	defer tx.Commit()

	done := make(chan struct{})
	go func() {
		defer close(done)
		target := core.NewOrderID()
		_, err := seq.Submit(tx, nil, order.NewCancelRequest(core.NewOrderID(), pair, target, core.LimitOrderType, core.Buy))
		assert.ErrorIs(t, err, sequencer.ErrStopped)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit did not return after the sequencer stopped")
	}
}
