// Command demo walks a freshly built matching engine through a scripted
// sequence of order requests and prints the resulting events. It exists to
// exercise the engine by hand; unlike the wire client/server this project
// used to ship, it never touches the network — order ingress and
// serialization of the event log are out of scope for the core.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"matchcore/internal/core"
	"matchcore/internal/matching"
	"matchcore/internal/order"
	"matchcore/internal/sequencer"
	"matchcore/internal/store/memory"
)

func main() {
	base := flag.String("base", "BTC", "base asset of the pair to simulate")
	quote := flag.String("quote", "USD", "quote asset of the pair to simulate")
	verbose := flag.Bool("verbose", false, "log debug-level engine activity")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(level).
		With().Timestamp().Logger()

	pair := core.AssetPair{Base: core.Asset(*base), Quote: core.Asset(*quote)}
	store := memory.New()
	engine := matching.New(pair, store.LimitOrders(), store.PendingStopOrders(), store.MarketPrice(), matching.WithLogger(logger))

	seq := sequencer.New(engine, sequencer.WithLogger(logger))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	seq.Start(ctx)
	defer func() {
		if err := seq.Stop(); err != nil {
			logger.Error().Err(err).Msg("sequencer stop")
		}
	}()

	tx := store.Begin()
	defer tx.Commit()

	logger.Info().Str("pair", pair.String()).Msg("starting scripted walkthrough")

	for _, req := range script(pair) {
		out, err := seq.Submit(tx, nil, req)
		if err != nil {
			logger.Error().Err(err).Msg("request failed")
			continue
		}
		printOutput(logger, req, out)
	}
}

// script builds a fixed sequence of requests: a resting ask, a resting bid
// below it, a crossing limit buy that fills the ask, a market sell that
// takes the remaining bid liquidity, a stop order that triggers
// immediately because it was placed behind the current market price, and
// finally a cancel of an order that was never placed (to show NoMatch/
// OrderNotFound failures alongside the successful path).
func script(pair core.AssetPair) []order.Request {
	askID := core.NewOrderID()
	bidID := core.NewOrderID()
	takerID := core.NewOrderID()
	sweepID := core.NewOrderID()
	stopID := core.NewOrderID()
	cancelID := core.NewOrderID()
	ghostID := core.NewOrderID()

	return []order.Request{
		order.NewLimitRequest(askID, pair, core.Sell, core.MustPrice("101.00"), core.MustQuantity("5"), core.GoodTilCancelled),
		order.NewLimitRequest(bidID, pair, core.Buy, core.MustPrice("99.00"), core.MustQuantity("5"), core.GoodTilCancelled),
		order.NewLimitRequest(takerID, pair, core.Buy, core.MustPrice("101.00"), core.MustQuantity("5"), core.GoodTilCancelled),
		order.NewMarketRequest(sweepID, pair, core.Sell, core.MustQuantity("5"), core.GoodTilCancelled),
		order.NewStopRequest(stopID, pair, core.Buy, core.MustPrice("90.00"), core.MustQuantity("1"), core.GoodTilCancelled),
		order.NewCancelRequest(cancelID, pair, ghostID, core.LimitOrderType, core.Buy),
	}
}

func printOutput(logger zerolog.Logger, req order.Request, out *matching.Output) {
	for _, evt := range out.Events {
		entry := logger.Info()
		if evt.Failed() {
			entry = logger.Warn()
		}
		entry.
			Str("requestType", fmt.Sprintf("%T", req)).
			Str("marketPrice", out.MarketPrice.String()).
			Str("event", fmt.Sprintf("%+v", evt)).
			Msg("event")
	}
}
