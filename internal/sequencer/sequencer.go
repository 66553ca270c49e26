// Package sequencer serializes concurrent callers onto a single goroutine
// that owns the matching engine, the way SPEC_FULL.md §5 requires ("callers
// must serialize access" — the engine itself opens no transactions and
// holds no lock). It follows the tomb-managed worker-loop pattern, used here
// to fan many goroutines' requests into one ordered stream instead of
// fanning one listener out to many workers.
package sequencer

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/core"
	"matchcore/internal/matching"
	"matchcore/internal/order"
	"matchcore/internal/repository"
)

// ErrStopped is returned by Submit once the sequencer has been told to stop
// and is no longer accepting new calls.
var ErrStopped = errors.New("sequencer: stopped")

const defaultQueueSize = 64

type call struct {
	tx       repository.Transaction
	override *core.Price
	request  order.Request
	result   chan callResult
}

type callResult struct {
	out *matching.Output
	err error
}

// Sequencer owns one matching.Engine and feeds it one request at a time,
// regardless of how many goroutines call Submit concurrently.
type Sequencer struct {
	engine *matching.Engine
	calls  chan *call
	log    zerolog.Logger
	t      tomb.Tomb
}

type Option func(*Sequencer)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sequencer) { s.log = logger }
}

func WithQueueSize(n int) Option {
	return func(s *Sequencer) { s.calls = make(chan *call, n) }
}

func New(engine *matching.Engine, opts ...Option) *Sequencer {
	s := &Sequencer{
		engine: engine,
		calls:  make(chan *call, defaultQueueSize),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the dispatch goroutine. It returns immediately; call Stop
// to shut it down, or cancel ctx.
func (s *Sequencer) Start(ctx context.Context) {
	s.t.Go(func() error {
		return s.run(ctx)
	})
}

func (s *Sequencer) run(ctx context.Context) error {
	s.log.Info().Msg("sequencer running")
	for {
		select {
		case <-s.t.Dying():
			return nil
		case <-ctx.Done():
			return nil
		case c := <-s.calls:
			out, err := s.engine.Process(c.tx, c.override, c.request)
			if err != nil {
				s.log.Error().Err(err).Msg("sequenced request failed")
			}
			c.result <- callResult{out: out, err: err}
		}
	}
}

// Submit enqueues a request and blocks until the engine has processed it
// (or the sequencer stops first). Safe to call from any number of
// goroutines concurrently — that is the whole point of this package.
func (s *Sequencer) Submit(tx repository.Transaction, override *core.Price, req order.Request) (*matching.Output, error) {
	c := &call{tx: tx, override: override, request: req, result: make(chan callResult, 1)}
	select {
	case s.calls <- c:
	case <-s.t.Dying():
		return nil, ErrStopped
	}
	select {
	case res := <-c.result:
		return res.out, res.err
	case <-s.t.Dying():
		return nil, ErrStopped
	}
}

// Stop signals the dispatch goroutine to exit and waits for it to do so.
func (s *Sequencer) Stop() error {
	s.t.Kill(nil)
	return s.t.Wait()
}
