package memory

import (
	"errors"
	"sync"

	"matchcore/internal/repository"
)

// ErrForeignTransaction is returned when a repository method receives a
// repository.Transaction that was not opened against this Store.
var ErrForeignTransaction = errors.New("memory: transaction was not opened against this store")

// Tx is the reference backend's transaction handle. It holds the store's
// single writer lock for its lifetime and an undo log of inverse mutations,
// so Abort can restore exactly the state that existed when Begin was
// called — invariant 5 in SPEC_FULL.md ("on abort, no mutation persists").
type Tx struct {
	store *Store
	mu    sync.Mutex // guards undo/done against accidental reuse after Commit/Abort
	undo  []func()
	done  bool
}

func newTx(s *Store) *Tx {
	return &Tx{store: s}
}

func (t *Tx) recordUndo(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undo = append(t.undo, fn)
}

// Commit releases the store's writer lock, keeping every mutation made
// during the transaction.
func (t *Tx) Commit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.store.writer.Unlock()
}

// Abort replays the undo log in reverse order, then releases the store's
// writer lock. Safe to call even if no mutation occurred.
func (t *Tx) Abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.store.writer.Unlock()
}

// asTx recovers the concrete *Tx from the opaque repository.Transaction the
// engine passes through, verifying it belongs to this store.
func asTx(tx repository.Transaction, s *Store) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTransaction
	}
	return t, nil
}
