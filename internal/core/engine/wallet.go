package engine

import (
	"sync"

	"jetwallet/internal/core/domain"
)

// Wallet owns one mutable snapshot and serializes commands against it.
// Each successful command replaces the snapshot wholesale.
type Wallet struct {
	mu     sync.Mutex
	engine *Engine
	state  domain.WalletState
}

// NewWallet wraps initial; the caller must not mutate initial afterwards.
func NewWallet(e *Engine, initial domain.WalletState) *Wallet {
	return &Wallet{engine: e, state: initial.Clone()}
}

// Dispatch applies cmd and returns the new snapshot. On rejection the
// current snapshot is kept and returned alongside the error.
func (w *Wallet) Dispatch(cmd Command) (domain.WalletState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := w.engine.Apply(w.state, cmd)
	if err != nil {
		return w.state.Clone(), err
	}
	w.state = next
	return next.Clone(), nil
}

// State returns a copy of the current snapshot.
func (w *Wallet) State() domain.WalletState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Clone()
}
