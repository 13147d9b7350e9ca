package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrStale is returned by Refresh when its result was discarded because a
// newer refresh started or the view was closed while it was in flight.
var ErrStale = errors.New("dashboard: stale refresh discarded")

// LoadFunc computes one snapshot.
type LoadFunc func(ctx context.Context) (Snapshot, error)

// View is a long-lived dashboard. It keeps the last good snapshot, so a
// failed refresh leaves the previous figures in place next to the error.
// Only the most recent refresh may update it, and nothing does after Close.
type View struct {
	load   LoadFunc
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	gen    uint64
	last   *Snapshot
	err    error
	closed bool
}

func NewView(parent context.Context, load LoadFunc) *View {
	ctx, cancel := context.WithCancel(parent)
	return &View{load: load, ctx: ctx, cancel: cancel}
}

// Refresh recomputes the snapshot. It returns the load error, or ErrStale
// when the result arrived for a superseded refresh.
func (v *View) Refresh() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrStale
	}
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	snap, err := v.load(v.ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.gen {
		return ErrStale
	}
	if err != nil {
		v.err = err
		return err
	}
	v.last = &snap
	v.err = nil
	return nil
}

// Snapshot returns the last good snapshot, if any.
func (v *View) Snapshot() (Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.last == nil {
		return Snapshot{}, false
	}
	return *v.last, true
}

// Err is the error of the latest applied refresh, nil after a success.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Close cancels in-flight loads and freezes the view.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.cancel()
}
