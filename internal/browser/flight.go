package browser

import "context"

// flight tracks the newest request of one kind. Each begin supersedes the
// previous request: its context is cancelled and its sequence number goes stale.
type flight struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
	active bool
}

func newFlight() flight {
	done := make(chan struct{})
	close(done)
	return flight{done: done}
}

func (f *flight) begin(parent context.Context) (context.Context, uint64) {
	if f.cancel != nil {
		f.cancel()
	}
	if !f.active {
		f.done = make(chan struct{})
		f.active = true
	}
	f.seq++
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	return ctx, f.seq
}

func (f *flight) current(seq uint64) bool {
	return f.active && seq == f.seq
}

func (f *flight) finish() {
	if !f.active {
		return
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.active = false
	close(f.done)
}
