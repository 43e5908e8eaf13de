package cpu

import (
	"errors"
	"sync"
)

var errBarrierBroken = errors.New("barrier broken")

// barrier is a reusable work-group barrier. Lanes that finish leave the
// barrier so the remaining lanes are not held back by them.
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	parties    int
	waiting    int
	generation uint64
	broken     bool
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until every remaining lane has called wait. It panics with
// errBarrierBroken if another lane aborted the work-group.
func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.broken {
		panic(errBarrierBroken)
	}
	gen := b.generation
	b.waiting++
	if b.waiting >= b.parties {
		b.advance()
		return
	}
	for gen == b.generation && !b.broken {
		b.cond.Wait()
	}
	if gen == b.generation {
		panic(errBarrierBroken)
	}
}

// leave removes a finished lane.
func (b *barrier) leave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parties--
	if b.waiting > 0 && b.waiting >= b.parties {
		b.advance()
	}
}

// abort releases every waiting lane with errBarrierBroken.
func (b *barrier) abort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broken = true
	b.cond.Broadcast()
}

func (b *barrier) advance() {
	b.waiting = 0
	b.generation++
	b.cond.Broadcast()
}
