package surfel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/otaviog/align3d-go/align3derr"
)

// CommandList batches a frame's mutations to a Pool: updates to existing
// ids, new surfels to add, and ids to free. Applying it is the only
// mutation step between snapshots (Component L/M).
type CommandList struct {
	Updates []IDSurfel
	Adds    []Surfel
	Frees   []int
}

// IDSurfel pairs a pool index with the surfel to write there.
type IDSurfel struct {
	ID     int
	Surfel Surfel
}

// Pool is a fixed-capacity surfel store with a LIFO free-list allocator.
// An index is in the free list iff Live[i] is false. mu guards every
// transition between the writer's Apply and a renderer snapshot (Get,
// IterLive), per the single-mutex publish model of Section 5: the
// integrator never mutates pool state while a reader is iterating it.
type Pool struct {
	mu       sync.RWMutex
	surfels  []Surfel
	live     []bool
	freeList []int // stack; top is freeList[len-1]
}

// NewPool allocates a pool with capacity n, all slots initially free.
func NewPool(capacity int) *Pool {
	freeList := make([]int, capacity)
	for i := range freeList {
		freeList[i] = capacity - 1 - i // so popping from the end yields 0,1,2,...
	}
	return &Pool{
		surfels:  make([]Surfel, capacity),
		live:     make([]bool, capacity),
		freeList: freeList,
	}
}

// Capacity returns the pool's fixed capacity.
func (p *Pool) Capacity() int { return len(p.surfels) }

// LiveCount returns the number of currently live (allocated) surfels.
func (p *Pool) LiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, l := range p.live {
		if l {
			n++
		}
	}
	return n
}

// update overwrites the surfel at id and marks id live.
func (p *Pool) update(id int, s Surfel) {
	p.surfels[id] = s
	p.live[id] = true
}

// add allocates a free index and writes s there, returning the new id.
// Returns align3derr.ErrCapacity if the pool is full.
func (p *Pool) add(s Surfel) (int, error) {
	if len(p.freeList) == 0 {
		return 0, fmt.Errorf("%w: surfel pool at capacity %d", align3derr.ErrCapacity, len(p.surfels))
	}
	id := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	p.update(id, s)
	return id, nil
}

// free marks id as not-live and returns it to the free list. Freeing an
// already-free index is an error, preventing double-free by construction.
func (p *Pool) free(id int) error {
	if !p.live[id] {
		return fmt.Errorf("%w: surfel %d is already free", align3derr.ErrAssertion, id)
	}
	p.live[id] = false
	p.freeList = append(p.freeList, id)
	return nil
}

// Get returns the surfel at id and whether it is live. Safe to call
// concurrently with another reader, or with a writer's Apply.
func (p *Pool) Get(id int) (Surfel, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.live[id] {
		return Surfel{}, false
	}
	return p.surfels[id], true
}

// IterLive calls yield for every live (id, surfel) pair under a read lock,
// giving a renderer a consistent snapshot across the whole iteration.
func (p *Pool) IterLive(yield func(id int, s Surfel)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, live := range p.live {
		if live {
			yield(id, p.surfels[id])
		}
	}
}

// Apply commits a command list atomically under a write lock (single
// writer w.r.t. the pool; readers are excluded for the duration): updates,
// then adds, then frees. Capacity exhaustion is absorbed per Section 7 (the
// would-be surfel is dropped and counted in the second return value, not
// treated as a failure) so later adds are still attempted and every free in
// the command list still runs regardless of how many adds were dropped.
// The returned error, if any, is a free-list invariant violation (a
// double-free), which is a programmer bug rather than ordinary capacity
// pressure and aborts the remaining frees.
func (p *Pool) Apply(cmds CommandList) (addedIDs []int, droppedAdds int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range cmds.Updates {
		p.update(u.ID, u.Surfel)
	}
	addedIDs = make([]int, 0, len(cmds.Adds))
	for _, s := range cmds.Adds {
		id, addErr := p.add(s)
		if addErr != nil {
			if errors.Is(addErr, align3derr.ErrCapacity) {
				droppedAdds++
				continue
			}
			return addedIDs, droppedAdds, addErr
		}
		addedIDs = append(addedIDs, id)
	}
	for _, id := range cmds.Frees {
		if freeErr := p.free(id); freeErr != nil {
			return addedIDs, droppedAdds, freeErr
		}
	}
	return addedIDs, droppedAdds, nil
}
