// Package nodepool implements a typed arena allocator. Slots live in fixed-size chunks that never
// move once allocated, so a pointer returned by Get stays valid until the slot is deallocated.
// Callers address slots by Handle, which makes structures built on top of the pool trivially
// relocatable.
//
// A Pool is not safe for concurrent use.
package nodepool

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/voxel/logging"
)

// Handle addresses one slot of a Pool. The zero Handle is Nil.
type Handle uint32

// Nil is the "no slot" sentinel.
const Nil Handle = 0

// DefaultChunkSize is the number of slots per chunk when neither an option nor the Init size hint
// says otherwise.
const DefaultChunkSize = 1024

var (
	// ErrExhausted is returned when the pool has reached its slot cap.
	ErrExhausted = errors.New("node pool exhausted")
	// ErrNotInitialized is returned when the pool is used before Init or after Shutdown.
	ErrNotInitialized = errors.New("node pool not initialized")
	// ErrAlreadyInitialized is returned from a second Init call.
	ErrAlreadyInitialized = errors.New("node pool already initialized")
	// ErrInvalidHandle is returned when deallocating Nil, an unknown handle or a free slot.
	ErrInvalidHandle = errors.New("invalid node pool handle")
)

type options struct {
	maxSlots  int
	chunkSize int
}

// Option configures a Pool.
type Option func(*options)

// WithMaxSlots caps the total number of slots the pool will ever hold. Zero means no cap.
func WithMaxSlots(n int) Option {
	return func(o *options) {
		o.maxSlots = n
	}
}

// WithChunkSize fixes the number of slots per chunk instead of deriving it from the Init hint.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// Pool is an arena of T values addressed by Handle.
type Pool[T any] struct {
	logger logging.Logger
	opts   options

	initialized bool
	generation  uint64
	chunkSize   int
	chunks      [][]T
	live        []bool
	next        int
	free        []Handle
	used        int
}

// New returns an uninitialized pool. Init must be called before the first Allocate.
func New[T any](logger logging.Logger, opts ...Option) *Pool[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Pool[T]{logger: logger, opts: o}
}

// Init reserves the first chunk. The size hint is the expected number of live slots.
func (p *Pool[T]) Init(sizeHint int) error {
	if p.initialized {
		return ErrAlreadyInitialized
	}
	if sizeHint < 0 {
		return errors.Errorf("invalid node pool size hint %d", sizeHint)
	}

	p.chunkSize = p.opts.chunkSize
	if p.chunkSize <= 0 {
		p.chunkSize = sizeHint
	}
	if p.chunkSize <= 0 {
		p.chunkSize = DefaultChunkSize
	}
	p.initialized = true
	p.generation++
	p.next = 0
	p.used = 0
	p.free = p.free[:0]

	if err := p.grow(); err != nil && !errors.Is(err, ErrExhausted) {
		return err
	}
	p.logger.Debugw("node pool initialized", "chunk_size", p.chunkSize, "max_slots", p.opts.maxSlots)
	return nil
}

// Initialized reports whether Init has been called without a matching Shutdown.
func (p *Pool[T]) Initialized() bool {
	return p.initialized
}

// Generation counts Init calls. Handles taken from an earlier generation are meaningless in the
// current one, even if they happen to be live again.
func (p *Pool[T]) Generation() uint64 {
	return p.generation
}

// Shutdown releases every chunk. Slots still live at this point are reported as an error, but
// the memory is released regardless. The pool may be initialized again afterwards.
func (p *Pool[T]) Shutdown() error {
	if !p.initialized {
		return ErrNotInitialized
	}
	leaked := p.used
	p.chunks = nil
	p.live = nil
	p.free = nil
	p.next = 0
	p.used = 0
	p.initialized = false
	p.logger.Debugw("node pool shut down", "leaked", leaked)

	if leaked > 0 {
		return errors.Errorf("node pool shut down with %d live slots", leaked)
	}
	return nil
}

// Allocate returns a zeroed slot, reusing freed slots first.
func (p *Pool[T]) Allocate() (Handle, error) {
	if !p.initialized {
		return Nil, ErrNotInitialized
	}

	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.live[h-1] = true
		p.used++
		return h, nil
	}

	if p.next == p.Capacity() {
		if err := p.grow(); err != nil {
			return Nil, err
		}
	}
	p.live[p.next] = true
	p.next++
	p.used++
	return Handle(p.next), nil
}

// Deallocate zeroes the slot and returns it to the free list.
func (p *Pool[T]) Deallocate(h Handle) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	if !p.valid(h) {
		return errors.Wrapf(ErrInvalidHandle, "deallocate %d", h)
	}
	var zero T
	*p.slot(h) = zero
	p.live[h-1] = false
	p.free = append(p.free, h)
	p.used--
	return nil
}

// Get returns a pointer to the slot, or nil if the handle is not live.
func (p *Pool[T]) Get(h Handle) *T {
	if !p.initialized || !p.valid(h) {
		return nil
	}
	return p.slot(h)
}

// Reserve grows the pool until it can hold n slots without further chunk allocation.
func (p *Pool[T]) Reserve(n int) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	for p.Capacity() < n {
		if err := p.grow(); err != nil {
			return err
		}
	}
	return nil
}

// Capacity is the number of slots currently backed by chunks.
func (p *Pool[T]) Capacity() int {
	return len(p.live)
}

// Used is the number of live slots.
func (p *Pool[T]) Used() int {
	return p.used
}

// Free is the number of slots that can be allocated without growing.
func (p *Pool[T]) Free() int {
	return p.Capacity() - p.used
}

// Utilization is Used / Capacity, or 0 for an empty pool.
func (p *Pool[T]) Utilization() float64 {
	if p.Capacity() == 0 {
		return 0
	}
	return float64(p.used) / float64(p.Capacity())
}

// Chunks is the number of chunks allocated.
func (p *Pool[T]) Chunks() int {
	return len(p.chunks)
}

func (p *Pool[T]) grow() error {
	size := p.chunkSize
	limit := p.opts.maxSlots
	if limit <= 0 || limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	if remaining := limit - p.Capacity(); remaining < size {
		size = remaining
	}
	if size <= 0 {
		p.logger.Debugw("node pool exhausted", "capacity", p.Capacity())
		return ErrExhausted
	}

	p.chunks = append(p.chunks, make([]T, size))
	p.live = append(p.live, make([]bool, size)...)
	p.logger.Debugw("node pool grew", "chunks", len(p.chunks), "capacity", p.Capacity())
	return nil
}

func (p *Pool[T]) valid(h Handle) bool {
	return h != Nil && int(h) <= p.next && p.live[h-1]
}

// slot relies on every chunk but the last holding exactly chunkSize slots.
func (p *Pool[T]) slot(h Handle) *T {
	idx := int(h) - 1
	return &p.chunks[idx/p.chunkSize][idx%p.chunkSize]
}
