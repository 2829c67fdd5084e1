package resource

import (
	"errors"
	"math"
	"sync"
)

var (
	ErrClosed            = errors.New("resource backend closed")
	ErrOutstandingBorrow = errors.New("cannot drop resource with outstanding borrows")
	ErrExhausted         = errors.New("resource key space exhausted")
)

// LocalBackend is an in-memory resource backend with borrow tracking.
//
// Handles are allocated by linear probing from a rotating counter, so a
// freshly dropped handle is not handed out again until the counter wraps.
// Keys live in [1, keySpace]; probing the whole space without finding a
// free key yields ErrExhausted.
type LocalBackend struct {
	entries  map[Handle]*entry
	last     Handle
	keySpace uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value       any
	typeID      uint32
	borrowCount uint32
}

// BackendOption configures a LocalBackend.
type BackendOption func(*LocalBackend)

// WithKeySpace limits handles to [1, n]. The default is the full uint32 range.
func WithKeySpace(n uint32) BackendOption {
	return func(b *LocalBackend) {
		if n > 0 {
			b.keySpace = n
		}
	}
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend(opts ...BackendOption) *LocalBackend {
	b := &LocalBackend{
		entries:  make(map[Handle]*entry, 64),
		keySpace: math.MaxUint32,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(typeID uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	key := b.last
	wrapped := false
	for {
		key++
		if key == 0 || uint32(key) > b.keySpace {
			if wrapped {
				return 0, ErrExhausted
			}
			wrapped = true
			key = 1
		}
		if _, used := b.entries[key]; !used {
			break
		}
	}

	b.last = key
	b.entries[key] = &entry{
		typeID: typeID,
		value:  value,
	}
	return key, nil
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[handle]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Drop removes a resource and returns (value, true) if destructor should be called.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	if handle == 0 {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[handle]
	if !ok {
		return nil, false
	}

	if e.borrowCount > 0 {
		return nil, false
	}

	delete(b.entries, handle)
	return e.value, true
}

// Close releases all resources.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	entries := b.entries
	b.entries = make(map[Handle]*entry)
	b.mu.Unlock()

	// Drop outside the lock: a Dropper may release other resources.
	for _, e := range entries {
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

// Closed reports whether Close has been called.
func (b *LocalBackend) Closed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Borrow increments the shared borrow count for a handle.
func (b *LocalBackend) Borrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[handle]
	if !ok {
		return false
	}

	e.borrowCount++
	return true
}

// TryBorrow takes an exclusive borrow. It fails if the handle is invalid or
// already borrowed.
func (b *LocalBackend) TryBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[handle]
	if !ok || e.borrowCount > 0 {
		return false
	}

	e.borrowCount = 1
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend) ReturnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[handle]
	if !ok || e.borrowCount == 0 {
		return false
	}

	e.borrowCount--
	return true
}

// TypeID returns the type ID for a handle.
func (b *LocalBackend) TypeID(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[handle]
	if !ok {
		return 0, false
	}
	return e.typeID, true
}

// Len returns the number of active resources.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Each iterates over all active resources in handle order.
func (b *LocalBackend) Each(fn func(Handle, uint32, any) bool) {
	b.mu.RLock()
	handles := make([]Handle, 0, len(b.entries))
	for h := range b.entries {
		handles = append(handles, h)
	}
	b.mu.RUnlock()

	sortHandles(handles)
	for _, h := range handles {
		b.mu.RLock()
		e, ok := b.entries[h]
		var typeID uint32
		var value any
		if ok {
			typeID, value = e.typeID, e.value
		}
		b.mu.RUnlock()
		if ok && !fn(h, typeID, value) {
			break
		}
	}
}

func sortHandles(hs []Handle) {
	for i := 1; i < len(hs); i++ {
		for j := i; j > 0 && hs[j] < hs[j-1]; j-- {
			hs[j], hs[j-1] = hs[j-1], hs[j]
		}
	}
}
