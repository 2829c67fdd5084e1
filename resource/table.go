package resource

import (
	"sync"
)

// Type IDs for the resources a heap keeps alive on behalf of the host.
const (
	TypeStashValue uint32 = iota + 1
	TypeCallback
	TypeCallbackMut
	TypeUserData
)

// UnifiedTable implements the Table interface using a Backend for storage.
type UnifiedTable struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new unified table with a LocalBackend.
func NewTable(opts ...BackendOption) *UnifiedTable {
	return &UnifiedTable{
		backend: NewLocalBackend(opts...),
	}
}

// Insert adds a value and returns its handle, or 0 if the table is closed
// or full.
func (t *UnifiedTable) Insert(typeID uint32, value any) Handle {
	h, err := t.TryInsert(typeID, value)
	if err != nil {
		return 0
	}
	return h
}

// TryInsert adds a value and reports why it could not be stored.
func (t *UnifiedTable) TryInsert(typeID uint32, value any) (Handle, error) {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0, ErrClosed
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(typeID, value)
	if err != nil {
		return 0, err
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return handle, nil
}

// Get retrieves a value by handle.
func (t *UnifiedTable) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *UnifiedTable) GetTyped(handle Handle, typeID uint32) (any, bool) {
	actualTypeID, ok := t.backend.TypeID(handle)
	if !ok || actualTypeID != typeID {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Remove drops a resource and returns (value, true) if found.
func (t *UnifiedTable) Remove(handle Handle) (any, bool) {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return value, true
}

// Take removes a resource without calling its Dropper. Ownership passes
// to the caller.
func (t *UnifiedTable) Take(handle Handle) (any, bool) {
	typeID, _ := t.backend.TypeID(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return value, true
}

// TryBorrow takes the exclusive borrow of a handle. A borrowed handle
// cannot be removed until the borrow is returned.
func (t *UnifiedTable) TryBorrow(handle Handle) bool {
	if !t.backend.TryBorrow(handle) {
		return false
	}
	typeID, _ := t.backend.TypeID(handle)
	t.notify(Event{Type: EventBorrowed, Handle: handle, TypeID: typeID})
	return true
}

// ReturnBorrow releases a borrow taken with TryBorrow.
func (t *UnifiedTable) ReturnBorrow(handle Handle) bool {
	if !t.backend.ReturnBorrow(handle) {
		return false
	}
	typeID, _ := t.backend.TypeID(handle)
	t.notify(Event{Type: EventBorrowReturned, Handle: handle, TypeID: typeID})
	return true
}

// Each iterates over all active resources.
func (t *UnifiedTable) Each(fn func(Handle, uint32, any) bool) {
	t.backend.Each(fn)
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *UnifiedTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active resources.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

// Clear drops all resources.
func (t *UnifiedTable) Clear() {
	// Collect handles first to avoid holding lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, typeID uint32, value any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close releases all resources and stops accepting operations.
func (t *UnifiedTable) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

// Closed reports whether Close has been called.
func (t *UnifiedTable) Closed() bool {
	t.closeMu.RLock()
	defer t.closeMu.RUnlock()
	return t.closed
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
