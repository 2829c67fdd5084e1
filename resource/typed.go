package resource

// Typed is a type-safe view over a UnifiedTable restricted to one type ID.
// Several views with different IDs may share a table.
type Typed[T any] struct {
	table  *UnifiedTable
	typeID uint32
}

var _ TypedTable[int] = (*Typed[int])(nil)

// NewTyped creates a typed view over table for typeID.
func NewTyped[T any](table *UnifiedTable, typeID uint32) *Typed[T] {
	return &Typed[T]{table: table, typeID: typeID}
}

// Insert adds a value and returns its handle, or 0 on failure.
func (t *Typed[T]) Insert(value T) Handle {
	return t.table.Insert(t.typeID, value)
}

// TryInsert adds a value and reports why it could not be stored.
func (t *Typed[T]) TryInsert(value T) (Handle, error) {
	return t.table.TryInsert(t.typeID, value)
}

// Get retrieves a value by handle.
func (t *Typed[T]) Get(handle Handle) (T, bool) {
	v, ok := t.table.GetTyped(handle, t.typeID)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Remove drops a resource and returns (value, true) if found.
func (t *Typed[T]) Remove(handle Handle) (T, bool) {
	var zero T
	if _, ok := t.table.GetTyped(handle, t.typeID); !ok {
		return zero, false
	}
	v, ok := t.table.Remove(handle)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Take removes a resource without calling its Dropper.
func (t *Typed[T]) Take(handle Handle) (T, bool) {
	var zero T
	if _, ok := t.table.GetTyped(handle, t.typeID); !ok {
		return zero, false
	}
	v, ok := t.table.Take(handle)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Len returns the number of resources of this type.
func (t *Typed[T]) Len() int {
	n := 0
	t.table.Each(func(_ Handle, typeID uint32, _ any) bool {
		if typeID == t.typeID {
			n++
		}
		return true
	})
	return n
}

// Each iterates over resources of this type in handle order.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.table.Each(func(h Handle, typeID uint32, v any) bool {
		if typeID != t.typeID {
			return true
		}
		typed, ok := v.(T)
		if !ok {
			return true
		}
		return fn(h, typed)
	})
}

// Table returns the underlying table.
func (t *Typed[T]) Table() *UnifiedTable {
	return t.table
}
