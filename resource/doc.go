// Package resource provides handle tables for host-side values that a
// script heap keeps alive.
//
// A heap needs integer keys for three kinds of things: values pinned in the
// stash so the host can refer to them across calls, callback closures that
// script functions dispatch to, and user data attached to the heap. All of
// them live in a UnifiedTable, distinguished by type ID.
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	// Insert a value, get a handle
//	handle := table.Insert(resource.TypeStashValue, v)
//
//	// Retrieve value by handle
//	value, ok := table.Get(handle)
//
//	// Remove and get value
//	value, ok := table.Remove(handle)
//
// Handle 0 is never issued. Keys are assigned by linear probing from a
// rotating counter, so a dropped key is not reused until the counter wraps.
// When every key is taken, TryInsert returns ErrExhausted.
//
// # Type Safety
//
// Typed gives a generic view restricted to one type ID:
//
//	callbacks := resource.NewTyped[*Callback](table, resource.TypeCallback)
//	h := callbacks.Insert(cb)
//	cb, ok := callbacks.Get(h)
//
// # Borrows
//
// TryBorrow takes an exclusive borrow of a handle. While borrowed the entry
// cannot be removed and further TryBorrow calls fail. This is how mutable
// callbacks detect reentrant calls.
//
// # Observers
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("%s %d", e.Type, e.Handle)
//	}))
//
// # Memory Management
//
// Values implementing Dropper have Drop called when they are removed or
// when the table is closed.
package resource
