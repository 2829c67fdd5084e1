package engine

import (
	"github.com/wippyai/js-runtime/resource"
)

// SetUserData stores v under key and returns the value it replaced, if any.
// The replaced value is handed back to the caller and not dropped.
func (h *Heap) SetUserData(key string, v any) (any, bool) {
	old, hadOld := h.RemoveUserData(key)
	handle, err := h.table.TryInsert(resource.TypeUserData, v)
	if err != nil {
		panic("engine: user data: " + err.Error())
	}
	h.userData[key] = handle
	return old, hadOld
}

// UserData returns the value stored under key.
func (h *Heap) UserData(key string) (any, bool) {
	handle, ok := h.userData[key]
	if !ok {
		return nil, false
	}
	return h.table.GetTyped(handle, resource.TypeUserData)
}

// RemoveUserData removes the value stored under key and returns it. The
// caller takes ownership; a resource.Dropper payload is not dropped. Values
// still present when the heap closes are dropped then.
func (h *Heap) RemoveUserData(key string) (any, bool) {
	handle, ok := h.userData[key]
	if !ok {
		return nil, false
	}
	delete(h.userData, key)
	return h.table.Take(handle)
}
