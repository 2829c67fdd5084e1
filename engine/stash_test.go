package engine

import (
	"testing"

	"github.com/wippyai/js-runtime/resource"
)

func TestStash_RefLifecycle(t *testing.T) {
	h := New()
	defer h.Close()

	h.PushString("pinned")
	key := h.PopRef()
	if key == 0 {
		t.Fatal("key 0 must never be issued")
	}
	if h.Top() != 0 {
		t.Fatal("PopRef should consume the value")
	}

	clone := h.CloneRef(key)
	if clone == key {
		t.Fatal("clone must get its own slot")
	}

	h.DropRef(key)
	h.PushRef(clone)
	if got := h.Pop().String(); got != "pinned" {
		t.Fatalf("clone holds %q after original dropped", got)
	}

	expectPanic(t, func() { h.PushRef(key) })

	h.DropRef(clone)
	h.DropRef(clone)
	if h.RefCount() != 0 {
		t.Fatalf("RefCount() = %d, want 0", h.RefCount())
	}
}

func TestStash_Exhaustion(t *testing.T) {
	h := New(WithStashKeySpace(4))
	defer h.Close()

	// The heap's own setup may already hold keys; fill what is left.
	for h.Table().Len() < 4 {
		h.PushNull()
		h.PopRef()
	}

	h.PushNull()
	expectPanic(t, func() { h.PopRef() })
}

func TestStash_SharedKeySpace(t *testing.T) {
	h := New()
	defer h.Close()

	var events []resource.Event
	h.Table().Subscribe(resource.ObserverFunc(func(e resource.Event) {
		events = append(events, e)
	}))

	h.PushNull()
	key := h.PopRef()
	h.SetUserData("k", 1)

	// A user data handle is not a stash key.
	handle := h.userData["k"]
	expectPanic(t, func() { h.PushRef(uint32(handle)) })

	h.DropRef(key)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].TypeID != resource.TypeStashValue || events[2].Type != resource.EventDropped {
		t.Fatalf("unexpected events: %+v", events)
	}
}
