package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	// Create a resource
	handle, err := b.Create(1, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	// Get it back
	val, ok := b.Get(handle)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	// Drop it
	val, ok = b.Drop(handle)
	if !ok {
		t.Fatal("Drop failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	// Should not exist anymore
	_, ok = b.Get(handle)
	if ok {
		t.Fatal("Expected Get to fail after Drop")
	}
}

func TestLocalBackend_Borrow(t *testing.T) {
	b := NewLocalBackend()
	handle, _ := b.Create(1, "x")

	if !b.Borrow(handle) {
		t.Fatal("Borrow failed")
	}

	// Can't drop with outstanding borrow
	if _, ok := b.Drop(handle); ok {
		t.Fatal("Drop should fail with outstanding borrow")
	}

	if !b.ReturnBorrow(handle) {
		t.Fatal("ReturnBorrow failed")
	}

	// Now can drop
	if _, ok := b.Drop(handle); !ok {
		t.Fatal("Drop should succeed after returning borrow")
	}
}

func TestLocalBackend_TryBorrow(t *testing.T) {
	b := NewLocalBackend()
	handle, _ := b.Create(1, "x")

	if !b.TryBorrow(handle) {
		t.Fatal("first TryBorrow should succeed")
	}
	if b.TryBorrow(handle) {
		t.Fatal("second TryBorrow should fail while borrowed")
	}
	b.ReturnBorrow(handle)

	b.Borrow(handle)
	if b.TryBorrow(handle) {
		t.Fatal("TryBorrow should fail with shared borrows")
	}
	b.ReturnBorrow(handle)

	if !b.TryBorrow(handle) {
		t.Fatal("TryBorrow should succeed after borrows returned")
	}
	if b.TryBorrow(999) {
		t.Fatal("TryBorrow on unknown handle should fail")
	}
}

func TestLocalBackend_RotatingKeys(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create(1, 1)
	h2, _ := b.Create(1, 2)
	b.Drop(h1)

	// A freed key is not reused while higher keys are free.
	h3, _ := b.Create(1, 3)
	if h3 == h1 || h3 == h2 {
		t.Fatalf("Expected fresh key, got %d (h1=%d h2=%d)", h3, h1, h2)
	}
	if h3 <= h2 {
		t.Fatalf("Expected key above %d, got %d", h2, h3)
	}
}

func TestLocalBackend_KeySpace(t *testing.T) {
	tests := []struct {
		name  string
		space uint32
	}{
		{"one", 1},
		{"small", 4},
		{"medium", 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLocalBackend(WithKeySpace(tt.space))

			seen := make(map[Handle]bool)
			for i := uint32(0); i < tt.space; i++ {
				h, err := b.Create(1, i)
				if err != nil {
					t.Fatalf("Create %d failed: %v", i, err)
				}
				if h == 0 || uint32(h) > tt.space {
					t.Fatalf("handle %d out of range", h)
				}
				if seen[h] {
					t.Fatalf("handle %d issued twice", h)
				}
				seen[h] = true
			}

			if _, err := b.Create(1, "overflow"); !errors.Is(err, ErrExhausted) {
				t.Fatalf("Expected ErrExhausted, got %v", err)
			}

			// Freeing a key makes exactly that key available again.
			b.Drop(1)
			h, err := b.Create(1, "again")
			if err != nil {
				t.Fatalf("Create after Drop failed: %v", err)
			}
			if h != 1 {
				t.Fatalf("Expected wrap to key 1, got %d", h)
			}
		})
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()
	d := &dropCounter{}

	b.Create(1, d)
	b.Create(1, 2)

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatalf("Expected Drop() on Close, called %d times", d.count)
	}
	if !b.Closed() {
		t.Fatal("Expected Closed() after Close")
	}

	// Operations should fail after close
	_, err := b.Create(1, "test")
	if !errors.Is(err, ErrClosed) {
		t.Fatal("Expected ErrClosed after Close")
	}

	// Close is idempotent
	if err := b.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatal("Drop() should not run twice")
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, _ := b.Create(1, id)
			b.Borrow(h)
			b.ReturnBorrow(h)
			b.Drop(h)
		}(i)
	}

	wg.Wait()
	if b.Len() != 0 {
		t.Fatalf("Expected empty backend, got %d", b.Len())
	}
}

func TestLocalBackend_Len(t *testing.T) {
	b := NewLocalBackend()

	if b.Len() != 0 {
		t.Fatal("Expected Len() == 0 initially")
	}

	h1, _ := b.Create(1, "a")
	h2, _ := b.Create(1, "b")
	b.Create(1, "c")

	if b.Len() != 3 {
		t.Fatalf("Expected Len() == 3, got %d", b.Len())
	}

	b.Drop(h1)
	if b.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", b.Len())
	}

	b.Drop(h2)
	if b.Len() != 1 {
		t.Fatalf("Expected Len() == 1, got %d", b.Len())
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend()

	b.Create(1, "a")
	b.Create(2, "b")
	b.Create(1, "c")

	var order []Handle
	b.Each(func(h Handle, typeID uint32, value any) bool {
		order = append(order, h)
		return true
	})

	if len(order) != 3 {
		t.Fatalf("Expected to iterate over 3 items, got %d", len(order))
	}
	for i := 1; i < len(order); i++ {
		if order[i] <= order[i-1] {
			t.Fatalf("Expected ascending handles, got %v", order)
		}
	}

	// Test early termination
	count := 0
	b.Each(func(h Handle, typeID uint32, value any) bool {
		count++
		return false
	})

	if count != 1 {
		t.Fatalf("Expected to iterate over 1 item (early term), got %d", count)
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()

	// Handle 0 is always invalid
	if _, ok := b.Get(0); ok {
		t.Fatal("Handle 0 should be invalid")
	}
	if _, ok := b.TypeID(0); ok {
		t.Fatal("Handle 0 should have no type")
	}
	if b.Borrow(0) {
		t.Fatal("Handle 0 should fail Borrow")
	}
	if b.ReturnBorrow(0) {
		t.Fatal("Handle 0 should fail ReturnBorrow")
	}
	if _, ok := b.Drop(0); ok {
		t.Fatal("Handle 0 should fail Drop")
	}

	// Non-existent handle
	if _, ok := b.Get(999); ok {
		t.Fatal("Non-existent handle should be invalid")
	}
}
