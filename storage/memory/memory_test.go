package memory

import (
	"errors"
	"testing"

	"github.com/jmcleod/waypoint/storage"
)

func TestMemoryStore(t *testing.T) {
	store := NewStore()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := store.Put("k1", []byte("value-1")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := store.Get("k1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "value-1" {
			t.Errorf("Get returned %q, want %q", got, "value-1")
		}

		// Test isolation (cloning)
		got[0] = 'X'
		got2, _ := store.Get("k1")
		if got2[0] == 'X' {
			t.Error("memory store should return copies of values")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := store.Get("nonexistent")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get with missing key returned %v, want ErrNotFound", err)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store.Put("k2", []byte("first"))
		store.Put("k2", []byte("second"))
		got, err := store.Get("k2")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "second" {
			t.Errorf("Get returned %q after overwrite, want %q", got, "second")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store.Put("k3", []byte("gone"))
		if err := store.Delete("k3"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get("k3"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Get after Delete returned %v, want ErrNotFound", err)
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		// Deleting an absent key is not an error.
		if err := store.Delete("never-existed"); err != nil {
			t.Errorf("Delete of missing key returned %v", err)
		}
	})
}
