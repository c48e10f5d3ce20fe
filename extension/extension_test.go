package extension

import (
	"testing"

	"github.com/xraph/bazaar/store/memory"
)

func TestResolveStorePrecedence(t *testing.T) {
	t.Run("ExplicitStoreWins", func(t *testing.T) {
		explicit := memory.New()
		e := New(WithStore(explicit))

		s, err := e.resolveStore()
		if err != nil {
			t.Fatalf("resolveStore: %v", err)
		}
		if s != explicit {
			t.Error("explicit store was not used")
		}
	})

	t.Run("MemoryFallback", func(t *testing.T) {
		e := New()

		s, err := e.resolveStore()
		if err != nil {
			t.Fatalf("resolveStore: %v", err)
		}
		if _, ok := s.(*memory.Store); !ok {
			t.Errorf("fallback store: got %T, want *memory.Store", s)
		}
	})
}

func TestWithGroveDatabaseRoutesResolution(t *testing.T) {
	// A grove database must flow into driver-based store selection rather
	// than being silently ignored in favor of the memory fallback.
	e := New(WithGroveDatabase(nil))
	if e.groveDB != nil {
		t.Fatal("nil database should stay nil")
	}

	s, err := e.resolveStore()
	if err != nil {
		t.Fatalf("resolveStore: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("got %T, want *memory.Store for a nil database", s)
	}
}
