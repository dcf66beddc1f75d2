package storage_test

import (
	"testing"

	"sqlpad/internal/storage"
)

func TestMemStore_RoundTrip(t *testing.T) {
	s := storage.NewMemStore()

	if _, ok, _ := s.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	v, ok, err := s.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("expected v2, got %q ok=%v err=%v", v, ok, err)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get("k"); ok {
		t.Error("expected key gone after delete")
	}
}
