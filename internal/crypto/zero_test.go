package crypto

import (
	"bytes"
	"testing"
)

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	Zero(b)
	if !bytes.Equal(b, make([]byte, 5)) {
		t.Errorf("Zero() left %v", b)
	}

	// Must not panic on empty or nil slices.
	Zero(nil)
	Zero([]byte{})
}

func TestRandomBytes(t *testing.T) {
	b1, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes() error = %v", err)
	}
	if len(b1) != 32 {
		t.Errorf("length = %d, want 32", len(b1))
	}
	if bytes.Equal(b1, make([]byte, 32)) {
		t.Error("RandomBytes() returned all zeros")
	}

	b2, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes() error = %v", err)
	}
	if bytes.Equal(b1, b2) {
		t.Error("two draws returned identical bytes")
	}
}
