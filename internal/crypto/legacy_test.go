package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveLegacyKey(t *testing.T) {
	salt := bytes.Repeat([]byte{0x55}, LegacySaltSize)
	params := DefaultLegacyParams()

	k1, err := DeriveLegacyKey([]byte("legacy password"), salt, params)
	if err != nil {
		t.Fatalf("DeriveLegacyKey() error = %v", err)
	}
	if len(k1) != KeySize {
		t.Errorf("key size = %d, want %d", len(k1), KeySize)
	}

	k2, err := DeriveLegacyKey([]byte("legacy password"), salt, params)
	if err != nil {
		t.Fatalf("DeriveLegacyKey() error = %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("identical inputs produced different keys")
	}

	k3, err := DeriveLegacyKey([]byte("other password"), salt, params)
	if err != nil {
		t.Fatalf("DeriveLegacyKey() error = %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Error("different passwords produced the same key")
	}
}

func TestDeriveLegacyKey_InvalidSalt(t *testing.T) {
	_, err := DeriveLegacyKey([]byte("pw"), make([]byte, LegacySaltSize+1), DefaultLegacyParams())
	if !errors.Is(err, ErrInvalidSaltSize) {
		t.Errorf("DeriveLegacyKey() error = %v, want ErrInvalidSaltSize", err)
	}
}

func TestLegacyKeyHash(t *testing.T) {
	key := bytes.Repeat([]byte{0x77}, KeySize)

	h1 := LegacyKeyHash(key)
	h2 := LegacyKeyHash(key)
	if h1 != h2 {
		t.Error("identical keys produced different hashes")
	}

	other := bytes.Repeat([]byte{0x78}, KeySize)
	if h1 == LegacyKeyHash(other) {
		t.Error("distinct keys produced the same hash")
	}
}

func TestLegacyHeaderMAC(t *testing.T) {
	key := bytes.Repeat([]byte{0x77}, KeySize)
	prefix := []byte("fixed header prefix")

	m1, err := LegacyHeaderMAC(key, prefix)
	if err != nil {
		t.Fatalf("LegacyHeaderMAC() error = %v", err)
	}
	if len(m1) != 32 {
		t.Errorf("mac size = %d, want 32", len(m1))
	}

	m2, err := LegacyHeaderMAC(key, prefix)
	if err != nil {
		t.Fatalf("LegacyHeaderMAC() error = %v", err)
	}
	if !bytes.Equal(m1, m2) {
		t.Error("identical inputs produced different MACs")
	}

	m3, err := LegacyHeaderMAC(key, []byte("tampered header prefix"))
	if err != nil {
		t.Fatalf("LegacyHeaderMAC() error = %v", err)
	}
	if bytes.Equal(m1, m3) {
		t.Error("tampered prefix produced the same MAC")
	}

	otherKey := bytes.Repeat([]byte{0x78}, KeySize)
	m4, err := LegacyHeaderMAC(otherKey, prefix)
	if err != nil {
		t.Fatalf("LegacyHeaderMAC() error = %v", err)
	}
	if bytes.Equal(m1, m4) {
		t.Error("different key produced the same MAC")
	}
}
