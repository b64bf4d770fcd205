package pqvolume

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/qwamos/pqvolume/internal/header"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      *FormatError
		sentinel error
	}{
		{"magic", &FormatError{Path: "v.pqv", Err: fmt.Errorf("wrap: %w", header.ErrInvalidMagic)}, ErrInvalidMagic},
		{"version", &FormatError{Path: "v.pqv", Err: header.ErrUnsupportedVersion}, ErrUnsupportedVersion},
		{"truncated", &FormatError{Path: "v.pqv", Err: header.ErrTruncated}, ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			if !strings.Contains(tt.err.Error(), "v.pqv") {
				t.Errorf("Error() = %q, missing path", tt.err.Error())
			}
		})
	}

	plain := &FormatError{Err: errors.New("no body")}
	if errors.Is(plain, ErrInvalidMagic) || errors.Is(plain, ErrTruncated) {
		t.Error("plain format error matched an unrelated sentinel")
	}
}

func TestIntegrityError(t *testing.T) {
	hdrErr := &IntegrityError{Path: "v.pqv", Sector: -1, Detail: "header integrity tag mismatch"}
	if !errors.Is(hdrErr, ErrIntegrity) {
		t.Error("header integrity error does not match ErrIntegrity")
	}
	if strings.Contains(hdrErr.Error(), "sector") {
		t.Errorf("Error() = %q, header failure should not mention a sector", hdrErr.Error())
	}

	secErr := &IntegrityError{Path: "v.pqv", Sector: 7, Detail: "sector authentication failed"}
	if !strings.Contains(secErr.Error(), "sector 7") {
		t.Errorf("Error() = %q, want the sector index", secErr.Error())
	}
}

func TestAuthError_ConstantMessage(t *testing.T) {
	err := &AuthError{}
	if err.Error() != "authentication failed" {
		t.Errorf("Error() = %q, want %q", err.Error(), "authentication failed")
	}
	if !errors.Is(err, ErrAuthFailed) {
		t.Error("AuthError does not match ErrAuthFailed")
	}
	if errors.Is(err, ErrIntegrity) {
		t.Error("AuthError matched ErrIntegrity")
	}
}

func TestKdfError(t *testing.T) {
	limit := &KdfError{MemoryKiB: 1 << 20, LimitKiB: 1 << 10}
	for _, want := range []string{"1048576", "1024"} {
		if !strings.Contains(limit.Error(), want) {
			t.Errorf("Error() = %q, missing %q", limit.Error(), want)
		}
	}

	inner := errors.New("unknown kdf profile")
	wrapped := &KdfError{Err: inner}
	if !errors.Is(wrapped, inner) {
		t.Error("KdfError does not unwrap to its cause")
	}
	if !strings.Contains(wrapped.Error(), inner.Error()) {
		t.Errorf("Error() = %q, missing cause", wrapped.Error())
	}
}

func TestCryptoError_KeyStoreSentinel(t *testing.T) {
	err := &CryptoError{Op: "private key unwrap", Err: ErrKeyStoreRequired}
	if !errors.Is(err, ErrKeyStoreRequired) {
		t.Error("CryptoError does not match ErrKeyStoreRequired")
	}

	other := &CryptoError{Op: "salt generation", Err: errors.New("rng failure")}
	if errors.Is(other, ErrKeyStoreRequired) {
		t.Error("unrelated CryptoError matched ErrKeyStoreRequired")
	}
}

func TestIOError(t *testing.T) {
	inner := errors.New("disk on fire")
	err := &IOError{Op: "read", Path: "v.pqv", Sector: 3, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("IOError does not unwrap to its cause")
	}
	for _, want := range []string{"read", "v.pqv", "sector 3"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, missing %q", err.Error(), want)
		}
	}

	noSector := &IOError{Op: "open", Path: "v.pqv", Sector: -1, Err: inner}
	if strings.Contains(noSector.Error(), "sector") {
		t.Errorf("Error() = %q, non-sector failure should not mention one", noSector.Error())
	}
}

func TestWrapParseError(t *testing.T) {
	if wrapParseError("p", nil) != nil {
		t.Error("wrapParseError(nil) != nil")
	}

	tag := wrapParseError("p", fmt.Errorf("checked: %w", header.ErrIntegrityTag))
	var integrityErr *IntegrityError
	if !errors.As(tag, &integrityErr) || integrityErr.Sector != -1 {
		t.Errorf("integrity tag error = %v, want header-level IntegrityError", tag)
	}

	magic := wrapParseError("p", header.ErrInvalidMagic)
	var formatErr *FormatError
	if !errors.As(magic, &formatErr) {
		t.Errorf("magic error = %v, want FormatError", magic)
	}
	if !errors.Is(magic, ErrInvalidMagic) {
		t.Error("wrapped magic error does not match ErrInvalidMagic")
	}
}
