package crypto

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Seal encrypts plaintext with ChaCha20-Poly1305 and returns ciphertext || tag.
// The caller guarantees the (key, nonce) pair is never reused.
func Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// Open authenticates and decrypts a ciphertext || tag produced by [Seal].
// Tag verification is constant-time. On mismatch it returns [ErrAuthFailed]
// with no further detail about which input was wrong.
func Open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < TagSize {
		return nil, fmt.Errorf("%w: got %d, want at least %d", ErrCiphertextTooShort, len(ciphertext), TagSize)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// ZeroNonce returns an all-zero nonce. It is safe only for keys used exactly
// once, such as the HKDF-derived master-key wrap key.
func ZeroNonce() []byte {
	return make([]byte, NonceSize)
}

func newAEAD(key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), NonceSize)
	}
	return chacha20poly1305.New(key)
}
