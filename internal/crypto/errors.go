package crypto

import "errors"

var (
	// ErrInvalidPublicKeySize is returned when the public key size is invalid.
	ErrInvalidPublicKeySize = errors.New("invalid public key size")

	// ErrInvalidPrivateKeySize is returned when the private key size is invalid.
	ErrInvalidPrivateKeySize = errors.New("invalid private key size")

	// ErrInvalidCiphertextSize is returned when the KEM ciphertext size is invalid.
	ErrInvalidCiphertextSize = errors.New("invalid ciphertext size")

	// ErrInvalidKeySize is returned when an AEAD key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when an AEAD nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrInvalidSaltSize is returned when a KDF salt size is invalid.
	ErrInvalidSaltSize = errors.New("invalid salt size")

	// ErrCiphertextTooShort is returned when an AEAD ciphertext is shorter
	// than the authentication tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")

	// ErrAuthFailed is returned when an AEAD authentication tag does not
	// verify. It carries no detail about which input was wrong.
	ErrAuthFailed = errors.New("message authentication failed")

	// ErrInsufficientEntropy is returned when the system RNG fails or
	// produces output that fails the all-zero sanity check.
	ErrInsufficientEntropy = errors.New("insufficient entropy")

	// ErrUnknownProfile is returned when a KDF profile id is not one of the
	// enumerated set.
	ErrUnknownProfile = errors.New("unknown kdf profile")

	// ErrProfileTooLarge is returned when a KDF profile demands more memory
	// than the configured ceiling. Callers choose a lighter profile; the
	// profile is never downgraded silently.
	ErrProfileTooLarge = errors.New("kdf profile exceeds memory ceiling")
)
