package crypto

import (
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveWrapKey derives the master-key wrap key from the password key and the
// KEM shared secret using HKDF-SHA-512 with [WrapKeyInfo] as the info string.
// The header salt doubles as the HKDF salt, so two volumes sharing a password
// still wrap their master keys under distinct keys.
func DeriveWrapKey(kdfKey, sharedSecret, salt []byte) ([]byte, error) {
	if len(kdfKey) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(kdfKey), KeySize)
	}
	if len(sharedSecret) != MLKEMSharedSecretSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(sharedSecret), MLKEMSharedSecretSize)
	}

	ikm := make([]byte, 0, len(kdfKey)+len(sharedSecret))
	ikm = append(ikm, kdfKey...)
	ikm = append(ikm, sharedSecret...)
	defer Zero(ikm)

	return hkdfDerive(ikm, salt, []byte(WrapKeyInfo), KeySize)
}

// hkdfDerive derives a key using HKDF-SHA-512.
func hkdfDerive(secret, salt, info []byte, length int) ([]byte, error) {
	if len(salt) == 0 {
		salt = make([]byte, sha512.Size)
	}

	reader := hkdf.New(sha512.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	return key, nil
}
