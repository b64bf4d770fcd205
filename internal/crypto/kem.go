package crypto

import (
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
)

// randReader is the random source used for key generation and encapsulation
// seeds. It defaults to nil (which uses crypto/rand) but can be overridden
// for testing.
var randReader io.Reader

// KeyPair represents an ML-KEM-1024 keypair for key encapsulation.
type KeyPair struct {
	// PublicKey is the raw ML-KEM-1024 public key bytes.
	PublicKey []byte
	// PrivateKey is the raw ML-KEM-1024 private key bytes.
	PrivateKey []byte
}

// GenerateKeyPair creates a new ML-KEM-1024 keypair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := mlkem1024.GenerateKeyPair(randReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientEntropy, err)
	}

	// MarshalBinary never fails for valid keys from GenerateKeyPair
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	return &KeyPair{PublicKey: pubBytes, PrivateKey: privBytes}, nil
}

// Zero erases the private key material.
func (k *KeyPair) Zero() {
	Zero(k.PrivateKey)
}

// Encapsulate draws a fresh shared secret for the given public key and
// returns the KEM ciphertext that transports it.
func Encapsulate(publicKey []byte) (ciphertext, sharedSecret []byte, err error) {
	if len(publicKey) != MLKEMPublicKeySize {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPublicKeySize, len(publicKey), MLKEMPublicKeySize)
	}

	var pub mlkem1024.PublicKey
	if err := pub.Unpack(publicKey); err != nil {
		return nil, nil, fmt.Errorf("unpack public key: %w", err)
	}

	seed, err := RandomBytes(mlkem1024.EncapsulationSeedSize)
	if err != nil {
		return nil, nil, err
	}
	defer Zero(seed)

	ciphertext = make([]byte, MLKEMCiphertextSize)
	sharedSecret = make([]byte, MLKEMSharedSecretSize)
	pub.EncapsulateTo(ciphertext, sharedSecret, seed)

	return ciphertext, sharedSecret, nil
}

// Decapsulate recovers the shared secret from a KEM ciphertext.
//
// A mismatched key/ciphertext pair does not produce an error: ML-KEM's
// implicit rejection yields a deterministic but wrong secret, and only the
// downstream AEAD open exposes the mismatch. Callers must not add their own
// mismatch detection here.
func Decapsulate(privateKey, ciphertext []byte) ([]byte, error) {
	if len(privateKey) != MLKEMPrivateKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidPrivateKeySize, len(privateKey), MLKEMPrivateKeySize)
	}
	if len(ciphertext) != MLKEMCiphertextSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidCiphertextSize, len(ciphertext), MLKEMCiphertextSize)
	}

	var priv mlkem1024.PrivateKey
	if err := priv.Unpack(privateKey); err != nil {
		return nil, fmt.Errorf("unpack private key: %w", err)
	}

	sharedSecret := make([]byte, MLKEMSharedSecretSize)
	priv.DecapsulateTo(sharedSecret, ciphertext)

	return sharedSecret, nil
}
