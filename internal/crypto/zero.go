package crypto

import (
	"crypto/rand"
	"fmt"
)

// Zero overwrites b with zero bytes.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// RandomBytes returns n cryptographically random bytes. Freshly drawn
// material is rejected if it is all zero, which catches a broken or
// unseeded RNG before any key is derived from it.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientEntropy, err)
	}

	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, ErrInsufficientEntropy
	}

	return b, nil
}
