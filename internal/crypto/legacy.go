package crypto

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/scrypt"
)

// LegacyParams holds the scrypt cost parameters stored in a first-generation
// volume header.
type LegacyParams struct {
	// N is the scrypt CPU/memory cost (a power of two).
	N uint32
	// R is the scrypt block size parameter.
	R uint32
	// P is the scrypt parallelization parameter.
	P uint32
}

// DefaultLegacyParams returns the parameters every known first-generation
// volume was written with.
func DefaultLegacyParams() LegacyParams {
	return LegacyParams{N: LegacyScryptN, R: LegacyScryptR, P: LegacyScryptP}
}

// DeriveLegacyKey derives the 32-byte master key of a first-generation
// volume. Legacy volumes key their body cipher directly from scrypt output;
// there is no KEM layer and no wrap step.
func DeriveLegacyKey(password, salt []byte, params LegacyParams) ([]byte, error) {
	if len(salt) != LegacySaltSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSaltSize, len(salt), LegacySaltSize)
	}

	key, err := scrypt.Key(password, salt, int(params.N), int(params.R), int(params.P), KeySize)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}
	return key, nil
}

// LegacyKeyHash computes the BLAKE2b-256 digest of a legacy master key. The
// header stores this digest for password verification.
func LegacyKeyHash(masterKey []byte) [32]byte {
	return blake2b.Sum256(masterKey)
}

// LegacyHeaderMAC computes the keyed BLAKE2b-256 MAC a legacy header carries
// over its fixed prefix, keyed by the master key.
func LegacyHeaderMAC(masterKey, headerPrefix []byte) ([]byte, error) {
	h, err := blake2b.New256(masterKey)
	if err != nil {
		return nil, fmt.Errorf("blake2b mac: %w", err)
	}
	h.Write(headerPrefix)
	return h.Sum(nil), nil
}
