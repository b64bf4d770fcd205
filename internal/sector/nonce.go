package sector

import (
	"encoding/binary"

	"github.com/qwamos/pqvolume/internal/crypto"
)

// Nonce composes the per-sector nonce of a current-format volume: the
// 64-bit big-endian sector index XORed into the trailing 8 bytes of the
// volume's nonce base. nonceBase must be crypto.NonceSize bytes; the header
// codec guarantees that for parsed headers.
//
// The base is drawn once at create time and preserved across password
// rotation; sector ciphertexts stay valid through header rewrites.
func Nonce(nonceBase []byte, index uint64) []byte {
	nonce := make([]byte, crypto.NonceSize)
	copy(nonce, nonceBase)

	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	for i, b := range idx {
		nonce[crypto.NonceSize-8+i] ^= b
	}
	return nonce
}

// LegacyNonce composes the per-sector nonce of a first-generation volume:
// the 64-bit little-endian sector index zero-padded to the nonce size.
func LegacyNonce(index uint64) []byte {
	nonce := make([]byte, crypto.NonceSize)
	binary.LittleEndian.PutUint64(nonce[:8], index)
	return nonce
}
