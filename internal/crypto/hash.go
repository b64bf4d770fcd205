package crypto

import "lukechampine.com/blake3"

// Sum256 computes the BLAKE3-256 digest used for header corruption
// detection. It is keyless and fast. It is explicitly not a substitute for
// AEAD authentication of secret-dependent data; body sectors are protected
// by their own Poly1305 tags.
func Sum256(data []byte) [DigestSize]byte {
	return blake3.Sum256(data)
}
