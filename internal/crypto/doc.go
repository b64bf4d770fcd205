// Package crypto provides the cryptographic primitives for QWAMOS encrypted
// volumes. It implements post-quantum key encapsulation, memory-hard password
// key derivation, authenticated encryption, and header integrity hashing
// using modern, standardized algorithms.
//
// # Algorithm Suite
//
// The current volume format composes the following algorithms:
//
//   - ML-KEM-1024 (NIST FIPS 203, Kyber-1024): Post-quantum key encapsulation
//     mechanism used to bind the volume master key to a per-volume keypair.
//     Provides 256-bit classical and quantum security levels (NIST Category 5).
//
//   - Argon2id (RFC 9106): Memory-hard password key derivation with
//     enumerated cost profiles, resistant to GPU/ASIC parallelization.
//
//   - ChaCha20-Poly1305 (RFC 8439): Authenticated encryption with associated
//     data (AEAD) for the wrapped master key, the wrapped private key, and
//     every body sector.
//
//   - HKDF-SHA-512 (RFC 5869): Derives the master-key wrap key from the
//     concatenation of the password key and the KEM shared secret, with
//     domain separation via [WrapKeyInfo].
//
//   - BLAKE3: Fast keyless hashing for header corruption detection. The
//     header integrity tag is explicitly not a substitute for AEAD
//     authentication; body sectors carry their own Poly1305 tags.
//
// Volumes in the retired first-generation format use scrypt and BLAKE2b;
// those primitives are kept here for read-only migration support.
//
// # Security Model
//
// Decapsulating a KEM ciphertext with a mismatched private key never returns
// an error: ML-KEM's implicit rejection yields a deterministic but wrong
// shared secret, and the mismatch only becomes visible when the downstream
// AEAD open fails. Callers must preserve this property rather than detecting
// mismatches earlier, because a decapsulation-failure oracle would
// distinguish wrong passwords from corrupted headers.
//
// ChaCha20-Poly1305 nonces must be unique per key. The volume layer derives
// sector nonces from a random per-volume base combined with the sector
// index. The base is drawn once at volume creation and kept for the life of
// the body, so sectors stay readable across password rotations; rewriting a
// sector in place reuses its nonce, which is the usual full-disk encryption
// tradeoff.
//
// # Key Material Hygiene
//
// All intermediate secrets (password keys, shared secrets, wrap keys) are
// expected to be zeroed by their owners with [Zero] as soon as they are no
// longer needed. [RandomBytes] refuses to return all-zero output so a broken
// RNG is caught before any key is derived from it.
package crypto
