package crypto

const (
	// WrapKeyInfo is the info string used in HKDF wrap-key derivation
	// for domain separation.
	WrapKeyInfo = "qwamos/pqvolume/v2 wrap"

	// MLKEMPublicKeySize is the size of an ML-KEM-1024 public key in bytes.
	MLKEMPublicKeySize = 1568
	// MLKEMPrivateKeySize is the size of an ML-KEM-1024 private key in bytes.
	MLKEMPrivateKeySize = 3168
	// MLKEMCiphertextSize is the size of an ML-KEM-1024 ciphertext in bytes.
	MLKEMCiphertextSize = 1568
	// MLKEMSharedSecretSize is the size of the shared secret from ML-KEM-1024 in bytes.
	MLKEMSharedSecretSize = 32

	// MasterKeySize is the size of a volume master key in bytes.
	MasterKeySize = 32
	// KeySize is the size of a ChaCha20-Poly1305 key in bytes.
	KeySize = 32
	// NonceSize is the size of a ChaCha20-Poly1305 nonce in bytes.
	NonceSize = 12
	// TagSize is the size of a Poly1305 authentication tag in bytes.
	TagSize = 16

	// SaltSize is the size of the Argon2id salt in bytes.
	SaltSize = 32
	// DigestSize is the size of a BLAKE3 integrity digest in bytes.
	DigestSize = 32

	// WrappedPrivateKeySize is the size of an AEAD-sealed ML-KEM-1024
	// private key: nonce || ciphertext || tag.
	WrappedPrivateKeySize = NonceSize + MLKEMPrivateKeySize + TagSize
	// WrappedMasterKeySize is the size of an AEAD-sealed master key
	// (zero nonce, so only ciphertext || tag is stored).
	WrappedMasterKeySize = MasterKeySize + TagSize

	// LegacySaltSize is the size of the scrypt salt in bytes.
	LegacySaltSize = 16
	// LegacyScryptN is the scrypt CPU/memory cost used by first-generation volumes.
	LegacyScryptN = 1 << 14
	// LegacyScryptR is the scrypt block size parameter.
	LegacyScryptR = 8
	// LegacyScryptP is the scrypt parallelization parameter.
	LegacyScryptP = 1
)

// AlgsCiphersuite is the canonical string representation of the algorithm suite.
var AlgsCiphersuite = "ML-KEM-1024:Argon2id:ChaCha20-Poly1305:HKDF-SHA-512:BLAKE3"
