package header

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/qwamos/pqvolume/internal/crypto"
)

// Legacy layout constants. The v1 format is little-endian and carries its
// algorithm names as NUL-padded strings instead of ids.
const (
	// LegacyCipherName is the only cipher v1 volumes were written with.
	LegacyCipherName = "ChaCha20-Poly1305"
	// LegacyKDFName is the only KDF v1 volumes were written with.
	LegacyKDFName = "scrypt"

	// LegacySaltLen is the scrypt salt length.
	LegacySaltLen = 16
	// LegacyKeyHashLen is the BLAKE2b-256 master key fingerprint length.
	LegacyKeyHashLen = 32
	// LegacyMACLen is the keyed BLAKE2b-256 header MAC length.
	LegacyMACLen = 32

	legacyNameLen     = 32
	legacyKeyHashOff  = 104
	legacyMACOff      = legacyKeyHashOff + LegacyKeyHashLen
	legacyMACCoverage = legacyMACOff
)

// LegacyHeader is the decoded form of a v1 header block. The MAC is keyed
// with the scrypt-derived master key, so it cannot be verified at parse time;
// MACPrefix retains the covered bytes for [LegacyHeader.VerifyMAC] once the
// key is available.
type LegacyHeader struct {
	// Version is the format version read from disk.
	Version uint32
	// Salt feeds the scrypt derivation.
	Salt []byte
	// ScryptN, ScryptR and ScryptP are the stored scrypt costs.
	ScryptN uint32
	ScryptR uint32
	ScryptP uint32
	// KeyHash is the BLAKE2b-256 fingerprint of the master key.
	KeyHash []byte
	// HeaderMAC is the keyed BLAKE2b-256 MAC over the bytes before it.
	HeaderMAC []byte

	// MACPrefix is a copy of the header bytes the MAC covers.
	MACPrefix []byte
}

// Serialize encodes the header into its fixed 4096-byte block, deriving the
// key fingerprint and MAC from masterKey.
func (h *LegacyHeader) Serialize(masterKey []byte) ([]byte, error) {
	if len(h.Salt) != LegacySaltLen {
		return nil, fmt.Errorf("%w: salt length %d, want %d", ErrFieldRange, len(h.Salt), LegacySaltLen)
	}

	buf := make([]byte, LegacyHeaderSize)
	le := binary.LittleEndian

	copy(buf[0:MagicSize], MagicLegacy)
	offset := MagicSize

	le.PutUint32(buf[offset:offset+4], LegacyVersion)
	offset += 4
	copy(buf[offset:offset+legacyNameLen], LegacyCipherName)
	offset += legacyNameLen
	copy(buf[offset:offset+legacyNameLen], LegacyKDFName)
	offset += legacyNameLen
	copy(buf[offset:offset+LegacySaltLen], h.Salt)
	offset += LegacySaltLen
	le.PutUint32(buf[offset:offset+4], h.ScryptN)
	offset += 4
	le.PutUint32(buf[offset:offset+4], h.ScryptR)
	offset += 4
	le.PutUint32(buf[offset:offset+4], h.ScryptP)
	offset += 4

	keyHash := crypto.LegacyKeyHash(masterKey)
	copy(buf[legacyKeyHashOff:legacyKeyHashOff+LegacyKeyHashLen], keyHash[:])

	mac, err := crypto.LegacyHeaderMAC(masterKey, buf[:legacyMACCoverage])
	if err != nil {
		return nil, err
	}
	copy(buf[legacyMACOff:legacyMACOff+LegacyMACLen], mac)

	return buf, nil
}

// parseLegacy decodes a v1 header block. Only structural checks run here;
// MAC and key fingerprint verification need the derived master key.
func parseLegacy(data []byte) (*LegacyHeader, error) {
	if len(data) < LegacyHeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncated, len(data), LegacyHeaderSize)
	}
	data = data[:LegacyHeaderSize]

	le := binary.LittleEndian
	h := &LegacyHeader{}
	offset := MagicSize

	h.Version = le.Uint32(data[offset : offset+4])
	offset += 4
	if h.Version != LegacyVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, h.Version, LegacyVersion)
	}

	cipherName := trimName(data[offset : offset+legacyNameLen])
	offset += legacyNameLen
	if cipherName != LegacyCipherName {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrUnsupportedCipher, cipherName, LegacyCipherName)
	}

	kdfName := trimName(data[offset : offset+legacyNameLen])
	offset += legacyNameLen
	if kdfName != LegacyKDFName {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrUnsupportedKDF, kdfName, LegacyKDFName)
	}

	h.Salt = bytes.Clone(data[offset : offset+LegacySaltLen])
	offset += LegacySaltLen
	h.ScryptN = le.Uint32(data[offset : offset+4])
	offset += 4
	h.ScryptR = le.Uint32(data[offset : offset+4])
	offset += 4
	h.ScryptP = le.Uint32(data[offset : offset+4])
	offset += 4
	if h.ScryptN == 0 || h.ScryptN&(h.ScryptN-1) != 0 || h.ScryptR == 0 || h.ScryptP == 0 {
		return nil, fmt.Errorf("%w: scrypt costs N=%d r=%d p=%d", ErrFieldRange, h.ScryptN, h.ScryptR, h.ScryptP)
	}

	h.KeyHash = bytes.Clone(data[legacyKeyHashOff : legacyKeyHashOff+LegacyKeyHashLen])
	h.HeaderMAC = bytes.Clone(data[legacyMACOff : legacyMACOff+LegacyMACLen])
	h.MACPrefix = bytes.Clone(data[:legacyMACCoverage])

	return h, nil
}

// VerifyMAC recomputes the header MAC under masterKey and compares it in
// constant time against the stored value.
func (h *LegacyHeader) VerifyMAC(masterKey []byte) error {
	mac, err := crypto.LegacyHeaderMAC(masterKey, h.MACPrefix)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(mac, h.HeaderMAC) != 1 {
		return ErrIntegrityTag
	}
	return nil
}

// VerifyKeyHash compares the stored master key fingerprint in constant time.
func (h *LegacyHeader) VerifyKeyHash(masterKey []byte) bool {
	sum := crypto.LegacyKeyHash(masterKey)
	return subtle.ConstantTimeCompare(sum[:], h.KeyHash) == 1
}

func trimName(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
