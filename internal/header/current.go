package header

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/qwamos/pqvolume/internal/crypto"
)

// Field sizes of the current layout.
const (
	// SaltLen is the Argon2id salt length.
	SaltLen = 32
	// NonceBaseLen is the sector nonce base length.
	NonceBaseLen = 12
	// VolumeIDLen is the volume UUID length.
	VolumeIDLen = 16
	// LabelLen is the fixed label region length.
	LabelLen = 64
	// KemCiphertextLen is the ML-KEM-1024 ciphertext length.
	KemCiphertextLen = 1568
	// WrappedMasterLen is the sealed master key length (ciphertext plus tag).
	WrappedMasterLen = 48
	// IntegrityTagLen is the BLAKE3 tag length.
	IntegrityTagLen = 32

	// integrityTagOffset is where the tag sits; it covers every byte before it.
	integrityTagOffset = CurrentHeaderSize - IntegrityTagLen
	footerMagicOffset  = integrityTagOffset - MagicSize
)

// CurrentHeader is the decoded form of a post-quantum header block.
// Serialize always stamps [CurrentVersion] and the fixed header size; the
// Version field records what was read.
type CurrentHeader struct {
	// Version is the format version read from disk.
	Version uint32
	// Flags holds the Flag* bits.
	Flags uint32
	// ProfileID is the Argon2id profile id the volume was created with.
	ProfileID uint32
	// MemoryKiB, TimeCost and Parallelism are the resolved Argon2id costs.
	// They are stored so retuning the profile table never strands a volume.
	MemoryKiB   uint32
	TimeCost    uint32
	Parallelism uint32
	// VolumeSize is the body plaintext size in bytes.
	VolumeSize uint64
	// Created and Modified are unix timestamps in seconds.
	Created  uint64
	Modified uint64

	// Salt feeds Argon2id and the HKDF wrap-key derivation.
	Salt []byte
	// NonceBase seeds per-sector nonces. It is drawn once at creation and
	// kept for the life of the body, so rotation can copy sectors verbatim.
	NonceBase []byte
	// VolumeID is a random UUID fixed for the volume's lifetime.
	VolumeID []byte
	// Label is a human-readable name, at most LabelLen bytes of UTF-8.
	Label string

	// WrappedPrivLen is the used length of the private key block that
	// follows the header block on disk.
	WrappedPrivLen uint32
	// KemCiphertext is the ML-KEM encapsulation the master key is bound to.
	KemCiphertext []byte
	// WrappedMaster is the sealed master key: ciphertext plus tag, sealed
	// under the HKDF wrap key with a zero nonce.
	WrappedMaster []byte
}

// Serialize encodes the header into its fixed 2048-byte block, computing and
// stamping the integrity tag over everything before the tag field.
func (h *CurrentHeader) Serialize() ([]byte, error) {
	switch {
	case len(h.Salt) != SaltLen:
		return nil, fmt.Errorf("%w: salt length %d, want %d", ErrFieldRange, len(h.Salt), SaltLen)
	case len(h.NonceBase) != NonceBaseLen:
		return nil, fmt.Errorf("%w: nonce base length %d, want %d", ErrFieldRange, len(h.NonceBase), NonceBaseLen)
	case len(h.VolumeID) != VolumeIDLen:
		return nil, fmt.Errorf("%w: volume id length %d, want %d", ErrFieldRange, len(h.VolumeID), VolumeIDLen)
	case len(h.KemCiphertext) != KemCiphertextLen:
		return nil, fmt.Errorf("%w: kem ciphertext length %d, want %d", ErrFieldRange, len(h.KemCiphertext), KemCiphertextLen)
	case len(h.WrappedMaster) != WrappedMasterLen:
		return nil, fmt.Errorf("%w: wrapped master key length %d, want %d", ErrFieldRange, len(h.WrappedMaster), WrappedMasterLen)
	case h.WrappedPrivLen == 0 || h.WrappedPrivLen > PrivateKeyBlockSize:
		return nil, fmt.Errorf("%w: wrapped private key length %d", ErrFieldRange, h.WrappedPrivLen)
	case h.MemoryKiB == 0 || h.TimeCost == 0 || h.Parallelism == 0 || h.Parallelism > 255:
		return nil, fmt.Errorf("%w: argon2 costs m=%d t=%d p=%d", ErrFieldRange, h.MemoryKiB, h.TimeCost, h.Parallelism)
	}
	if len(h.Label) > LabelLen {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrLabelTooLong, len(h.Label), LabelLen)
	}

	buf := make([]byte, CurrentHeaderSize)
	be := binary.BigEndian

	copy(buf[0:MagicSize], MagicCurrent)
	offset := MagicSize

	be.PutUint32(buf[offset:offset+4], CurrentVersion)
	offset += 4
	be.PutUint32(buf[offset:offset+4], CurrentHeaderSize)
	offset += 4
	be.PutUint32(buf[offset:offset+4], h.Flags)
	offset += 4
	be.PutUint32(buf[offset:offset+4], h.ProfileID)
	offset += 4
	be.PutUint32(buf[offset:offset+4], h.MemoryKiB)
	offset += 4
	be.PutUint32(buf[offset:offset+4], h.TimeCost)
	offset += 4
	be.PutUint32(buf[offset:offset+4], h.Parallelism)
	offset += 4
	offset += 4 // reserved
	be.PutUint64(buf[offset:offset+8], h.VolumeSize)
	offset += 8
	be.PutUint64(buf[offset:offset+8], h.Created)
	offset += 8
	be.PutUint64(buf[offset:offset+8], h.Modified)
	offset += 8

	copy(buf[offset:offset+SaltLen], h.Salt)
	offset += SaltLen
	copy(buf[offset:offset+NonceBaseLen], h.NonceBase)
	offset += NonceBaseLen
	copy(buf[offset:offset+VolumeIDLen], h.VolumeID)
	offset += VolumeIDLen
	copy(buf[offset:offset+LabelLen], h.Label)
	offset += LabelLen

	be.PutUint32(buf[offset:offset+4], h.WrappedPrivLen)
	offset += 4
	copy(buf[offset:offset+KemCiphertextLen], h.KemCiphertext)
	offset += KemCiphertextLen
	copy(buf[offset:offset+WrappedMasterLen], h.WrappedMaster)

	copy(buf[footerMagicOffset:footerMagicOffset+MagicSize], FooterMagic)

	tag := crypto.Sum256(buf[:integrityTagOffset])
	copy(buf[integrityTagOffset:], tag[:])

	return buf, nil
}

// parseCurrent decodes a current-format header block. The integrity tag is
// checked before any other field so a flipped bit anywhere in the block
// reports as tampering, not as whichever field validation it happens to hit.
func parseCurrent(data []byte) (*CurrentHeader, error) {
	if len(data) < CurrentHeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncated, len(data), CurrentHeaderSize)
	}
	data = data[:CurrentHeaderSize]

	tag := crypto.Sum256(data[:integrityTagOffset])
	if subtle.ConstantTimeCompare(tag[:], data[integrityTagOffset:]) != 1 {
		return nil, ErrIntegrityTag
	}

	be := binary.BigEndian
	h := &CurrentHeader{}
	offset := MagicSize

	h.Version = be.Uint32(data[offset : offset+4])
	offset += 4
	if h.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, h.Version, CurrentVersion)
	}

	headerSize := be.Uint32(data[offset : offset+4])
	offset += 4
	if headerSize != CurrentHeaderSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrHeaderSizeMismatch, headerSize, CurrentHeaderSize)
	}

	h.Flags = be.Uint32(data[offset : offset+4])
	offset += 4
	h.ProfileID = be.Uint32(data[offset : offset+4])
	offset += 4
	h.MemoryKiB = be.Uint32(data[offset : offset+4])
	offset += 4
	h.TimeCost = be.Uint32(data[offset : offset+4])
	offset += 4
	h.Parallelism = be.Uint32(data[offset : offset+4])
	offset += 4
	offset += 4 // reserved
	h.VolumeSize = be.Uint64(data[offset : offset+8])
	offset += 8
	h.Created = be.Uint64(data[offset : offset+8])
	offset += 8
	h.Modified = be.Uint64(data[offset : offset+8])
	offset += 8

	h.Salt = bytes.Clone(data[offset : offset+SaltLen])
	offset += SaltLen
	h.NonceBase = bytes.Clone(data[offset : offset+NonceBaseLen])
	offset += NonceBaseLen
	h.VolumeID = bytes.Clone(data[offset : offset+VolumeIDLen])
	offset += VolumeIDLen
	h.Label = string(bytes.TrimRight(data[offset:offset+LabelLen], "\x00"))
	offset += LabelLen

	h.WrappedPrivLen = be.Uint32(data[offset : offset+4])
	offset += 4
	h.KemCiphertext = bytes.Clone(data[offset : offset+KemCiphertextLen])
	offset += KemCiphertextLen
	h.WrappedMaster = bytes.Clone(data[offset : offset+WrappedMasterLen])

	if got := data[footerMagicOffset : footerMagicOffset+MagicSize]; string(got) != FooterMagic {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrBadFooter, got, FooterMagic)
	}
	if h.WrappedPrivLen == 0 || h.WrappedPrivLen > PrivateKeyBlockSize {
		return nil, fmt.Errorf("%w: wrapped private key length %d", ErrFieldRange, h.WrappedPrivLen)
	}
	// The KDF would panic on zero costs and truncates parallelism to a byte.
	if h.MemoryKiB == 0 || h.TimeCost == 0 || h.Parallelism == 0 || h.Parallelism > 255 {
		return nil, fmt.Errorf("%w: argon2 costs m=%d t=%d p=%d", ErrFieldRange, h.MemoryKiB, h.TimeCost, h.Parallelism)
	}

	return h, nil
}
