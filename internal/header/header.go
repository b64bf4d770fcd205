package header

import "fmt"

const (
	// MagicCurrent tags the post-quantum layout.
	MagicCurrent = "QWAMOSPQ"
	// MagicLegacy tags the retired first-generation layout.
	MagicLegacy = "QWAMOSV1"
	// FooterMagic closes a current-format header block.
	FooterMagic = "QWAMOEND"

	// MagicSize is the length of the leading format tag.
	MagicSize = 8

	// CurrentHeaderSize is the fixed size of a current-format header block.
	CurrentHeaderSize = 2048
	// LegacyHeaderSize is the fixed size of a legacy-format header.
	LegacyHeaderSize = 4096

	// CurrentVersion is the only current-format version this codec writes.
	CurrentVersion = 2
	// LegacyVersion is the only legacy-format version this codec reads.
	LegacyVersion = 1

	// PrivateKeyBlockSize is the fixed region that follows a current header
	// block and holds the wrapped private key, zero-padded. The region is
	// larger than a bare wrapped key so a device keystore wrap can expand
	// the blob without moving the body.
	PrivateKeyBlockSize = 4096

	// CurrentBodyOffset is where the sector body of a current-format volume
	// starts.
	CurrentBodyOffset = CurrentHeaderSize + PrivateKeyBlockSize
	// LegacyBodyOffset is where the sector body of a legacy volume starts.
	LegacyBodyOffset = LegacyHeaderSize
)

// Header flag bits. Only FlagKeyStore changes behavior here; the others are
// carried for compatibility with existing tooling.
const (
	// FlagCompressed marks per-sector compression.
	FlagCompressed uint32 = 1 << 0
	// FlagHidden marks a hidden volume.
	FlagHidden uint32 = 1 << 1
	// FlagKeyfile marks keyfile-augmented authentication.
	FlagKeyfile uint32 = 1 << 2
	// FlagKeyStore marks a private key block additionally wrapped by a
	// device keystore.
	FlagKeyStore uint32 = 1 << 3
)

// Format identifies which on-disk layout a header uses.
type Format uint8

const (
	// FormatLegacy is the retired scrypt layout, readable only for migration.
	FormatLegacy Format = 1
	// FormatCurrent is the post-quantum layout all new volumes use.
	FormatCurrent Format = 2
)

// String returns the format's magic tag.
func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return MagicLegacy
	case FormatCurrent:
		return MagicCurrent
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Header is the tagged-union result of parsing either layout. Exactly one of
// Current or Legacy is non-nil, selected by Format.
type Header struct {
	Format  Format
	Current *CurrentHeader
	Legacy  *LegacyHeader
}

// BodyOffset returns the file offset where the sector body starts.
func (h *Header) BodyOffset() int64 {
	if h.Format == FormatLegacy {
		return LegacyBodyOffset
	}
	return CurrentBodyOffset
}

// Parse decodes a volume header from the leading bytes of a volume file.
// The eight-byte magic alone selects the decode path. data may extend past
// the header; extra bytes are ignored.
func Parse(data []byte) (*Header, error) {
	if len(data) < MagicSize {
		return nil, fmt.Errorf("%w: got %d bytes, want at least %d", ErrTruncated, len(data), MagicSize)
	}

	switch string(data[:MagicSize]) {
	case MagicCurrent:
		cur, err := parseCurrent(data)
		if err != nil {
			return nil, err
		}
		return &Header{Format: FormatCurrent, Current: cur}, nil
	case MagicLegacy:
		leg, err := parseLegacy(data)
		if err != nil {
			return nil, err
		}
		return &Header{Format: FormatLegacy, Legacy: leg}, nil
	default:
		return nil, fmt.Errorf("%w: got %q, want %q or %q", ErrInvalidMagic, data[:MagicSize], MagicCurrent, MagicLegacy)
	}
}
