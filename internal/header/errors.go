package header

import "errors"

var (
	// ErrInvalidMagic is returned when the first eight bytes match no known
	// volume format.
	ErrInvalidMagic = errors.New("invalid volume magic")

	// ErrUnsupportedVersion is returned when the layout is recognized but
	// the version is not one this codec handles.
	ErrUnsupportedVersion = errors.New("unsupported header version")

	// ErrTruncated is returned when the input is shorter than the fixed
	// header size of its format.
	ErrTruncated = errors.New("truncated header")

	// ErrIntegrityTag is returned when the stored BLAKE3 tag does not match
	// the header bytes.
	ErrIntegrityTag = errors.New("header integrity tag mismatch")

	// ErrBadFooter is returned when the closing magic of a current-format
	// header block is wrong.
	ErrBadFooter = errors.New("bad header footer magic")

	// ErrHeaderSizeMismatch is returned when the stored header size field
	// disagrees with the format's fixed size.
	ErrHeaderSizeMismatch = errors.New("header size field mismatch")

	// ErrUnsupportedCipher is returned when a legacy header names a body
	// cipher other than ChaCha20-Poly1305.
	ErrUnsupportedCipher = errors.New("unsupported legacy cipher")

	// ErrUnsupportedKDF is returned when a legacy header names a KDF other
	// than scrypt.
	ErrUnsupportedKDF = errors.New("unsupported legacy kdf")

	// ErrFieldRange is returned when a parsed field is outside its valid
	// range, such as a wrapped key length larger than its block.
	ErrFieldRange = errors.New("header field out of range")

	// ErrLabelTooLong is returned when a label exceeds its fixed region.
	ErrLabelTooLong = errors.New("label too long")
)
